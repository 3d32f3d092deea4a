package types

// StateSnapshot:
//   version: number // bumps by one per applied change
//   state:
//     hostColor: "white" | "black"
//     chessState: { board, castlingRights: { lo, hi }, epSquare?: number }
//     auctionState:
//       balance: { white: number, black: number }
//       bidHistory: Bid[][] // last entry is the open round
//       minBid: number
//       interestRate: number
//     timeState?: { remaining: { white, black }, lastResumedAt: number | null }
//     turn: "white" | "black"
//     phase: "bid" | "move"
//     outcome?: { winner?: "white" | "black", reason: "mate" | "timeout" | ... }
//     pieceIncome?: { pawn, knight, bishop, rook, queen, king }
//     pieceFee?:    { pawn, knight, bishop, rook, queen, king }
//   events: Event[] // what produced this version, empty on join
//
// Event:
//   type: "BidPlaced" | "AutoFold" | "AuctionWon" | "PieceMoved" | "FeeDeducted"
//       | "IncomeEarned" | "InterestEarned" | "TimeDeducted" | "GameOver"
//   color, amount?, amounts?, bid?, move?, captured?, outcome?
