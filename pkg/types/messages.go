package types

// Client -> Server (websocket /ws?code=XXXXXX&role=host|guest)
// The host plays the lobby's hostColor, the guest the other color. Omit role
// to watch without acting. A seat already held answers 409.
//
// bid:
//   bid: { amount: number } | { fold: true }
//
// move:
//   move: { from: number, to: number, // squares 0..63, a1 = 0
//           promotion?: "queen" | "rook" | "bishop" | "knight" }
//   uci:  string // alternative to move, e.g. "e7e8q"

// Server -> Client
// StateSnapshot: see snapshot.go
//
// Ack: {} // the last command was applied; its snapshot is sent separately
//
// Error:
//   error: string
//   code: "not_your_turn" | "spectator" | "seat_taken" | "bad_json" | "invalid_move" | "lobby_closed"
//       | "phase_violation" | "terminal_state" | "invalid_amount"
//       | "must_exceed_previous_bid" | "insufficient_funds"
//       | "empty_square_move" | "not_your_piece" | "illegal_destination"
//       | "piece_too_expensive" | "unsupported_command"

// HTTP
// POST /lobbies                  body: game config, 201 { code }
//   hostColor?: "white" | "black"
//   auctionConfig: { initBalance: { white: number, black: number } }
//   timeConfig?: { enabled: boolean, initTime: { white: number, black: number } }
//   interestConfig?: { enabled: boolean, rate: number }
//   pieceIncomeConfig?: { enabled: boolean, pieceIncome: { pawn, knight, bishop, rook, queen, king } }
//   pieceFeeConfig?: { enabled: boolean, pieceFee: { pawn, knight, bishop, rook, queen, king } }
// GET  /lobbies/{code}           { code, version, numClients, players, fen, winner?, state }
// POST /lobbies/{code}/timecheck 204, any timeout arrives as a snapshot
// GET  /healthz
