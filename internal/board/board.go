package board

// Board keeps one square set per color and per role plus the occupancy and
// promoted markers. A square sits in at most one color set and one role set;
// Occupied is the union of either. Board is a plain value: every operation
// returns a new board and leaves the receiver untouched.
type Board struct {
	Occupied SquareSet `json:"occupied"`
	Promoted SquareSet `json:"promoted"`
	White    SquareSet `json:"white"`
	Black    SquareSet `json:"black"`
	Pawn     SquareSet `json:"pawn"`
	Knight   SquareSet `json:"knight"`
	Bishop   SquareSet `json:"bishop"`
	Rook     SquareSet `json:"rook"`
	Queen    SquareSet `json:"queen"`
	King     SquareSet `json:"king"`
}

// Standard returns the initial chess setup.
func Standard() Board {
	return Board{
		Occupied: 0xffff00000000ffff,
		White:    0x000000000000ffff,
		Black:    0xffff000000000000,
		Pawn:     0x00ff00000000ff00,
		Knight:   0x4200000000000042,
		Bishop:   0x2400000000000024,
		Rook:     0x8100000000000081,
		Queen:    0x0800000000000008,
		King:     0x1000000000000010,
	}
}

func (b Board) ByColor(c Color) SquareSet {
	if c == White {
		return b.White
	}
	return b.Black
}

func (b Board) ByRole(r Role) SquareSet {
	switch r {
	case Pawn:
		return b.Pawn
	case Knight:
		return b.Knight
	case Bishop:
		return b.Bishop
	case Rook:
		return b.Rook
	case Queen:
		return b.Queen
	case King:
		return b.King
	default:
		return EmptySet
	}
}

// Pieces returns the squares holding pieces of the given color and role.
func (b Board) Pieces(c Color, r Role) SquareSet {
	return b.ByColor(c).Intersect(b.ByRole(r))
}

func (b Board) colorAt(sq Square) (Color, bool) {
	switch {
	case b.White.Has(sq):
		return White, true
	case b.Black.Has(sq):
		return Black, true
	}
	return White, false
}

func (b Board) roleAt(sq Square) Role {
	for _, r := range Roles {
		if b.ByRole(r).Has(sq) {
			return r
		}
	}
	return NoRole
}

func (b Board) PieceAt(sq Square) (Piece, bool) {
	color, ok := b.colorAt(sq)
	if !ok {
		return Piece{}, false
	}
	return Piece{Color: color, Role: b.roleAt(sq), Promoted: b.Promoted.Has(sq)}, true
}

func (b Board) Remove(sq Square) Board {
	b.Occupied = b.Occupied.Without(sq)
	b.Promoted = b.Promoted.Without(sq)
	b.White = b.White.Without(sq)
	b.Black = b.Black.Without(sq)
	b.Pawn = b.Pawn.Without(sq)
	b.Knight = b.Knight.Without(sq)
	b.Bishop = b.Bishop.Without(sq)
	b.Rook = b.Rook.Without(sq)
	b.Queen = b.Queen.Without(sq)
	b.King = b.King.Without(sq)
	return b
}

// Place puts p on sq, replacing whatever stood there.
func (b Board) Place(sq Square, p Piece) Board {
	if !sq.Valid() {
		return b
	}
	b = b.Remove(sq)
	b.Occupied = b.Occupied.With(sq)
	if p.Promoted {
		b.Promoted = b.Promoted.With(sq)
	}
	if p.Color == White {
		b.White = b.White.With(sq)
	} else {
		b.Black = b.Black.With(sq)
	}
	return b.setRole(p.Role, b.ByRole(p.Role).With(sq))
}

// Promote swaps the role of the piece on sq and marks it promoted.
func (b Board) Promote(sq Square, r Role) Board {
	p, ok := b.PieceAt(sq)
	if !ok {
		return b
	}
	p.Role = r
	p.Promoted = true
	return b.Place(sq, p)
}

func (b Board) setRole(r Role, set SquareSet) Board {
	switch r {
	case Pawn:
		b.Pawn = set
	case Knight:
		b.Knight = set
	case Bishop:
		b.Bishop = set
	case Rook:
		b.Rook = set
	case Queen:
		b.Queen = set
	case King:
		b.King = set
	}
	return b
}

// Consistent reports whether the disjointness and union invariants hold.
func (b Board) Consistent() bool {
	if !b.White.Intersect(b.Black).IsEmpty() {
		return false
	}
	if b.White.Union(b.Black) != b.Occupied {
		return false
	}
	var roles SquareSet
	for _, r := range Roles {
		set := b.ByRole(r)
		if !roles.Intersect(set).IsEmpty() {
			return false
		}
		roles = roles.Union(set)
	}
	return roles == b.Occupied && b.Promoted.Diff(b.Occupied).IsEmpty()
}
