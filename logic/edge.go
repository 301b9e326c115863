package logic

// Edge classifies a transition of a scalar bit.
type Edge int

// Edge kinds. AnyEdge matches every value change when used as a sensitivity
// filter.
const (
	NoEdge Edge = iota
	Posedge
	Negedge
	AnyEdge
)

func (e Edge) String() string {
	switch e {
	case Posedge:
		return "posedge"
	case Negedge:
		return "negedge"
	case AnyEdge:
		return "anyedge"
	}

	return "noedge"
}

// EdgeBetween classifies the transition from old to new. A posedge is any
// transition toward 1 (0->1, 0->x, 0->z, x->1, z->1), a negedge any
// transition toward 0. Transitions between X and Z are value changes but
// carry no edge.
func EdgeBetween(old, new Bit) Edge {
	if old == new {
		return NoEdge
	}

	switch {
	case old == L, new == H:
		return Posedge
	case old == H, new == L:
		return Negedge
	}

	return NoEdge
}

// Matches reports whether an observed transition satisfies the filter e.
// AnyEdge matches both edge directions as well as X/Z movements between
// distinct values.
func (e Edge) Matches(old, new Bit) bool {
	if e == AnyEdge {
		return old != new
	}

	return EdgeBetween(old, new) == e
}
