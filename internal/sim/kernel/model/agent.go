package model

type Agent struct {
	ID    string
	Name  string
	MapID string
	Pos   Vec2i

	// Restricted consumers are only entitled to low-grade food.
	Restricted bool
	// CanActOnBehalf marks wardens/doctors who fetch for others.
	CanActOnBehalf bool

	// Carried stacks, in pickup order.
	Inventory []Item
}

// Item is a carried stack. Category is copied from the catalog def at pickup time.
type Item struct {
	DefID         string
	Category      Category
	Preferability int
	Count         int
}

// Same reports whether a and b are the same agent. Two nil agents are not the same.
func Same(a, b *Agent) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b || (a.ID != "" && a.ID == b.ID)
}
