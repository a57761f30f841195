package model

type Resource struct {
	ID       string
	DefID    string
	MapID    string
	Pos      Vec2i
	Category Category

	// Active only matters for dispensers (powered and stocked).
	Active bool

	// Forbidden applies to every agent; ForbiddenTo holds per-agent entries.
	Forbidden   bool
	ForbiddenTo map[string]bool
}

func (r *Resource) IsForbiddenTo(agentID string) bool {
	if r == nil {
		return true
	}
	if r.Forbidden {
		return true
	}
	return r.ForbiddenTo[agentID]
}

func (r *Resource) CanDispenseNow() bool {
	return r != nil && r.Category == CategoryDispenser && r.Active
}
