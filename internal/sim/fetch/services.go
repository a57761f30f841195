// Package fetch is the food-fetch decision pipeline. Hosts construct it with a
// Provider that may override the inventory and on-map source decisions.
package fetch

import "pastewarden.ai/internal/sim/kernel/model"

// SpatialIndex enumerates resources on one map. Order is the index's natural
// enumeration order and must be stable between calls on an unchanged map.
type SpatialIndex interface {
	ResourcesInCategories(mapID string, cats ...model.Category) []*model.Resource
}

type ReservationOracle interface {
	CanClaim(agent *model.Agent, res *model.Resource, quantity int) bool
}

type ReachabilityOracle interface {
	CanReach(agent *model.Agent, from model.Vec2i, res *model.Resource, danger model.Danger, mode model.TraverseMode) bool
}

// Catalog is the def lookup the pipeline needs.
type Catalog interface {
	Preferability(defID string) int
	FinalConsumableDef(defID string) string
}

// Selection is an on-map source chosen by a Provider.
type Selection struct {
	Resource *model.Resource
	FinalDef string
}

// Provider overrides the two decision points of the pipeline.
type Provider interface {
	// InventoryUsable is consulted before inventory is used. best is the
	// pipeline's best carried option (nil if none).
	InventoryUsable(acquirer, consumer *model.Agent, best *model.Item, defaultAllowed bool) bool
	// SelectSource may replace the default on-map search. ok=false defers.
	SelectSource(acquirer, consumer *model.Agent) (sel Selection, ok bool)
}

// DefaultProvider never overrides anything.
type DefaultProvider struct{}

func (DefaultProvider) InventoryUsable(_, _ *model.Agent, _ *model.Item, defaultAllowed bool) bool {
	return defaultAllowed
}

func (DefaultProvider) SelectSource(_, _ *model.Agent) (Selection, bool) {
	return Selection{}, false
}
