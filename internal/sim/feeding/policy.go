package feeding

import (
	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/kernel/model"
)

// FinalDefLookup maps a source def to what the consumer actually eats.
type FinalDefLookup interface {
	FinalConsumableDef(defID string) string
}

// Policy implements fetch.Provider on top of a Resolver.
type Policy struct {
	Resolver *Resolver
	Catalog  FinalDefLookup
}

var _ fetch.Provider = (*Policy)(nil)

// InventoryUsable disables carried food for a restricted consumer only when
// the best carried item is not already low-grade and a map source exists.
func (p *Policy) InventoryUsable(acquirer, consumer *model.Agent, best *model.Item, defaultAllowed bool) bool {
	return inventoryUsable(acquirer, consumer, best, defaultAllowed, func() *model.Resource {
		return p.Resolver.Resolve(acquirer, consumer)
	})
}

func (p *Policy) SelectSource(acquirer, consumer *model.Agent) (fetch.Selection, bool) {
	return selection(p.Resolver.Resolve(acquirer, consumer), p.Catalog)
}

// Bind returns a provider that answers both hooks from ex instead of
// resolving again. ex must come from Explain on the same acquirer and
// consumer, against the snapshot the plan runs on.
func (p *Policy) Bind(ex Explanation) fetch.Provider {
	return &bound{chosen: ex.Chosen, catalog: p.Catalog}
}

type bound struct {
	chosen  *model.Resource
	catalog FinalDefLookup
}

func (b *bound) InventoryUsable(acquirer, consumer *model.Agent, best *model.Item, defaultAllowed bool) bool {
	return inventoryUsable(acquirer, consumer, best, defaultAllowed, func() *model.Resource { return b.chosen })
}

func (b *bound) SelectSource(acquirer, consumer *model.Agent) (fetch.Selection, bool) {
	if applicable(acquirer, consumer) != GuardNone {
		return fetch.Selection{}, false
	}
	return selection(b.chosen, b.catalog)
}

func inventoryUsable(acquirer, consumer *model.Agent, best *model.Item, defaultAllowed bool, resolve func() *model.Resource) bool {
	if applicable(acquirer, consumer) != GuardNone {
		return defaultAllowed
	}
	// Only the best carried item is inspected.
	if best == nil || best.Category == model.CategoryLowGradeMeal {
		return defaultAllowed
	}
	if resolve() == nil {
		return defaultAllowed
	}
	return false
}

func selection(res *model.Resource, catalog FinalDefLookup) (fetch.Selection, bool) {
	if res == nil {
		return fetch.Selection{}, false
	}
	final := res.DefID
	if catalog != nil {
		final = catalog.FinalConsumableDef(res.DefID)
	}
	return fetch.Selection{Resource: res, FinalDef: final}, true
}
