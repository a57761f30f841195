package fetch

import (
	"pastewarden.ai/internal/sim/kernel/model"
)

type Source string

const (
	SourceNone      Source = "NONE"
	SourceInventory Source = "INVENTORY"
	SourceOverride  Source = "OVERRIDE"
	SourceDefault   Source = "DEFAULT"
)

// Plan is the outcome of one fetch decision.
type Plan struct {
	Source Source

	// Item is set for SourceInventory.
	Item *model.Item
	// Resource and FinalDef are set for SourceOverride and SourceDefault.
	Resource *model.Resource
	FinalDef string

	// BestInventory is the best carried option the pipeline considered.
	BestInventory *model.Item
	// InventoryAllowed is the answer after the provider was consulted.
	InventoryAllowed bool
}

type Config struct {
	ClaimQuantity           int
	Danger                  model.Danger
	Mode                    model.TraverseMode
	InventoryDefaultAllowed bool
}

type Pipeline struct {
	Provider     Provider
	Index        SpatialIndex
	Reservations ReservationOracle
	Reach        ReachabilityOracle
	Catalog      Catalog
	Config       Config
}

var allCategories = []model.Category{model.CategoryOther, model.CategoryLowGradeMeal, model.CategoryDispenser}

// Plan decides where acquirer gets food for consumer.
func (p *Pipeline) Plan(acquirer, consumer *model.Agent) Plan {
	return p.PlanWith(p.Provider, acquirer, consumer)
}

// PlanWith is Plan with prov in place of p.Provider for this call only.
func (p *Pipeline) PlanWith(prov Provider, acquirer, consumer *model.Agent) Plan {
	if prov == nil {
		prov = DefaultProvider{}
	}
	if acquirer == nil {
		return Plan{Source: SourceNone}
	}

	best := BestInventoryItem(acquirer)
	allowed := prov.InventoryUsable(acquirer, consumer, best, p.Config.InventoryDefaultAllowed)
	plan := Plan{Source: SourceNone, BestInventory: best, InventoryAllowed: allowed}
	if allowed && best != nil {
		plan.Source = SourceInventory
		plan.Item = best
		return plan
	}

	if sel, ok := prov.SelectSource(acquirer, consumer); ok && sel.Resource != nil {
		plan.Source = SourceOverride
		plan.Resource = sel.Resource
		plan.FinalDef = sel.FinalDef
		return plan
	}

	if res := p.bestOnMap(acquirer); res != nil {
		plan.Source = SourceDefault
		plan.Resource = res
		plan.FinalDef = p.finalDef(res.DefID)
	}
	return plan
}

// BestInventoryItem is the highest-preferability carried stack; ties keep
// pickup order.
func BestInventoryItem(a *model.Agent) *model.Item {
	if a == nil {
		return nil
	}
	var best *model.Item
	for i := range a.Inventory {
		it := &a.Inventory[i]
		if it.Count <= 0 {
			continue
		}
		if best == nil || it.Preferability > best.Preferability {
			best = it
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func (p *Pipeline) bestOnMap(acquirer *model.Agent) *model.Resource {
	if p.Index == nil {
		return nil
	}
	var (
		best      *model.Resource
		bestScore int
	)
	for _, r := range p.Index.ResourcesInCategories(acquirer.MapID, allCategories...) {
		if !p.usable(acquirer, r) {
			continue
		}
		score := p.preferability(r.DefID)*100 - acquirer.Pos.DistSq(r.Pos)
		if best == nil || score > bestScore {
			best, bestScore = r, score
		}
	}
	return best
}

func (p *Pipeline) usable(acquirer *model.Agent, r *model.Resource) bool {
	if r == nil || r.IsForbiddenTo(acquirer.ID) {
		return false
	}
	if r.Category == model.CategoryDispenser {
		if !r.CanDispenseNow() {
			return false
		}
	} else if p.Reservations == nil || !p.Reservations.CanClaim(acquirer, r, p.claimQuantity()) {
		return false
	}
	return p.Reach != nil && p.Reach.CanReach(acquirer, acquirer.Pos, r, p.Config.Danger, p.Config.Mode)
}

func (p *Pipeline) claimQuantity() int {
	if p.Config.ClaimQuantity <= 0 {
		return 1
	}
	return p.Config.ClaimQuantity
}

func (p *Pipeline) preferability(defID string) int {
	if p.Catalog == nil {
		return 0
	}
	return p.Catalog.Preferability(defID)
}

func (p *Pipeline) finalDef(defID string) string {
	if p.Catalog == nil {
		return defID
	}
	return p.Catalog.FinalConsumableDef(defID)
}
