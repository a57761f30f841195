package fetch

import (
	"testing"

	"pastewarden.ai/internal/sim/kernel/model"
)

type sliceIndex []*model.Resource

func (s sliceIndex) ResourcesInCategories(mapID string, cats ...model.Category) []*model.Resource {
	var out []*model.Resource
	for _, r := range s {
		if r.MapID != mapID {
			continue
		}
		for _, c := range cats {
			if r.Category == c {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

type allowAll struct{}

func (allowAll) CanClaim(*model.Agent, *model.Resource, int) bool { return true }
func (allowAll) CanReach(*model.Agent, model.Vec2i, *model.Resource, model.Danger, model.TraverseMode) bool {
	return true
}

type prefs map[string]int

func (p prefs) Preferability(id string) int         { return p[id] }
func (p prefs) FinalConsumableDef(id string) string { return id }

type scripted struct {
	allow bool
	sel   Selection
	ok    bool

	sawBest *model.Item
	calls   []string
}

func (s *scripted) InventoryUsable(_, _ *model.Agent, best *model.Item, _ bool) bool {
	s.calls = append(s.calls, "inventory")
	s.sawBest = best
	return s.allow
}

func (s *scripted) SelectSource(_, _ *model.Agent) (Selection, bool) {
	s.calls = append(s.calls, "select")
	return s.sel, s.ok
}

func newPipeline(prov Provider, res ...*model.Resource) *Pipeline {
	return &Pipeline{
		Provider:     prov,
		Index:        sliceIndex(res),
		Reservations: allowAll{},
		Reach:        allowAll{},
		Catalog:      prefs{"meal_fine": 6, "meal_paste": 1},
		Config:       Config{ClaimQuantity: 1, Danger: model.DangerDeadly, InventoryDefaultAllowed: true},
	}
}

func TestBestInventoryItem(t *testing.T) {
	a := &model.Agent{Inventory: []model.Item{
		{DefID: "meal_paste", Preferability: 1, Count: 3},
		{DefID: "meal_fine", Preferability: 6, Count: 1},
		{DefID: "meal_fine_b", Preferability: 6, Count: 1},
		{DefID: "meal_lavish", Preferability: 9, Count: 0},
	}}
	best := BestInventoryItem(a)
	if best == nil || best.DefID != "meal_fine" {
		t.Fatalf("best=%+v", best)
	}
	best.Count = 99
	if a.Inventory[1].Count != 1 {
		t.Fatalf("BestInventoryItem must return a copy")
	}
	if BestInventoryItem(&model.Agent{}) != nil || BestInventoryItem(nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestPlan_UsesInventoryWhenAllowed(t *testing.T) {
	acq := &model.Agent{ID: "W", MapID: "M", Inventory: []model.Item{{DefID: "meal_fine", Preferability: 6, Count: 1}}}
	prov := &scripted{allow: true}
	p := newPipeline(prov)
	plan := p.Plan(acq, &model.Agent{ID: "P"})
	if plan.Source != SourceInventory || plan.Item == nil || plan.Item.DefID != "meal_fine" {
		t.Fatalf("plan=%+v", plan)
	}
	if len(prov.calls) != 1 || prov.sawBest == nil {
		t.Fatalf("calls=%v", prov.calls)
	}
}

func TestPlan_OverrideShortCircuitsDefault(t *testing.T) {
	fine := &model.Resource{ID: "F", DefID: "meal_fine", MapID: "M", Pos: model.Vec2i{X: 1}}
	paste := &model.Resource{ID: "P", DefID: "meal_paste", MapID: "M", Pos: model.Vec2i{X: 9}, Category: model.CategoryLowGradeMeal}
	acq := &model.Agent{ID: "W", MapID: "M", Inventory: []model.Item{{DefID: "meal_fine", Preferability: 6, Count: 1}}}
	prov := &scripted{allow: false, sel: Selection{Resource: paste, FinalDef: "meal_paste"}, ok: true}
	p := newPipeline(prov, fine, paste)

	plan := p.Plan(acq, &model.Agent{ID: "P"})
	if plan.Source != SourceOverride || plan.Resource != paste || plan.InventoryAllowed {
		t.Fatalf("plan=%+v", plan)
	}
	if len(prov.calls) != 2 || prov.calls[0] != "inventory" || prov.calls[1] != "select" {
		t.Fatalf("call order=%v", prov.calls)
	}
}

func TestPlanWith_ReplacesProviderForOneCall(t *testing.T) {
	paste := &model.Resource{ID: "P", DefID: "meal_paste", MapID: "M", Pos: model.Vec2i{X: 9}, Category: model.CategoryLowGradeMeal}
	acq := &model.Agent{ID: "W", MapID: "M", Inventory: []model.Item{{DefID: "meal_fine", Preferability: 6, Count: 1}}}
	base := &scripted{allow: true}
	once := &scripted{allow: false, sel: Selection{Resource: paste, FinalDef: "meal_paste"}, ok: true}
	p := newPipeline(base, paste)

	if plan := p.PlanWith(once, acq, &model.Agent{ID: "P"}); plan.Source != SourceOverride || plan.Resource != paste {
		t.Fatalf("plan=%+v", plan)
	}
	if len(base.calls) != 0 || len(once.calls) != 2 {
		t.Fatalf("base=%v once=%v", base.calls, once.calls)
	}
	if plan := p.Plan(acq, &model.Agent{ID: "P"}); plan.Source != SourceInventory {
		t.Fatalf("plan=%+v", plan)
	}
}

func TestPlan_DefaultSearchPrefersQuality(t *testing.T) {
	fine := &model.Resource{ID: "F", DefID: "meal_fine", MapID: "M", Pos: model.Vec2i{X: 7}}
	paste := &model.Resource{ID: "P", DefID: "meal_paste", MapID: "M", Pos: model.Vec2i{X: 1}, Category: model.CategoryLowGradeMeal}
	off := &model.Resource{ID: "D", DefID: "paste_dispenser", MapID: "M", Category: model.CategoryDispenser}
	p := newPipeline(nil, off, paste, fine)
	// score(fine)=600-49, score(paste)=100-1, inactive dispenser skipped
	plan := p.Plan(&model.Agent{ID: "W", MapID: "M"}, nil)
	if plan.Source != SourceDefault || plan.Resource != fine || plan.FinalDef != "meal_fine" {
		t.Fatalf("plan=%+v", plan)
	}
}

func TestPlan_NoSource(t *testing.T) {
	p := newPipeline(DefaultProvider{})
	if plan := p.Plan(&model.Agent{ID: "W", MapID: "M"}, nil); plan.Source != SourceNone || !plan.InventoryAllowed {
		t.Fatalf("plan=%+v", plan)
	}
	if plan := p.Plan(nil, nil); plan.Source != SourceNone {
		t.Fatalf("plan=%+v", plan)
	}
}
