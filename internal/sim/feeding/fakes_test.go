package feeding

import "pastewarden.ai/internal/sim/kernel/model"

type fakeIndex struct {
	res   []*model.Resource
	calls int
}

func (f *fakeIndex) ResourcesInCategories(mapID string, cats ...model.Category) []*model.Resource {
	f.calls++
	want := map[model.Category]bool{}
	for _, c := range cats {
		want[c] = true
	}
	var out []*model.Resource
	for _, r := range f.res {
		if r.MapID == mapID && want[r.Category] {
			out = append(out, r)
		}
	}
	return out
}

// fakeClaims denies claims on resources held by someone else.
type fakeClaims struct {
	heldBy map[string]string
	qty    []int
}

func (f *fakeClaims) CanClaim(agent *model.Agent, res *model.Resource, quantity int) bool {
	f.qty = append(f.qty, quantity)
	holder, ok := f.heldBy[res.ID]
	return !ok || holder == agent.ID
}

type fakeReach struct {
	blocked map[string]bool
	danger  []model.Danger
	modes   []model.TraverseMode
}

func (f *fakeReach) CanReach(agent *model.Agent, from model.Vec2i, res *model.Resource, danger model.Danger, mode model.TraverseMode) bool {
	f.danger = append(f.danger, danger)
	f.modes = append(f.modes, mode)
	return !f.blocked[res.ID]
}

type fixture struct {
	idx    *fakeIndex
	claims *fakeClaims
	reach  *fakeReach
	res    *Resolver
	policy *Policy

	warden   *model.Agent
	prisoner *model.Agent
	colonist *model.Agent
}

type finalDefs map[string]string

func (f finalDefs) FinalConsumableDef(id string) string {
	if v, ok := f[id]; ok {
		return v
	}
	return id
}

func newFixture(res ...*model.Resource) *fixture {
	f := &fixture{
		idx:    &fakeIndex{res: res},
		claims: &fakeClaims{heldBy: map[string]string{}},
		reach:  &fakeReach{blocked: map[string]bool{}},
	}
	f.res = &Resolver{Index: f.idx, Reservations: f.claims, Reach: f.reach}
	f.policy = &Policy{Resolver: f.res, Catalog: finalDefs{"paste_dispenser": "meal_paste"}}
	f.warden = &model.Agent{ID: "W1", MapID: "M1", CanActOnBehalf: true}
	f.prisoner = &model.Agent{ID: "P1", MapID: "M1", Pos: model.Vec2i{X: 9, Z: 9}, Restricted: true}
	f.colonist = &model.Agent{ID: "C1", MapID: "M1"}
	return f
}

func meal(id string, x, z int) *model.Resource {
	return &model.Resource{ID: id, DefID: "meal_paste", MapID: "M1", Pos: model.Vec2i{X: x, Z: z}, Category: model.CategoryLowGradeMeal}
}

func dispenser(id string, x, z int, active bool) *model.Resource {
	return &model.Resource{ID: id, DefID: "paste_dispenser", MapID: "M1", Pos: model.Vec2i{X: x, Z: z}, Category: model.CategoryDispenser, Active: active}
}
