package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/kernel/model"
)

func testCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func TestLoad_PrisonScenario(t *testing.T) {
	cats := testCatalogs(t)
	sc, err := Load(filepath.Join("..", "..", "..", "configs", "scenarios", "prison.yaml"), cats)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sc.Order) != 3 || sc.Order[0] != "warden" {
		t.Fatalf("order=%v", sc.Order)
	}
	w := sc.Agents["warden"]
	if !w.CanActOnBehalf || len(w.Inventory) != 1 || w.Inventory[0].Count != 2 || w.Inventory[0].Category != model.CategoryOther {
		t.Fatalf("warden=%+v", w)
	}
	if !sc.Agents["prisoner"].Restricted {
		t.Fatalf("prisoner should be restricted")
	}
	d := sc.World.Resource("dispenser_1")
	if d == nil || d.Category != model.CategoryDispenser || !d.Active {
		t.Fatalf("dispenser=%+v", d)
	}
	if holder, ok := sc.World.ReservedBy("paste_meal_1"); !ok || holder != "cook" {
		t.Fatalf("reservation holder=%q ok=%v", holder, ok)
	}
}

func TestParse_Flags(t *testing.T) {
	cats := testCatalogs(t)
	raw := `
maps:
  - {id: m, rows: ["....", "...."]}
agents:
  - {id: a, map: m, pos: [0, 0]}
resources:
  - {id: d, def: nutrient_paste_dispenser, map: m, pos: [3, 1], inactive: true}
  - {id: p, def: meal_nutrient_paste, map: m, pos: [1, 1], forbidden_to: [a]}
`
	sc, err := Parse([]byte(raw), cats)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.World.Resource("d").Active {
		t.Fatalf("inactive flag ignored")
	}
	if !sc.World.Resource("p").IsForbiddenTo("a") {
		t.Fatalf("forbidden_to ignored")
	}
	if sc.Agents["a"].Name != "a" {
		t.Fatalf("name should default to id")
	}
}

func TestParse_Errors(t *testing.T) {
	cats := testCatalogs(t)
	base := "maps:\n  - {id: m, rows: [\"...\"]}\n"
	cases := map[string]string{
		"unknown map":     base + "agents:\n  - {id: a, map: x}\n",
		"dup agent":       base + "agents:\n  - {id: a, map: m}\n  - {id: a, map: m}\n",
		"agent oob":       base + "agents:\n  - {id: a, map: m, pos: [5, 0]}\n",
		"unknown def":     base + "resources:\n  - {id: r, def: nope, map: m}\n",
		"bad stack":       base + "agents:\n  - {id: a, map: m, inventory: [{def: nope}]}\n",
		"reserve unknown": base + "reservations:\n  - {agent: a, resource: r}\n",
		"bad grid":        "maps:\n  - {id: m, rows: [\"..\", \".\"]}\n",
		"bad yaml":        "maps: [",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw), cats); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Parse([]byte(base), nil); err == nil || !strings.Contains(err.Error(), "catalogs") {
		t.Fatalf("expected nil catalogs error, got %v", err)
	}
}
