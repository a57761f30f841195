package model

import "testing"

func TestVec2iDistSq(t *testing.T) {
	a := Vec2i{X: 0, Z: 0}
	if got := a.DistSq(Vec2i{X: 5, Z: 5}); got != 50 {
		t.Fatalf("DistSq=%d want 50", got)
	}
	if got := (Vec2i{X: -2, Z: 3}).DistSq(Vec2i{X: 1, Z: -1}); got != 25 {
		t.Fatalf("DistSq=%d want 25", got)
	}
	if !a.Touches(Vec2i{X: 1, Z: -1}) || a.Touches(Vec2i{X: 2, Z: 0}) {
		t.Fatalf("Touches mismatch")
	}
}

func TestParseEnums(t *testing.T) {
	for _, c := range []Category{CategoryOther, CategoryLowGradeMeal, CategoryDispenser} {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q)=%v,%v", c.String(), got, err)
		}
	}
	if _, err := ParseCategory("LAVISH"); err == nil {
		t.Fatalf("expected unknown category error")
	}
	if d, err := ParseDanger("deadly"); err != nil || d != DangerDeadly {
		t.Fatalf("ParseDanger=%v,%v", d, err)
	}
	if m, err := ParseTraverseMode(" by_agent "); err != nil || m != TraverseByAgent {
		t.Fatalf("ParseTraverseMode=%v,%v", m, err)
	}
	if _, err := ParseTraverseMode("FLY"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestSameAndForbidden(t *testing.T) {
	a := &Agent{ID: "A1"}
	b := &Agent{ID: "A1"}
	if !Same(a, b) || Same(a, nil) || Same(nil, nil) {
		t.Fatalf("Same mismatch")
	}
	r := &Resource{ID: "R1", ForbiddenTo: map[string]bool{"A2": true}}
	if r.IsForbiddenTo("A1") || !r.IsForbiddenTo("A2") {
		t.Fatalf("per-agent forbidden mismatch")
	}
	r.Forbidden = true
	if !r.IsForbiddenTo("A1") {
		t.Fatalf("global forbidden should apply to everyone")
	}
	d := &Resource{Category: CategoryDispenser}
	if d.CanDispenseNow() {
		t.Fatalf("inactive dispenser should not dispense")
	}
	d.Active = true
	if !d.CanDispenseNow() {
		t.Fatalf("active dispenser should dispense")
	}
}
