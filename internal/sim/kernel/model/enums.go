package model

import (
	"fmt"
	"strings"
)

type Category int

const (
	CategoryOther Category = iota
	CategoryLowGradeMeal
	CategoryDispenser
)

func (c Category) String() string {
	switch c {
	case CategoryLowGradeMeal:
		return "LOW_GRADE_MEAL"
	case CategoryDispenser:
		return "DISPENSER"
	default:
		return "OTHER"
	}
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OTHER":
		return CategoryOther, nil
	case "LOW_GRADE_MEAL":
		return CategoryLowGradeMeal, nil
	case "DISPENSER":
		return CategoryDispenser, nil
	default:
		return CategoryOther, fmt.Errorf("unknown category %q", s)
	}
}

// Danger is the highest cell danger a traversal tolerates.
type Danger int

const (
	DangerNone Danger = iota
	DangerSome
	DangerDeadly
)

func (d Danger) String() string {
	switch d {
	case DangerNone:
		return "NONE"
	case DangerSome:
		return "SOME"
	default:
		return "DEADLY"
	}
}

func ParseDanger(s string) (Danger, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return DangerNone, nil
	case "SOME":
		return DangerSome, nil
	case "DEADLY":
		return DangerDeadly, nil
	default:
		return DangerDeadly, fmt.Errorf("unknown danger %q", s)
	}
}

type TraverseMode int

const (
	// TraverseByAgent passes doors the agent may open.
	TraverseByAgent TraverseMode = iota
	TraverseNoPassClosedDoors
	TraversePassAllDestroyable
)

func (m TraverseMode) String() string {
	switch m {
	case TraverseNoPassClosedDoors:
		return "NO_PASS_CLOSED_DOORS"
	case TraversePassAllDestroyable:
		return "PASS_ALL_DESTROYABLE"
	default:
		return "BY_AGENT"
	}
}

func ParseTraverseMode(s string) (TraverseMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BY_AGENT":
		return TraverseByAgent, nil
	case "NO_PASS_CLOSED_DOORS":
		return TraverseNoPassClosedDoors, nil
	case "PASS_ALL_DESTROYABLE":
		return TraversePassAllDestroyable, nil
	default:
		return TraverseByAgent, fmt.Errorf("unknown traversal mode %q", s)
	}
}
