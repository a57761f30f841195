package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pastewarden.ai/internal/sim/kernel/model"
)

type Tuning struct {
	// Search parameters of the default on-map search. Restricted consumers are
	// resolved with fixed values regardless of these.
	ClaimQuantity   int    `yaml:"claim_quantity"`
	DangerTolerance string `yaml:"danger_tolerance"`
	TraversalMode   string `yaml:"traversal_mode"`

	// InventoryDefaultAllowed is the pipeline's own answer before any override.
	InventoryDefaultAllowed bool `yaml:"inventory_default_allowed"`

	MaxQueue int `yaml:"max_queue"`

	DecisionLog DecisionLog `yaml:"decision_log"`
}

type DecisionLog struct {
	Enabled bool `yaml:"enabled"`
	// IncludeCandidates adds per-candidate verdicts to each entry.
	IncludeCandidates bool `yaml:"include_candidates"`
}

func Defaults() Tuning {
	return Tuning{
		ClaimQuantity:           1,
		DangerTolerance:         model.DangerDeadly.String(),
		TraversalMode:           model.TraverseByAgent.String(),
		InventoryDefaultAllowed: true,
		MaxQueue:                8,
		DecisionLog:             DecisionLog{Enabled: true, IncludeCandidates: true},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ClaimQuantity <= 0 {
		return fmt.Errorf("claim_quantity must be > 0")
	}
	if _, err := model.ParseDanger(t.DangerTolerance); err != nil {
		return err
	}
	if _, err := model.ParseTraverseMode(t.TraversalMode); err != nil {
		return err
	}
	if t.MaxQueue < 0 || t.MaxQueue > 64 {
		return fmt.Errorf("max_queue must be within 0..64")
	}
	return nil
}

// Danger returns the parsed tolerance; invalid values fall back to DEADLY.
func (t Tuning) Danger() model.Danger {
	d, _ := model.ParseDanger(t.DangerTolerance)
	return d
}

// Mode returns the parsed traversal mode; invalid values fall back to BY_AGENT.
func (t Tuning) Mode() model.TraverseMode {
	m, _ := model.ParseTraverseMode(t.TraversalMode)
	return m
}
