// Package host owns a colony world and answers fetch requests against it.
package host

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/feeding"
	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/kernel/model"
	"pastewarden.ai/internal/sim/scenario"
	"pastewarden.ai/internal/sim/tuning"
)

var ErrUnknownAgent = errors.New("unknown agent")

// Decision is one answered fetch.
type Decision struct {
	ID         string
	At         time.Time
	AcquirerID string
	ConsumerID string
	Plan       fetch.Plan
	Trace      feeding.Explanation
}

// Sink receives decisions after the host lock is released.
type Sink interface {
	WriteDecision(d Decision) error
}

type Host struct {
	mu sync.Mutex

	sc   *scenario.Scenario
	cats *catalogs.Catalogs
	tune tuning.Tuning

	resolver *feeding.Resolver
	policy   *feeding.Policy
	pipeline *fetch.Pipeline

	sinks []Sink
	log   *log.Logger
}

func New(sc *scenario.Scenario, cats *catalogs.Catalogs, tune tuning.Tuning, logger *log.Logger, sinks ...Sink) *Host {
	if logger == nil {
		logger = log.Default()
	}
	h := &Host{sc: sc, log: logger, sinks: sinks}
	h.configure(cats, tune)
	return h
}

// configure rebuilds the resolver and pipeline. Callers hold mu (or own h).
func (h *Host) configure(cats *catalogs.Catalogs, tune tuning.Tuning) {
	h.cats = cats
	h.tune = tune
	w := h.sc.World
	h.resolver = &feeding.Resolver{Index: w, Reservations: w, Reach: w}
	h.policy = &feeding.Policy{Resolver: h.resolver, Catalog: &cats.Resources}
	h.pipeline = &fetch.Pipeline{
		Provider:     h.policy,
		Index:        w,
		Reservations: w,
		Reach:        w,
		Catalog:      &cats.Resources,
		Config: fetch.Config{
			ClaimQuantity:           tune.ClaimQuantity,
			Danger:                  tune.Danger(),
			Mode:                    tune.Mode(),
			InventoryDefaultAllowed: tune.InventoryDefaultAllowed,
		},
	}
}

// Reload swaps catalogs and tuning for subsequent fetches. Resources already
// placed keep the category they were created with.
func (h *Host) Reload(cats *catalogs.Catalogs, tune tuning.Tuning) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configure(cats, tune)
}

func (h *Host) Tuning() tuning.Tuning {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tune
}

// CatalogDigest reports the digest of the catalogs currently in effect.
func (h *Host) CatalogDigest() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cats.Resources.Digest
}

// AgentIDs lists agents in scenario order.
func (h *Host) AgentIDs() []string {
	return append([]string(nil), h.sc.Order...)
}

// Fetch plans how acquirerID gets food for consumerID. An empty consumerID
// plans an unattended fetch.
func (h *Host) Fetch(acquirerID, consumerID string) (Decision, error) {
	d, err := h.fetch(acquirerID, consumerID)
	if err != nil {
		return d, err
	}
	for _, s := range h.sinks {
		if err := s.WriteDecision(d); err != nil {
			h.log.Printf("decision sink: %v", err)
		}
	}
	return d, nil
}

func (h *Host) fetch(acquirerID, consumerID string) (Decision, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	acq, ok := h.sc.Agents[acquirerID]
	if !ok {
		return Decision{}, ErrUnknownAgent
	}
	var cons *model.Agent
	if consumerID != "" {
		if cons, ok = h.sc.Agents[consumerID]; !ok {
			return Decision{}, ErrUnknownAgent
		}
	}
	d := Decision{
		ID:         uuid.NewString(),
		At:         time.Now().UTC(),
		AcquirerID: acquirerID,
		ConsumerID: consumerID,
	}
	d.Trace = h.resolver.Explain(acq, cons)
	d.Plan = h.pipeline.PlanWith(h.policy.Bind(d.Trace), acq, cons)
	return d, nil
}

// Reserve claims a resource for an agent, as a job driver would after a plan.
func (h *Host) Reserve(agentID, resourceID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sc.Agents[agentID]; !ok {
		return ErrUnknownAgent
	}
	return h.sc.World.Reserve(agentID, resourceID)
}

func (h *Host) Release(resourceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sc.World.Release(resourceID)
}

// SetDispenserActive toggles a dispenser's power/stock state.
func (h *Host) SetDispenserActive(resourceID string, active bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.sc.World.Resource(resourceID)
	if r == nil || r.Category != model.CategoryDispenser {
		return false
	}
	r.Active = active
	return true
}
