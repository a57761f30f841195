// Package feeding routes restricted consumers (prisoners) to the nearest
// low-grade meal or dispenser and keeps the acquirer's own carried food out of
// the decision while such a source is reachable.
package feeding

import (
	"sort"

	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/kernel/model"
)

// Guard names the entry check that made a request not applicable.
type Guard string

const (
	GuardNone          Guard = ""
	GuardNoConsumer    Guard = "NO_CONSUMER"
	GuardNotRestricted Guard = "NOT_RESTRICTED"
	GuardSelfFetch     Guard = "SELF_FETCH"
	GuardNoAcquirer    Guard = "NO_ACQUIRER"
)

type Verdict string

const (
	Accepted          Verdict = "ACCEPTED"
	SkipForbidden     Verdict = "FORBIDDEN"
	SkipUnclaimable   Verdict = "UNCLAIMABLE"
	SkipUnreachable   Verdict = "UNREACHABLE"
	SkipInactive      Verdict = "INACTIVE"
	SkipOtherCategory Verdict = "OTHER_CATEGORY"
)

type Candidate struct {
	Resource *model.Resource
	DistSq   int
	Verdict  Verdict
}

// Explanation is the full trace of one resolve. Candidates lists every
// candidate examined, in scan order, up to and including the chosen one.
type Explanation struct {
	Guard      Guard
	Chosen     *model.Resource
	Candidates []Candidate
}

var lowGrade = []model.Category{model.CategoryLowGradeMeal, model.CategoryDispenser}

// Fixed search parameters: one unit claimed, lethal danger tolerated, agent
// sized traversal. Tuning only affects the host's default search.
const (
	ClaimQuantity = 1
	Danger        = model.DangerDeadly
	Mode          = model.TraverseByAgent
)

// Resolver is usable as a zero value once the three oracles are set.
type Resolver struct {
	Index        fetch.SpatialIndex
	Reservations fetch.ReservationOracle
	Reach        fetch.ReachabilityOracle
}

// Resolve returns the nearest usable low-grade source for consumer as seen by
// acquirer, or nil.
func (r *Resolver) Resolve(acquirer, consumer *model.Agent) *model.Resource {
	return r.Explain(acquirer, consumer).Chosen
}

func (r *Resolver) Explain(acquirer, consumer *model.Agent) Explanation {
	if g := applicable(acquirer, consumer); g != GuardNone {
		return Explanation{Guard: g}
	}
	if r.Index == nil {
		return Explanation{}
	}

	found := r.Index.ResourcesInCategories(acquirer.MapID, lowGrade...)
	cands := make([]Candidate, 0, len(found))
	for _, res := range found {
		if res == nil {
			continue
		}
		cands = append(cands, Candidate{Resource: res, DistSq: acquirer.Pos.DistSq(res.Pos)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].DistSq < cands[j].DistSq })

	var ex Explanation
	for _, c := range cands {
		c.Verdict = r.check(acquirer, c.Resource)
		ex.Candidates = append(ex.Candidates, c)
		if c.Verdict == Accepted {
			ex.Chosen = c.Resource
			break
		}
	}
	return ex
}

// applicable runs the entry guards in order; first match wins.
func applicable(acquirer, consumer *model.Agent) Guard {
	switch {
	case consumer == nil:
		return GuardNoConsumer
	case !consumer.Restricted:
		return GuardNotRestricted
	case model.Same(consumer, acquirer):
		return GuardSelfFetch
	case acquirer == nil:
		return GuardNoAcquirer
	}
	return GuardNone
}

func (r *Resolver) check(acquirer *model.Agent, res *model.Resource) Verdict {
	switch res.Category {
	case model.CategoryLowGradeMeal:
		if res.IsForbiddenTo(acquirer.ID) {
			return SkipForbidden
		}
		if r.Reservations == nil || !r.Reservations.CanClaim(acquirer, res, ClaimQuantity) {
			return SkipUnclaimable
		}
	case model.CategoryDispenser:
		// Dispensers are used in place, never claimed.
		if !res.CanDispenseNow() {
			return SkipInactive
		}
	default:
		return SkipOtherCategory
	}
	if r.Reach == nil || !r.Reach.CanReach(acquirer, acquirer.Pos, res, Danger, Mode) {
		return SkipUnreachable
	}
	return Accepted
}
