// Package maps is an in-memory colony world: grids, placed resources and
// reservations. It provides the spatial, reservation and reachability
// services the fetch pipeline consumes.
package maps

import (
	"fmt"

	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/kernel/model"
)

// World is not safe for concurrent use.
type World struct {
	grids map[string]*Grid
	// resources keeps insertion order; it is the enumeration order of the index.
	resources []*model.Resource
	byID      map[string]*model.Resource
	// reserved maps resource id -> holder agent id.
	reserved map[string]string
}

var (
	_ fetch.SpatialIndex       = (*World)(nil)
	_ fetch.ReservationOracle  = (*World)(nil)
	_ fetch.ReachabilityOracle = (*World)(nil)
)

func NewWorld() *World {
	return &World{
		grids:    map[string]*Grid{},
		byID:     map[string]*model.Resource{},
		reserved: map[string]string{},
	}
}

func (w *World) AddMap(id string, g *Grid) error {
	if id == "" || g == nil {
		return fmt.Errorf("bad map")
	}
	if _, ok := w.grids[id]; ok {
		return fmt.Errorf("duplicate map %q", id)
	}
	w.grids[id] = g
	return nil
}

func (w *World) Grid(id string) *Grid { return w.grids[id] }

func (w *World) AddResource(r *model.Resource) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("resource missing id")
	}
	if _, ok := w.byID[r.ID]; ok {
		return fmt.Errorf("duplicate resource %q", r.ID)
	}
	g := w.grids[r.MapID]
	if g == nil {
		return fmt.Errorf("resource %s: unknown map %q", r.ID, r.MapID)
	}
	if !g.InBounds(r.Pos) {
		return fmt.Errorf("resource %s: position %v out of bounds", r.ID, r.Pos)
	}
	w.resources = append(w.resources, r)
	w.byID[r.ID] = r
	return nil
}

func (w *World) Resource(id string) *model.Resource { return w.byID[id] }

func (w *World) RemoveResource(id string) {
	if _, ok := w.byID[id]; !ok {
		return
	}
	delete(w.byID, id)
	delete(w.reserved, id)
	for i, r := range w.resources {
		if r.ID == id {
			w.resources = append(w.resources[:i], w.resources[i+1:]...)
			break
		}
	}
}

func (w *World) ResourcesInCategories(mapID string, cats ...model.Category) []*model.Resource {
	var out []*model.Resource
	for _, r := range w.resources {
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

func (w *World) Reserve(agentID, resourceID string) error {
	if _, ok := w.byID[resourceID]; !ok {
		return fmt.Errorf("unknown resource %q", resourceID)
	}
	if holder, ok := w.reserved[resourceID]; ok && holder != agentID {
		return fmt.Errorf("resource %s reserved by %s", resourceID, holder)
	}
	w.reserved[resourceID] = agentID
	return nil
}

func (w *World) Release(resourceID string) { delete(w.reserved, resourceID) }

// ReservedBy returns the holder of resourceID, if any.
func (w *World) ReservedBy(resourceID string) (string, bool) {
	h, ok := w.reserved[resourceID]
	return h, ok
}

// CanClaim has no stack-size or expiry rules: a resource is claimable when it
// is unreserved or already held by agent.
func (w *World) CanClaim(agent *model.Agent, res *model.Resource, quantity int) bool {
	if agent == nil || res == nil || quantity <= 0 {
		return false
	}
	if _, ok := w.byID[res.ID]; !ok {
		return false
	}
	holder, ok := w.reserved[res.ID]
	return !ok || holder == agent.ID
}
