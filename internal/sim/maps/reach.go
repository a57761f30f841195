package maps

import "pastewarden.ai/internal/sim/kernel/model"

// Fixed neighbor order keeps the search deterministic.
var dirs4 = []model.Vec2i{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

// CanReach reports whether agent can walk from `from` to touching distance of
// res (the resource cell or any of its 8 neighbors).
func (w *World) CanReach(agent *model.Agent, from model.Vec2i, res *model.Resource, danger model.Danger, mode model.TraverseMode) bool {
	if res == nil {
		return false
	}
	g := w.grids[res.MapID]
	if g == nil || (agent != nil && agent.MapID != "" && agent.MapID != res.MapID) {
		return false
	}
	if !g.InBounds(from) {
		return false
	}
	if from.Touches(res.Pos) {
		return true
	}

	visited := make([]bool, g.W*g.H)
	visited[from.Z*g.W+from.X] = true
	queue := make([]model.Vec2i, 0, 64)
	queue = append(queue, from)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range dirs4 {
			np := p.Add(d)
			if !g.InBounds(np) || visited[np.Z*g.W+np.X] {
				continue
			}
			visited[np.Z*g.W+np.X] = true
			if !g.passable(agent, np, danger, mode) {
				continue
			}
			if np.Touches(res.Pos) {
				return true
			}
			queue = append(queue, np)
		}
	}
	return false
}
