package maps

import (
	"fmt"

	"pastewarden.ai/internal/sim/kernel/model"
)

type CellKind uint8

const (
	Floor CellKind = iota
	Wall
	Door
)

type Cell struct {
	Kind   CellKind
	Danger model.Danger
	// Locked doors only open for agents that act on behalf of others.
	Locked bool
	Open   bool
}

// Grid is a W x H map partition. Row-major, z is the row.
type Grid struct {
	W     int
	H     int
	cells []Cell
}

func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, cells: make([]Cell, w*h)}
}

// ParseGrid builds a grid from ASCII rows:
//
//	.  floor
//	#  wall
//	D  door (closed)
//	O  door (open)
//	L  locked door
//	~  floor, some danger
//	!  floor, deadly danger
func ParseGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty grid")
	}
	w := len(rows[0])
	if w == 0 {
		return nil, fmt.Errorf("empty grid row")
	}
	g := NewGrid(w, len(rows))
	for z, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d: width %d, want %d", z, len(row), w)
		}
		for x := 0; x < w; x++ {
			var c Cell
			switch row[x] {
			case '.':
			case '#':
				c.Kind = Wall
			case 'D':
				c.Kind = Door
			case 'O':
				c.Kind = Door
				c.Open = true
			case 'L':
				c.Kind = Door
				c.Locked = true
			case '~':
				c.Danger = model.DangerSome
			case '!':
				c.Danger = model.DangerDeadly
			default:
				return nil, fmt.Errorf("row %d col %d: unknown cell %q", z, x, row[x])
			}
			g.cells[z*w+x] = c
		}
	}
	return g, nil
}

func (g *Grid) InBounds(p model.Vec2i) bool {
	return p.X >= 0 && p.Z >= 0 && p.X < g.W && p.Z < g.H
}

func (g *Grid) At(p model.Vec2i) Cell {
	if !g.InBounds(p) {
		return Cell{Kind: Wall}
	}
	return g.cells[p.Z*g.W+p.X]
}

func (g *Grid) Set(p model.Vec2i, c Cell) {
	if g.InBounds(p) {
		g.cells[p.Z*g.W+p.X] = c
	}
}

func (g *Grid) passable(agent *model.Agent, p model.Vec2i, danger model.Danger, mode model.TraverseMode) bool {
	if !g.InBounds(p) {
		return false
	}
	c := g.At(p)
	if c.Danger > danger {
		return false
	}
	switch c.Kind {
	case Wall:
		return mode == model.TraversePassAllDestroyable
	case Door:
		switch mode {
		case model.TraversePassAllDestroyable:
			return true
		case model.TraverseNoPassClosedDoors:
			return c.Open
		default:
			return c.Open || !c.Locked || (agent != nil && agent.CanActOnBehalf)
		}
	}
	return true
}
