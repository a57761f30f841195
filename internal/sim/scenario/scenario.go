// Package scenario loads a colony layout (maps, agents, placed resources and
// reservations) from YAML.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/kernel/model"
	"pastewarden.ai/internal/sim/maps"
)

type File struct {
	Maps         []MapSpec         `yaml:"maps"`
	Agents       []AgentSpec       `yaml:"agents"`
	Resources    []ResourceSpec    `yaml:"resources"`
	Reservations []ReservationSpec `yaml:"reservations"`
}

type MapSpec struct {
	ID   string   `yaml:"id"`
	Rows []string `yaml:"rows"`
}

type AgentSpec struct {
	ID             string      `yaml:"id"`
	Name           string      `yaml:"name"`
	Map            string      `yaml:"map"`
	Pos            [2]int      `yaml:"pos"`
	Restricted     bool        `yaml:"restricted"`
	CanActOnBehalf bool        `yaml:"can_act_on_behalf"`
	Inventory      []StackSpec `yaml:"inventory"`
}

type StackSpec struct {
	Def   string `yaml:"def"`
	Count int    `yaml:"count"`
}

type ResourceSpec struct {
	ID          string   `yaml:"id"`
	Def         string   `yaml:"def"`
	Map         string   `yaml:"map"`
	Pos         [2]int   `yaml:"pos"`
	Inactive    bool     `yaml:"inactive"`
	Forbidden   bool     `yaml:"forbidden"`
	ForbiddenTo []string `yaml:"forbidden_to"`
}

type ReservationSpec struct {
	Agent    string `yaml:"agent"`
	Resource string `yaml:"resource"`
}

// Scenario is a loaded colony.
type Scenario struct {
	World  *maps.World
	Agents map[string]*model.Agent
	// Order is the agent ids in file order.
	Order []string
}

func Load(path string, cats *catalogs.Catalogs) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(raw, cats)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func Parse(raw []byte, cats *catalogs.Catalogs) (*Scenario, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	rc := &cats.Resources

	sc := &Scenario{World: maps.NewWorld(), Agents: map[string]*model.Agent{}}
	for _, m := range f.Maps {
		g, err := maps.ParseGrid(m.Rows)
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", m.ID, err)
		}
		if err := sc.World.AddMap(m.ID, g); err != nil {
			return nil, err
		}
	}

	for _, as := range f.Agents {
		if as.ID == "" {
			return nil, fmt.Errorf("agent missing id")
		}
		if _, dup := sc.Agents[as.ID]; dup {
			return nil, fmt.Errorf("duplicate agent %q", as.ID)
		}
		g := sc.World.Grid(as.Map)
		if g == nil {
			return nil, fmt.Errorf("agent %s: unknown map %q", as.ID, as.Map)
		}
		a := &model.Agent{
			ID:             as.ID,
			Name:           as.Name,
			MapID:          as.Map,
			Pos:            model.Vec2i{X: as.Pos[0], Z: as.Pos[1]},
			Restricted:     as.Restricted,
			CanActOnBehalf: as.CanActOnBehalf,
		}
		if !g.InBounds(a.Pos) {
			return nil, fmt.Errorf("agent %s: position %v out of bounds", as.ID, a.Pos)
		}
		if a.Name == "" {
			a.Name = a.ID
		}
		for _, st := range as.Inventory {
			it, err := rc.NewItem(st.Def, st.Count)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", as.ID, err)
			}
			a.Inventory = append(a.Inventory, it)
		}
		sc.Agents[a.ID] = a
		sc.Order = append(sc.Order, a.ID)
	}

	for _, rs := range f.Resources {
		r, err := rc.NewResource(rs.ID, rs.Def, rs.Map, model.Vec2i{X: rs.Pos[0], Z: rs.Pos[1]})
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", rs.ID, err)
		}
		if rs.Inactive {
			r.Active = false
		}
		r.Forbidden = rs.Forbidden
		if len(rs.ForbiddenTo) > 0 {
			r.ForbiddenTo = make(map[string]bool, len(rs.ForbiddenTo))
			for _, id := range rs.ForbiddenTo {
				r.ForbiddenTo[id] = true
			}
		}
		if err := sc.World.AddResource(r); err != nil {
			return nil, err
		}
	}

	for _, rv := range f.Reservations {
		if _, ok := sc.Agents[rv.Agent]; !ok {
			return nil, fmt.Errorf("reservation: unknown agent %q", rv.Agent)
		}
		if err := sc.World.Reserve(rv.Agent, rv.Resource); err != nil {
			return nil, fmt.Errorf("reservation: %w", err)
		}
	}
	return sc, nil
}
