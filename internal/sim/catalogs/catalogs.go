package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"pastewarden.ai/internal/sim/kernel/model"
)

//go:embed resources.schema.json
var resourcesSchemaJSON string

var resourcesSchema = jsonschema.MustCompileString("resources.schema.json", resourcesSchemaJSON)

type Catalogs struct {
	Resources ResourceCatalog
}

type ResourceCatalog struct {
	Defs   map[string]ResourceDef
	IDs    []string // sorted
	Digest string
}

type ResourceDef struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Preferability int    `json:"preferability,omitempty"`
	// Dispenses is the meal def a dispenser produces.
	Dispenses string `json:"dispenses,omitempty"`

	cat model.Category
}

func (d ResourceDef) Cat() model.Category { return d.cat }

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadResources(path string, out *ResourceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ParseResources(raw, out)
}

// ParseResources validates raw against the resources schema and fills out.
func ParseResources(raw []byte, out *ResourceCatalog) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	if err := resourcesSchema.Validate(doc); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}

	var defs []ResourceDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	out.Defs = make(map[string]ResourceDef, len(defs))
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("resources.json: duplicate id %q", d.ID)
		}
		cat, err := model.ParseCategory(d.Category)
		if err != nil {
			return fmt.Errorf("resources.json: %s: %w", d.ID, err)
		}
		d.cat = cat
		out.Defs[d.ID] = d
	}
	for _, d := range out.Defs {
		if d.cat != model.CategoryDispenser {
			if d.Dispenses != "" {
				return fmt.Errorf("resources.json: %s: only dispensers may set dispenses", d.ID)
			}
			continue
		}
		if d.Dispenses == "" {
			return fmt.Errorf("resources.json: %s: dispenser missing dispenses", d.ID)
		}
		target, ok := out.Defs[d.Dispenses]
		if !ok || target.cat != model.CategoryLowGradeMeal {
			return fmt.Errorf("resources.json: %s: dispenses %q is not a LOW_GRADE_MEAL def", d.ID, d.Dispenses)
		}
	}

	out.IDs = make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		out.IDs = append(out.IDs, id)
	}
	sort.Strings(out.IDs)

	canon := make([]ResourceDef, 0, len(out.IDs))
	for _, id := range out.IDs {
		canon = append(canon, out.Defs[id])
	}
	b, _ := json.Marshal(canon)
	out.Digest = sha256Hex(b)
	return nil
}

func (c *ResourceCatalog) Def(id string) (ResourceDef, bool) {
	if c == nil {
		return ResourceDef{}, false
	}
	d, ok := c.Defs[id]
	return d, ok
}

// Category returns the catalog category for id; unknown defs are OTHER.
func (c *ResourceCatalog) Category(id string) model.Category {
	d, _ := c.Def(id)
	return d.cat
}

func (c *ResourceCatalog) Preferability(id string) int {
	d, _ := c.Def(id)
	return d.Preferability
}

// FinalConsumableDef maps a source def to what actually gets eaten:
// dispensers resolve to the meal they produce, everything else to itself.
func (c *ResourceCatalog) FinalConsumableDef(id string) string {
	d, ok := c.Def(id)
	if ok && d.cat == model.CategoryDispenser {
		return d.Dispenses
	}
	return id
}

// NewResource stamps a map resource with its catalog category.
func (c *ResourceCatalog) NewResource(id, defID, mapID string, pos model.Vec2i) (*model.Resource, error) {
	d, ok := c.Def(defID)
	if !ok {
		return nil, fmt.Errorf("unknown resource def %q", defID)
	}
	return &model.Resource{
		ID:       id,
		DefID:    defID,
		MapID:    mapID,
		Pos:      pos,
		Category: d.cat,
		Active:   d.cat == model.CategoryDispenser,
	}, nil
}

// NewItem builds a carried stack of defID.
func (c *ResourceCatalog) NewItem(defID string, count int) (model.Item, error) {
	d, ok := c.Def(defID)
	if !ok {
		return model.Item{}, fmt.Errorf("unknown resource def %q", defID)
	}
	if count <= 0 {
		count = 1
	}
	return model.Item{DefID: defID, Category: d.cat, Preferability: d.Preferability, Count: count}, nil
}
