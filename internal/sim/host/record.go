package host

import (
	"time"

	"pastewarden.ai/internal/sim/fetch"
)

// Record is the serialized form of a Decision, shared by the decision log,
// the sqlite index and the wire protocol.
type Record struct {
	ID         string `json:"id"`
	At         string `json:"at"`
	AcquirerID string `json:"acquirer_id"`
	ConsumerID string `json:"consumer_id,omitempty"`

	Source           string `json:"source"`
	InventoryAllowed bool   `json:"inventory_allowed"`
	BestInventory    string `json:"best_inventory,omitempty"`
	ItemDef          string `json:"item_def,omitempty"`
	ResourceID       string `json:"resource_id,omitempty"`
	ResourceDef      string `json:"resource_def,omitempty"`
	ResourcePos      [2]int `json:"resource_pos,omitempty"`
	FinalDef         string `json:"final_def,omitempty"`

	Guard      string            `json:"guard,omitempty"`
	Candidates []CandidateRecord `json:"candidates,omitempty"`
}

type CandidateRecord struct {
	ResourceID string `json:"resource_id"`
	Category   string `json:"category"`
	DistSq     int    `json:"dist_sq"`
	Verdict    string `json:"verdict"`
}

func (d Decision) Record(includeCandidates bool) Record {
	r := Record{
		ID:               d.ID,
		At:               d.At.Format(time.RFC3339Nano),
		AcquirerID:       d.AcquirerID,
		ConsumerID:       d.ConsumerID,
		Source:           string(d.Plan.Source),
		InventoryAllowed: d.Plan.InventoryAllowed,
		FinalDef:         d.Plan.FinalDef,
		Guard:            string(d.Trace.Guard),
	}
	if d.Plan.BestInventory != nil {
		r.BestInventory = d.Plan.BestInventory.DefID
	}
	if d.Plan.Item != nil {
		r.ItemDef = d.Plan.Item.DefID
	}
	if res := d.Plan.Resource; res != nil {
		r.ResourceID = res.ID
		r.ResourceDef = res.DefID
		r.ResourcePos = [2]int{res.Pos.X, res.Pos.Z}
	}
	if includeCandidates {
		for _, c := range d.Trace.Candidates {
			r.Candidates = append(r.Candidates, CandidateRecord{
				ResourceID: c.Resource.ID,
				Category:   c.Resource.Category.String(),
				DistSq:     c.DistSq,
				Verdict:    string(c.Verdict),
			})
		}
	}
	return r
}

// CheckInventorySafety reports whether r respects the rule that carried food
// is only withheld from a restricted consumer when an override source exists.
// Records whose default answer was already "no inventory" cannot be judged
// from the record alone and pass.
func (r Record) CheckInventorySafety(defaultAllowed bool) bool {
	if r.InventoryAllowed || !defaultAllowed || r.BestInventory == "" {
		return true
	}
	return r.Source == string(fetch.SourceOverride) && r.ResourceID != ""
}
