package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"pastewarden.ai/internal/protocol"
	"pastewarden.ai/internal/sim/host"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// validateGo round-trips v through JSON so the validator sees generic values.
func validateGo(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %T: %v", v, err)
	}
}

func TestSchemas_ValidateMessages(t *testing.T) {
	validateGo(t, compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "fetchclient",
		MaxQueue:        8,
	})
	validateGo(t, compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		CatalogDigest:   "deadbeef",
		Agents:          []string{"warden", "prisoner"},
	})
	validateGo(t, compile(t, "fetch.schema.json"), protocol.FetchMsg{
		Type:            protocol.TypeFetch,
		ProtocolVersion: protocol.Version,
		RequestID:       "R1",
		AcquirerID:      "warden",
		ConsumerID:      "prisoner",
	})
	validateGo(t, compile(t, "decision.schema.json"), protocol.DecisionMsg{
		Type:            protocol.TypeDecision,
		ProtocolVersion: protocol.Version,
		RequestID:       "R1",
		Decision: host.Record{
			ID:          "d1",
			At:          "2026-03-01T10:00:00Z",
			AcquirerID:  "warden",
			ConsumerID:  "prisoner",
			Source:      "OVERRIDE",
			ResourceID:  "dispenser_1",
			ResourcePos: [2]int{5, 5},
			FinalDef:    "meal_nutrient_paste",
			Candidates: []host.CandidateRecord{
				{ResourceID: "paste_meal_1", Category: "LOW_GRADE_MEAL", DistSq: 1, Verdict: "UNCLAIMABLE"},
			},
		},
	})
	validateGo(t, compile(t, "error.schema.json"), protocol.NewError("R1", protocol.ErrUnknownAgent, "unknown agent"))
}

func TestSchemas_RejectBadFetch(t *testing.T) {
	s := compile(t, "fetch.schema.json")
	var doc any
	_ = json.Unmarshal([]byte(`{"type":"FETCH","protocol_version":"1.0","request_id":"R1"}`), &doc)
	if err := s.Validate(doc); err == nil {
		t.Fatalf("expected missing acquirer_id to fail")
	}
}
