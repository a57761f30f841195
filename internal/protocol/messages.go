package protocol

import "pastewarden.ai/internal/sim/host"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
	// Candidates asks for per-candidate verdicts in every DECISION.
	Candidates bool `json:"candidates,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	CatalogDigest   string   `json:"catalog_digest"`
	Agents          []string `json:"agents"`
}

// FETCH (client -> server)
type FetchMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id"`
	AcquirerID      string `json:"acquirer_id"`
	ConsumerID      string `json:"consumer_id,omitempty"`
}

// DECISION (server -> client)
type DecisionMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	RequestID       string      `json:"request_id"`
	Decision        host.Record `json:"decision"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(requestID, code, message string) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		RequestID:       requestID,
		Code:            code,
		Message:         message,
	}
}
