package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pastewarden.ai/internal/protocol"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "fetchclient", "client name")
		acquirer   = flag.String("acquirer", "warden", "acquirer agent id")
		consumer   = flag.String("consumer", "prisoner", "consumer agent id (empty for an unattended fetch)")
		candidates = flag.Bool("candidates", true, "ask for per-candidate verdicts")
		timeout    = flag.Duration("timeout", 5*time.Second, "overall deadline")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[fetchclient] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(*timeout))

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		MaxQueue:        4,
		Candidates:      *candidates,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	requestID := uuid.NewString()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				logger.Fatalf("decode WELCOME: %v", err)
			}
			logger.Printf("WELCOME session=%s catalog=%s agents=%v", w.SessionID, w.CatalogDigest, w.Agents)
			fetch := protocol.FetchMsg{
				Type:            protocol.TypeFetch,
				ProtocolVersion: protocol.Version,
				RequestID:       requestID,
				AcquirerID:      *acquirer,
				ConsumerID:      *consumer,
			}
			if err := conn.WriteJSON(fetch); err != nil {
				logger.Fatalf("send FETCH: %v", err)
			}

		case protocol.TypeDecision:
			var d protocol.DecisionMsg
			if err := json.Unmarshal(msg, &d); err != nil {
				logger.Fatalf("decode DECISION: %v", err)
			}
			if d.RequestID != requestID {
				continue
			}
			out, _ := json.MarshalIndent(d.Decision, "", "  ")
			logger.Printf("DECISION source=%s\n%s", d.Decision.Source, out)
			return

		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			logger.Fatalf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}
