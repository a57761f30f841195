package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pastewarden.ai/internal/protocol"
	"pastewarden.ai/internal/sim/host"
)

type Server struct {
	host   *host.Host
	log    *log.Logger
	digest func() string
	agents []string

	upgrader websocket.Upgrader
}

// NewServer serves fetch decisions from h. digest reports the current
// catalog digest for WELCOME; agents lists the ids clients may use.
func NewServer(h *host.Host, digest func() string, agents []string, logger *log.Logger) *Server {
	if digest == nil {
		digest = func() string { return "" }
	}
	if agents == nil {
		agents = []string{}
	}
	return &Server{
		host:   h,
		log:    logger,
		digest: digest,
		agents: agents,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	id         string
	candidates bool
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, out := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			reply := s.handle(sess, msg)
			if reply == nil {
				continue
			}
			b, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-writerDone
	}
}

func (s *Server) handle(sess *session, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "bad json")
	}
	if base.Type != protocol.TypeFetch {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
	}
	var req protocol.FetchMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "bad FETCH")
	}
	if req.ProtocolVersion != protocol.Version {
		return protocol.NewError(req.RequestID, protocol.ErrProtoVersion, "bad protocol_version")
	}
	if strings.TrimSpace(req.AcquirerID) == "" {
		return protocol.NewError(req.RequestID, protocol.ErrProtoBadRequest, "missing acquirer_id")
	}

	d, err := s.host.Fetch(req.AcquirerID, req.ConsumerID)
	if err != nil {
		if errors.Is(err, host.ErrUnknownAgent) {
			return protocol.NewError(req.RequestID, protocol.ErrUnknownAgent, err.Error())
		}
		if s.log != nil {
			s.log.Printf("session %s: fetch: %v", sess.id, err)
		}
		return protocol.NewError(req.RequestID, protocol.ErrInternal, "fetch failed")
	}
	return protocol.DecisionMsg{
		Type:            protocol.TypeDecision,
		ProtocolVersion: protocol.Version,
		RequestID:       req.RequestID,
		Decision:        d.Record(sess.candidates),
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil, nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = s.host.Tuning().MaxQueue
	}
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}

	sess := &session{id: uuid.NewString(), candidates: hello.Candidates}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		CatalogDigest:   s.digest(),
		Agents:          s.agents,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil, nil
	}
	if s.log != nil {
		name := hello.ClientName
		if name == "" {
			name = "client"
		}
		s.log.Printf("session %s: %s connected", sess.id, name)
	}
	return sess, make(chan []byte, maxQ)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
