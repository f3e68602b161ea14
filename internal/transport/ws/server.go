package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"craftbrowser.ai/internal/protocol"
)

const outQueue = 16

type Server struct {
	cfg Config

	upgrader websocket.Upgrader

	active atomic.Int64
	total  atomic.Uint64
}

type Stats struct {
	ActiveSessions int64
	TotalSessions  uint64
}

func (s *Server) Stats() Stats {
	return Stats{ActiveSessions: s.active.Load(), TotalSessions: s.total.Load()}
}

func NewServer(cfg Config) *Server {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if n := s.cfg.Tuning.MaxMessageBytes; n > 0 {
			conn.SetReadLimit(n)
		}

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		defer sess.End()
		s.total.Add(1)
		s.active.Add(1)
		defer s.active.Add(-1)
		s.logf("session %s: %s connected", sess.ID(), sess.client)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, outQueue)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
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
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			for _, reply := range sess.Handle(msg) {
				b, err := json.Marshal(reply)
				if err != nil {
					s.logf("session %s: marshal: %v", sess.ID(), err)
					continue
				}
				select {
				case out <- b:
				case <-ctx.Done():
				}
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
		s.logf("session %s: disconnected", sess.ID())
	}
}

func (s *Server) handshake(conn *websocket.Conn) *Session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	name := strings.TrimSpace(hello.ClientName)
	if name == "" {
		name = "client"
	}

	sess := newSession(s.cfg.NewID(), name, s.cfg)
	if err := writeJSON(conn, sess.Welcome()); err != nil {
		return nil
	}
	return sess
}

func (s *Server) logf(format string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
