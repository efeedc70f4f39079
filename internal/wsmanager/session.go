package wsmanager

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skreaver/skreaver/internal/observability"
)

const (
	writeWait = 10 * time.Second
)

// session drives one upgraded connection's read and write loops,
// grounded on the teacher's wsSession.run/readLoop/writeLoop split: a
// buffered send channel decouples the socket writer from whatever
// produced the frame (broadcast fanout, a direct reply, a ping), and
// the read loop owns the blocking ReadMessage call.
type session struct {
	manager *Manager
	conn    *websocket.Conn
	info    *ConnectionInfo
	logger  *slog.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(ctx context.Context, manager *Manager, conn *websocket.Conn, info *ConnectionInfo, logger *slog.Logger, metrics *observability.Metrics) *session {
	sessCtx, cancel := context.WithCancel(ctx)
	return &session{manager: manager, conn: conn, info: info, logger: logger, metrics: metrics, ctx: sessCtx, cancel: cancel}
}

// run blocks until the connection closes, driving the write loop in
// its own goroutine and the read loop on the calling goroutine —
// matching the teacher's "defer s.close(); go s.writeLoop();
// s.readLoop()" shape.
func (s *session) run(cfg Config) {
	defer s.cancel()
	go s.writeLoop()
	s.readLoop(cfg)
}

func (s *session) readLoop(cfg Config) {
	if cfg.MaxMessageBytes > 0 {
		s.conn.SetReadLimit(cfg.MaxMessageBytes)
	}
	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	s.conn.SetPongHandler(func(string) error {
		s.manager.Heartbeat(s.info.ID)
		return s.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.manager.Heartbeat(s.info.ID)
		if s.metrics != nil {
			s.metrics.RecordWSMessage("inbound")
		}
		s.handleFrame(data)
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data, ok := <-s.info.Outbound:
			if !ok {
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if s.metrics != nil {
				s.metrics.RecordWSMessage("outbound")
			}
		}
	}
}

func (s *session) handleFrame(raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.reply(ServerFrame{Type: "error", Code: "invalid_frame", Message: err.Error()})
		return
	}

	switch frame.Type {
	case "ping":
		s.reply(ServerFrame{Type: "pong"})
	case "authenticate":
		if _, err := s.manager.Authenticate(s.info.ID, frame.Token); err != nil {
			s.reply(ServerFrame{Type: "error", Code: err.Error(), Message: "authentication failed"})
			return
		}
		s.reply(ServerFrame{Type: "event", Channel: "_auth", Data: map[string]any{"authenticated": true}})
	case "subscribe":
		for _, channel := range frame.Channels {
			if err := s.manager.Subscribe(s.info.ID, channel); err != nil {
				s.reply(ServerFrame{Type: "error", Code: err.Error(), Message: "subscribe failed for " + channel})
				continue
			}
		}
	case "unsubscribe":
		for _, channel := range frame.Channels {
			s.manager.Unsubscribe(s.info.ID, channel)
		}
	default:
		s.reply(ServerFrame{Type: "error", Code: "unknown_type", Message: "unsupported frame type " + frame.Type})
	}
}

func (s *session) reply(frame ServerFrame) {
	select {
	case s.info.Outbound <- encodeFrame(frame):
	default:
		if s.logger != nil {
			s.logger.Warn("ws outbound buffer full, dropping reply", "connection_id", s.info.ID)
		}
	}
}
