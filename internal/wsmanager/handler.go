package wsmanager

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/skreaver/skreaver/internal/observability"
)

// Handler upgrades HTTP connections to WebSocket and drives each
// session, grounded on the teacher's wsControlPlane.ServeHTTP.
type Handler struct {
	manager  *Manager
	logger   *slog.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// NewHandler builds an http.Handler that upgrades requests and
// registers each connection with manager.
func NewHandler(manager *Manager, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	info, err := h.manager.AddConnection(id, r.RemoteAddr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, encodeFrame(ServerFrame{Type: "error", Code: err.Error(), Message: "connection rejected"}))
		_ = conn.Close()
		return
	}

	// The guard takes over cleanup from here: whatever happens inside
	// run (normal exit, the socket erroring out, a panic unwinding
	// through this goroutine), RemoveConnection runs exactly once.
	guard := NewConnectionGuard(id, h.manager)
	defer guard.Cleanup()
	defer conn.Close()

	sess := newSession(r.Context(), h.manager, conn, info, h.logger, h.metrics)
	sess.run(h.manager.config)
}
