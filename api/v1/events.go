package v1

import (
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
)

// eventBuffer is the per-subscriber queue; a consumer this far behind
// starts missing events rather than stalling transfers.
const eventBuffer = 64

// EventsHandler streams live transfer events over a WebSocket.
type EventsHandler struct {
	l   *slog.Logger
	bus *progress.Bus
}

func NewEventsHandler(l *slog.Logger, bus *progress.Bus) *EventsHandler {
	return &EventsHandler{l: l, bus: bus}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.l.Warn("websocket accept", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	events, cancel := h.bus.Subscribe(eventBuffer)
	defer cancel()

	// No inbound messages are expected; CloseRead cancels the context as
	// soon as the peer goes away.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, e); err != nil {
				return
			}
		}
	}
}
