package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/chrolisd/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API listens on loopback by default and carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FilterFromRequest reads the repeatable "device" and "type" query
// parameters.
func FilterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{Devices: q["device"]}
	for _, t := range q["type"] {
		f.Types = append(f.Types, events.EventType(t))
	}
	return f
}

// Handler returns an http.HandlerFunc that upgrades connections to WebSocket
// and registers the client with the hub. ctx bounds the client pumps; it
// should be the context the hub runs under.
func Handler(ctx context.Context, hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := FilterFromRequest(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws: upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
			return
		}

		client := hub.NewClient(conn, filter)
		select {
		case hub.register <- client:
		case <-ctx.Done():
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump(ctx)
	}
}
