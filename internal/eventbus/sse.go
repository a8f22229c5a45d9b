package eventbus

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
)

const keepaliveInterval = 30 * time.Second

// ServeAdmin streams every published event to the connecting client as
// Server-Sent Events, sending a keepalive comment line whenever the feed
// is idle past keepaliveInterval.
func (b *Bus) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	ch, unsubscribe := b.SubscribeAdmin()
	defer unsubscribe()
	serveSSE(w, r, ch)
}

// ServePortal streams only the events scoped to one inbox email.
func (b *Bus) ServePortal(w http.ResponseWriter, r *http.Request, email string) {
	ch, unsubscribe := b.SubscribePortal(email)
	defer unsubscribe()
	serveSSE(w, r, ch)
}

func serveSSE(w http.ResponseWriter, r *http.Request, ch <-chan domain.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			w.Write([]byte("event: " + string(event.Type) + "\n"))
			w.Write([]byte("data: "))
			w.Write(payload)
			w.Write([]byte("\n\n"))
			flusher.Flush()
			ticker.Reset(keepaliveInterval)

		case <-ticker.C:
			w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}
