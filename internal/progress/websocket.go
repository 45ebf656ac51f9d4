package progress

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/entity"
)

// Hub broadcasts job snapshots to connected websocket clients so an
// external UI can watch a batch mid-run.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        logger,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Start begins the fan-out loop. It runs until Stop.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case client := <-h.register:
				h.mu.Lock()
				h.clients[client] = true
				h.mu.Unlock()
				h.log.Info("progress client connected", "clients", len(h.clients))
			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					_ = client.Close()
				}
				h.mu.Unlock()
				h.log.Info("progress client disconnected", "clients", len(h.clients))
			case message := <-h.broadcast:
				h.mu.Lock()
				for client := range h.clients {
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						h.log.Warn("progress send failed", "error", err)
						_ = client.Close()
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			case <-h.done:
				h.mu.Lock()
				for client := range h.clients {
					_ = client.Close()
				}
				h.clients = make(map[*websocket.Conn]bool)
				h.mu.Unlock()
				h.log.Info("progress hub stopped")
				return
			}
		}
	}()
}

// Stop ends the fan-out loop and closes every connected client.
// Safe to call more than once; events published after Stop are dropped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// JobUpdated implements pipeline.Observer. Slow or absent clients never
// stall the pipeline: when the buffer is full the event is dropped (the
// final snapshot per URL is still delivered via the store and report).
func (h *Hub) JobUpdated(index int, rec entity.JobRecord) {
	update := map[string]any{
		"type":       "job_update",
		"run_id":     rec.RunID.String(),
		"index":      index,
		"url":        rec.URL,
		"status":     string(rec.Status),
		"updated_at": rec.UpdatedAt,
	}
	if rec.Status == constants.JobStatusFailed && rec.ErrorMessage != "" {
		update["error"] = rec.ErrorMessage
	}

	data, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("progress marshal failed", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
	}
}

// Handler upgrades an HTTP request into a progress subscription.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "error", err)
			return
		}
		select {
		case h.register <- conn:
		case <-h.done:
			_ = conn.Close()
			return
		}

		// Reader loop just waits for close.
		go func() {
			defer func() {
				select {
				case h.unregister <- conn:
				case <-h.done:
					_ = conn.Close()
				}
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
