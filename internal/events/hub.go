// Package events broadcasts import-run lifecycle messages to connected
// websocket watchers, so administrative tooling can follow a run live.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"phonehub/pkg/models"
)

const (
	// sendBuffer is how many pending events a watcher may fall behind
	// before it is dropped.
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

// Hub fans events out to watchers. Broadcast never blocks: each client
// has a buffered send queue drained by its own writer goroutine, and a
// client whose queue is full is disconnected rather than waited on.
type Hub struct {
	mu        sync.Mutex
	wsClients map[*websocket.Conn]chan []byte
}

func NewHub() *Hub {
	return &Hub{
		wsClients: make(map[*websocket.Conn]chan []byte),
	}
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	ch := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.wsClients[ws] = ch
	h.mu.Unlock()
	go h.writer(ws, ch)
}

// RemoveWS is idempotent; the read loop and a failed writer may both call it.
func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.wsClients[ws]
	if ok {
		delete(h.wsClients, ws)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
	_ = ws.Close()
}

func (h *Hub) writer(ws *websocket.Conn, ch chan []byte) {
	for msg := range ch {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.RemoveWS(ws)
			for range ch {
				// drain until RemoveWS closes the queue
			}
			return
		}
	}
}

func (h *Hub) Broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	b = append(b, '\n')

	var stalled []*websocket.Conn
	h.mu.Lock()
	for ws, ch := range h.wsClients {
		select {
		case ch <- b:
		default:
			stalled = append(stalled, ws)
		}
	}
	h.mu.Unlock()

	for _, ws := range stalled {
		h.RemoveWS(ws)
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.wsClients)
}

// RunStarted implements importer.Notifier.
func (h *Hub) RunStarted(runID, kind string) {
	h.Broadcast(Event{Type: "run.started", RunID: runID, Kind: kind, At: time.Now().UTC()})
}

// DeviceReconciled implements importer.Notifier.
func (h *Hub) DeviceReconciled(runID string, device models.Device, outcome string) {
	h.Broadcast(Event{
		Type:    "device.reconciled",
		RunID:   runID,
		Device:  device.Name,
		Brand:   device.Brand,
		Outcome: outcome,
		At:      time.Now().UTC(),
	})
}

// RunFinished implements importer.Notifier.
func (h *Hub) RunFinished(runID, kind string, result models.ImportResult) {
	h.Broadcast(Event{Type: "run.finished", RunID: runID, Kind: kind, Result: &result, At: time.Now().UTC()})
}
