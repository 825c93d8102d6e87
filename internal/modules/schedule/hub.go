package schedule

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// watcher pairs a connection with its outbound queue. The queue is drained
// by exactly one writePump goroutine, which is the connection's sole writer.
type watcher struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans booking lifecycle events out to connected schedule watchers.
// Delivery is best effort: a full queue drops the event and a failed write
// drops the connection, never blocking the booking operation that produced
// the event.
type Hub struct {
	watchers map[int64]*watcher
	mutex    sync.RWMutex
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		watchers: make(map[int64]*watcher),
		log:      log,
	}
}

// Register attaches a connection and starts its write pump. A reconnecting
// user displaces their previous connection. The returned watcher is the
// handle to detach this specific connection on disconnect.
func (h *Hub) Register(userID int64, conn *websocket.Conn) *watcher {
	w := &watcher{conn: conn, send: make(chan Event, sendBuffer)}

	h.mutex.Lock()
	if old, exists := h.watchers[userID]; exists {
		close(old.send)
	}
	h.watchers[userID] = w
	h.mutex.Unlock()

	go h.writePump(userID, w)
	return w
}

// Unregister drops the user's current connection, whichever it is.
func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if w, exists := h.watchers[userID]; exists {
		close(w.send)
		delete(h.watchers, userID)
	}
}

// detach removes a specific watcher. A stale pump whose connection was
// already displaced by Register must not tear down its replacement.
func (h *Hub) detach(userID int64, w *watcher) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if cur, exists := h.watchers[userID]; exists && cur == w {
		close(cur.send)
		delete(h.watchers, userID)
	}
}

// Broadcast queues the event for every watcher. Sends happen under the read
// lock and queues are only closed under the write lock, so a queue can never
// be closed mid-send.
func (h *Hub) Broadcast(event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for userID, w := range h.watchers {
		select {
		case w.send <- event:
		default:
			h.log.Debug().Int64("user_id", userID).Msg("watcher queue full, event dropped")
		}
	}
}

// writePump is the single writer on the connection: it drains the queue and
// owns the keep-alive pings. It exits when the queue is closed or a write
// fails.
func (h *Hub) writePump(userID int64, w *watcher) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = w.conn.Close()
	}()

	for {
		select {
		case event, ok := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = w.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := w.conn.WriteJSON(event); err != nil {
				h.log.Debug().Int64("user_id", userID).Err(err).Msg("dropping schedule watcher")
				h.detach(userID, w)
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.detach(userID, w)
				return
			}
		}
	}
}

func (h *Hub) WatcherCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.watchers)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, w := range h.watchers {
		close(w.send)
		delete(h.watchers, userID)
	}
}
