package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"omnicast/domain/model"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 15 * time.Second

// Hub maintains per-user subscribers listening for delivery progress events.
type Hub struct {
	mu    sync.RWMutex
	users map[int64]map[chan model.DeliveryEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{users: make(map[int64]map[chan model.DeliveryEvent]struct{})}
}

func (h *Hub) Name() string { return "sse" }

// Observe broadcasts to every stream of the user who owns the upload. Slow
// subscribers miss events instead of blocking the delivery.
func (h *Hub) Observe(ctx context.Context, event model.DeliveryEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Serve streams events for the user resolved by the identity middleware.
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := h.subscribe(userID)
	defer h.unsubscribe(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			_, _ = c.Writer.Write([]byte(":keepalive\n\n"))
			c.Writer.Flush()
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) subscribe(userID int64) chan model.DeliveryEvent {
	ch := make(chan model.DeliveryEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.DeliveryEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(userID int64, ch chan model.DeliveryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}
