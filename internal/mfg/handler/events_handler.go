package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventsHandler 领域事件 SSE 推送
type EventsHandler struct {
	hub       *events.Hub
	heartbeat time.Duration
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream GET /api/events
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		NotFound(c, "event stream disabled")
		return
	}
	clientID := uuid.New().String()
	client := &events.Client{
		ID:     clientID,
		Events: make(chan events.Message, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case msg, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", msg.Event, msg.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
