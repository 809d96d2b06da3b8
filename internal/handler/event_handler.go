package handler

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

type eventSource interface {
	SubscribeAll(h events.Handler) func()
}

// EventHandler pushes domain events to browsers over server-sent events.
type EventHandler struct {
	bus       eventSource
	heartbeat time.Duration
	buffer    int
	logger    *zap.Logger
}

// NewEventHandler constructs the stream handler. A non-positive heartbeat
// defaults to 25 seconds.
func NewEventHandler(bus eventSource, heartbeat time.Duration, logger *zap.Logger) *EventHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{bus: bus, heartbeat: heartbeat, buffer: 64, logger: logger}
}

// Stream godoc
// @Summary Live stream of domain events
// @Description Server-sent events. Pass ?events=prospect.created,payment.changed to narrow the stream.
// @Tags Events
// @Produce text/event-stream
// @Param events query string false "Comma separated event names"
// @Success 200
// @Router /events [get]
func (h *EventHandler) Stream(c *gin.Context) {
	actor, _ := service.ActorFromContext(c.Request.Context())
	wanted := parseEventNames(c.Query("events"))

	queue := make(chan events.Event, h.buffer)
	unsubscribe := h.bus.SubscribeAll(func(_ context.Context, evt events.Event) {
		if !wanted.allows(evt.Name) || !visibleTo(evt, actor) {
			return
		}
		select {
		case queue <- evt:
		default:
			h.logger.Warn("event stream slow, dropping event", zap.String("event", string(evt.Name)), zap.String("actor", actor.ID))
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	done := c.Request.Context().Done()

	c.SSEvent("ready", gin.H{"heartbeatSeconds": int(h.heartbeat.Seconds())})
	c.Writer.Flush()

	send := func(evt events.Event) {
		c.Render(-1, sse.Event{Id: evt.ID, Event: string(evt.Name), Data: evt})
	}
	c.Stream(func(io.Writer) bool {
		// queued events are flushed before a disconnect is honoured
		select {
		case evt := <-queue:
			send(evt)
			return true
		default:
		}
		select {
		case <-done:
			return false
		case evt := <-queue:
			send(evt)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}

type eventNames map[events.Name]struct{}

func parseEventNames(raw string) eventNames {
	names := eventNames{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names[events.Name(part)] = struct{}{}
		}
	}
	return names
}

func (n eventNames) allows(name events.Name) bool {
	if len(n) == 0 {
		return true
	}
	_, ok := n[name]
	return ok
}

// visibleTo hides other users' report notifications unless the actor is an admin.
func visibleTo(evt events.Event, actor models.Actor) bool {
	if evt.Name != events.ReportFinished || actor.Role == models.RoleAdmin {
		return true
	}
	var payload struct {
		CreatedBy string `json:"createdBy"`
	}
	if err := evt.Decode(&payload); err != nil {
		return false
	}
	return payload.CreatedBy == actor.ID
}
