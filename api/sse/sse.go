// Package sse streams tracker changes to browser views.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/tracker"
)

// DefaultKeepalive is the interval of the comment lines that keep idle
// connections open through proxies.
const DefaultKeepalive = 30 * time.Second

// Handler serves GET /api/events.
type Handler struct {
	pubsub    cache.PubSub
	logger    *zap.Logger
	keepalive time.Duration
}

func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, logger: logger, keepalive: DefaultKeepalive}
}

// filter narrows the stream to one item, one actor or some change kinds.
// Empty fields match everything.
type filter struct {
	item  string
	actor string
	kinds []tracker.ChangeKind
}

func filterFrom(c *gin.Context) filter {
	f := filter{item: c.Query("item"), actor: c.Query("actor")}
	for k := range strings.SplitSeq(c.Query("kind"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			f.kinds = append(f.kinds, tracker.ChangeKind(k))
		}
	}
	return f
}

func (f filter) empty() bool { return f.item == "" && f.actor == "" && len(f.kinds) == 0 }

func (f filter) match(ch tracker.Change) bool {
	return (f.item == "" || ch.ItemID == f.item) &&
		(f.actor == "" || ch.ActorID == f.actor) &&
		(len(f.kinds) == 0 || slices.Contains(f.kinds, ch.Kind))
}

// ServeSSE sends a "connected" event, then one "change" event per published
// tracker change that passes the item, actor and kind query filters. Event
// ids count up from 1 per connection.
func (h *Handler) ServeSSE(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	msgs, unsub, err := h.pubsub.Subscribe(ctx, cache.ChangesChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	f := filterFrom(c)
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	w := c.Writer
	io.WriteString(w, "event: connected\ndata: {}\n\n")
	w.Flush()

	tick := time.NewTicker(h.keepalive)
	defer tick.Stop()

	var seq uint64
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if !f.empty() {
				var ch tracker.Change
				if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
					h.logger.Warn("sse: undecodable change", zap.Error(err))
					continue
				}
				if !f.match(ch) {
					continue
				}
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: change\ndata: %s\n\n", seq, msg.Payload)
			w.Flush()

		case <-tick.C:
			io.WriteString(w, ": keepalive\n\n")
			w.Flush()

		case <-ctx.Done():
			return
		}
	}
}
