package chat

import (
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Broadcaster fans a message out to every registered client except the
// originator. It never holds the registry lock while delivering.
type Broadcaster struct {
	reg    *Registry
	logger *slog.Logger
}

func NewBroadcaster(reg *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{reg: reg, logger: logger}
}

// Broadcast queues msg for every client but exclude and returns how many
// recipients accepted it. A recipient that cannot take the message is skipped.
func (b *Broadcaster) Broadcast(msg string, exclude *Client) int {
	start := time.Now()
	defer func() { BroadcastDuration.Observe(time.Since(start).Seconds()) }()

	recipients := lo.Filter(b.reg.Snapshot(), func(c *Client, _ int) bool {
		return c != exclude
	})

	delivered := 0
	for _, c := range recipients {
		if c.Send(msg) {
			delivered++
			continue
		}
		b.logger.Debug("message not delivered", "client_id", c.ID, "name", c.Name)
	}
	return delivered
}
