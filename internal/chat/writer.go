package chat

import (
	"bufio"
	"log/slog"
	"time"
)

// StartOutboundWriter drains c's queue onto its connection until the client
// is closed. A failed write closes the client, which ends its session through
// the read path.
func StartOutboundWriter(c *Client, framing string, timeout time.Duration, logger *slog.Logger) {
	go func() {
		w := bufio.NewWriter(c.Conn)
		for {
			select {
			case msg := <-c.out:
				if timeout > 0 {
					_ = c.Conn.SetWriteDeadline(time.Now().Add(timeout))
				}
				if _, err := w.WriteString(EncodeMessage(framing, msg)); err != nil {
					logger.Debug("write failed", "client_id", c.ID, "name", c.Name, "error", err)
					c.Close()
					return
				}
				if err := w.Flush(); err != nil {
					logger.Debug("write failed", "client_id", c.ID, "name", c.Name, "error", err)
					c.Close()
					return
				}
			case <-c.done:
				return
			}
		}
	}()
}
