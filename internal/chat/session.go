package chat

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

func (s *Server) handleConn(conn net.Conn) {
	defer s.trackConn(conn, false)

	c := NewClient(conn, s.opts.OutBuffer)
	reader := newMessageReader(conn, s.opts.Framing, s.opts.ReadChunk)

	name, err := s.handshake(c, reader)
	if err != nil {
		s.logger.Warn("handshake failed", "addr", c.Addr, "error", err)
		c.Close()
		return
	}
	c.Name = name

	StartOutboundWriter(c, s.opts.Framing, s.opts.WriteTimeout, s.logger)
	s.lifecycle.Lock()
	s.reg.Insert(c)
	s.opts.Events.LogEvent(fmt.Sprintf("%s (%s) connected", c.Addr, c.Name))
	s.lifecycle.Unlock()
	s.logger.Info("client registered", "client_id", c.ID, "name", c.Name, "addr", c.Addr)

	// Close may have run between accept and Insert.
	if s.isClosed() {
		s.disconnect(c, false)
		return
	}

	s.handleSession(c, reader)
}

// handshake sends the welcome text and takes the next inbound message as the
// display name. Names are neither validated nor checked for uniqueness.
func (s *Server) handshake(c *Client, reader messageReader) (string, error) {
	if s.opts.WriteTimeout > 0 {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	if _, err := io.WriteString(c.Conn, Welcome); err != nil {
		return "", fmt.Errorf("%w: send welcome: %w", ErrHandshake, err)
	}
	_ = c.Conn.SetWriteDeadline(time.Time{})

	for {
		raw, err := reader.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("%w: read name: %w", ErrHandshake, err)
		}
		if name := trimLineEnd(raw); name != "" {
			return name, nil
		}
	}
}

// handleSession runs the read loop for a registered client until it quits or
// its connection fails.
func (s *Server) handleSession(c *Client, reader messageReader) {
	for {
		text, err := reader.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("read failed", "client_id", c.ID, "name", c.Name, "error", err)
			}
			s.disconnect(c, true)
			return
		}

		switch {
		case text == "":
			continue
		case IsQuit(text):
			MessagesTotal.WithLabelValues("quit").Inc()
			s.disconnect(c, true)
			return
		default:
			msg := Message{From: c.Name, Text: text, At: time.Now()}
			n := s.bc.Broadcast(msg.String(), c)
			MessagesTotal.WithLabelValues("broadcast").Inc()
			s.logger.Debug("message relayed", "name", msg.From, "at", msg.At, "recipients", n)
		}
	}
}

// disconnect removes c, records the event and tells the remaining clients.
// Only the first call for a client has any effect besides closing it.
func (s *Server) disconnect(c *Client, announce bool) {
	defer c.Close()

	s.lifecycle.Lock()
	removed := s.reg.Remove(c)
	if removed {
		s.opts.Events.LogEvent(fmt.Sprintf("%s (%s) disconnected", c.Addr, c.Name))
	}
	s.lifecycle.Unlock()
	if !removed {
		return
	}
	s.logger.Info("client left", "client_id", c.ID, "name", c.Name, "addr", c.Addr)

	if announce {
		s.bc.Broadcast(departureText(c.Name), c)
		MessagesTotal.WithLabelValues("departure").Inc()
	}
}
