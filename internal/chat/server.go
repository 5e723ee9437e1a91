package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

type Options struct {
	Framing      string
	ReadChunk    int
	OutBuffer    int
	WriteTimeout time.Duration
	// Events is optional; nil disables the event log.
	Events *EventLog
}

type Server struct {
	addr   string
	opts   Options
	logger *slog.Logger
	reg    *Registry
	bc     *Broadcaster

	// lifecycle orders registry changes with their event log entries.
	lifecycle sync.Mutex

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

func NewServer(addr string, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Framing == "" {
		opts.Framing = FramingChunk
	}
	reg := NewRegistry()
	return &Server{
		addr:   addr,
		opts:   opts,
		logger: logger,
		reg:    reg,
		bc:     NewBroadcaster(reg, logger),
		conns:  make(map[net.Conn]struct{}),
	}
}

func (s *Server) Registry() *Registry { return s.reg }

// Listen binds the configured address with SO_REUSEADDR set. The returned
// error wraps ErrBind.
func (s *Server) Listen() error {
	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening", "addr", ln.Addr().String(), "framing", s.opts.Framing)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Close is called, returning ErrServerClosed,
// or until Accept fails, in which case the listener is closed and the error
// wraps ErrAccept.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("%w: not listening", ErrAccept)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			_ = ln.Close()
			return fmt.Errorf("%w: %w", ErrAccept, err)
		}

		s.logger.Info("received connection", "addr", conn.RemoteAddr().String())
		if !s.trackConn(conn, true) {
			_ = conn.Close()
			continue
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting and closes every open connection. There is no drain.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	for _, c := range conns {
		_ = c.Close()
	}
	for _, c := range s.reg.Snapshot() {
		c.Close()
	}
	s.logger.Info("server closed", "open_connections", len(conns))
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// trackConn records or forgets an open connection; it refuses new ones once
// the server is closed.
func (s *Server) trackConn(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.closed {
			return false
		}
		s.conns[conn] = struct{}{}
		return true
	}
	delete(s.conns, conn)
	return true
}
