// Package client implements the relay wire protocol for terminal and other
// front ends. Presentation code talks to it through Transport and Handler only.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/andy6609/relay-chat-server/internal/chat"
)

const readChunk = 1024

var ErrEmptyMessage = errors.New("empty message")

// Handler receives everything the server relays.
type Handler interface {
	OnMessage(text string)
	OnError(err error)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are ignored.
type HandlerFuncs struct {
	Message func(string)
	Error   func(error)
}

func (h HandlerFuncs) OnMessage(text string) {
	if h.Message != nil {
		h.Message(text)
	}
}

func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

type Transport struct {
	conn    net.Conn
	r       *bufio.Reader
	framing string
	name    string

	wmu       sync.Mutex
	closeOnce sync.Once
}

type Option func(t *Transport)

// WithFraming selects chat.FramingChunk (default) or chat.FramingLine and
// must match the server.
func WithFraming(framing string) Option {
	return func(t *Transport) {
		if framing != "" {
			t.framing = framing
		}
	}
}

func Dial(ctx context.Context, addr string, options ...Option) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	t := &Transport{
		conn:    conn,
		r:       bufio.NewReaderSize(conn, readChunk),
		framing: chat.FramingChunk,
	}
	for _, option := range options {
		if option != nil {
			option(t)
		}
	}
	return t, nil
}

// Handshake reads the greeting and answers with name.
func (t *Transport) Handshake(name string) (string, error) {
	greeting, err := t.ReadGreeting()
	if err != nil {
		return greeting, err
	}
	return greeting, t.Register(name)
}

// ReadGreeting blocks until the server's full welcome text and name prompt
// have arrived.
func (t *Transport) ReadGreeting() (string, error) {
	var greeting strings.Builder
	buf := make([]byte, readChunk)
	for greeting.String() != chat.Welcome {
		n, err := t.r.Read(buf)
		greeting.Write(buf[:n])
		if err != nil {
			return greeting.String(), fmt.Errorf("handshake: read greeting: %w", err)
		}
		if !strings.HasPrefix(chat.Welcome, greeting.String()) {
			return greeting.String(), fmt.Errorf("handshake: unexpected greeting %q", greeting.String())
		}
	}
	return greeting.String(), nil
}

// Register sends the display name. The server neither validates nor
// acknowledges it.
func (t *Transport) Register(name string) error {
	if name == "" {
		return fmt.Errorf("handshake: %w", ErrEmptyMessage)
	}
	if err := t.write(name); err != nil {
		return fmt.Errorf("handshake: send name: %w", err)
	}
	t.name = name
	return nil
}

func (t *Transport) Name() string { return t.name }

// Send relays text to every other client. Empty text is refused since the
// server ignores it anyway.
func (t *Transport) Send(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	return t.write(text)
}

// Receive delivers inbound messages to h until the connection ends or ctx is
// done. In line framing each call to OnMessage carries one line without its
// terminator. A clean close by either side returns nil.
func (t *Transport) Receive(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	buf := make([]byte, readChunk)
	for {
		var (
			text string
			err  error
		)
		if t.framing == chat.FramingLine {
			text, err = t.r.ReadString('\n')
			text = strings.TrimRight(text, "\r\n")
		} else {
			var n int
			n, err = t.r.Read(buf)
			text = string(buf[:n])
		}
		if text != "" {
			h.OnMessage(text)
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil
		}
		h.OnError(err)
		return err
	}
}

// IsQuit reports whether the server would treat text as the quit command.
func IsQuit(text string) bool {
	return chat.IsQuit(text)
}

// Quit announces departure and closes the connection.
func (t *Transport) Quit() error {
	err := t.write(chat.QuitKeyword)
	if cerr := t.Close(); err == nil {
		err = cerr
	}
	return err
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() { err = t.conn.Close() })
	return err
}

func (t *Transport) write(s string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err := io.WriteString(t.conn, chat.EncodeMessage(t.framing, s))
	return err
}
