package chat

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is one accepted connection plus the identity negotiated during the
// handshake. Name is assigned before the client is registered and never
// changes afterwards.
type Client struct {
	ID          string
	Conn        net.Conn
	Addr        string
	Name        string
	ConnectedAt time.Time

	out       chan string // outbound messages to be written by the writer goroutine
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn net.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	c := &Client{
		ID:          uuid.NewString(),
		Conn:        conn,
		ConnectedAt: time.Now(),
		out:         make(chan string, buffer),
		done:        make(chan struct{}),
	}
	if conn != nil {
		c.Addr = conn.RemoteAddr().String()
	}
	return c
}

// Send queues msg for the writer goroutine. It never blocks: a closed client
// or a full queue drops the message and reports false.
func (c *Client) Send(msg string) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	case <-c.done:
		return false
	default:
		DroppedMessagesTotal.Inc()
		return false
	}
}

// Close stops the writer and closes the transport. Safe to call repeatedly.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Message is a single relayed line of chat text.
type Message struct {
	From string
	Text string
	At   time.Time
}

func (m Message) String() string {
	return m.From + "> " + m.Text
}

var (
	ErrBind         = errorString("bind failed")
	ErrAccept       = errorString("accept failed")
	ErrHandshake    = errorString("handshake failed")
	ErrServerClosed = errorString("server closed")
)

type errorString string

func (e errorString) Error() string { return string(e) }
