package client

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andy6609/relay-chat-server/internal/chat"
)

type recorder struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (r *recorder) OnMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(text)
}

func (r *recorder) OnError(error) {}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func startServer(t *testing.T) *chat.Server {
	t.Helper()
	return startServerWith(t, chat.Options{})
}

func startServerWith(t *testing.T, opts chat.Options) *chat.Server {
	t.Helper()
	s := chat.NewServer("127.0.0.1:0", opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.Listen())
	go func() { _ = s.Serve() }()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func connect(t *testing.T, s *chat.Server, name string, registered int, options ...Option) *Transport {
	t.Helper()
	tr, err := Dial(context.Background(), s.Addr().String(), options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	greeting, err := tr.Handshake(name)
	require.NoError(t, err)
	require.Equal(t, chat.Welcome, greeting)
	require.Equal(t, name, tr.Name())
	require.Eventually(t, func() bool { return s.Registry().Len() == registered },
		time.Second, 5*time.Millisecond)
	return tr
}

func TestTransport_SendReceiveQuit(t *testing.T) {
	s := startServer(t)
	alice := connect(t, s, "alice", 1)
	bob := connect(t, s, "bob", 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := &recorder{}
	done := make(chan error, 1)
	go func() { done <- alice.Receive(ctx, got) }()

	require.NoError(t, bob.Send("hi alice"))
	require.Eventually(t, func() bool { return strings.Contains(got.String(), "bob> hi alice") },
		time.Second, 5*time.Millisecond)

	require.NoError(t, bob.Quit())
	require.Eventually(t, func() bool { return strings.Contains(got.String(), "[bob] has left chat server") },
		time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Registry().Len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Receive did not return after cancel")
	}
}

func TestTransport_RefusesEmptyMessage(t *testing.T) {
	s := startServer(t)
	alice := connect(t, s, "alice", 1)
	require.ErrorIs(t, alice.Send(""), ErrEmptyMessage)
}

func TestTransport_ReceiveEndsWhenServerCloses(t *testing.T) {
	s := startServer(t)
	alice := connect(t, s, "alice", 1)

	done := make(chan error, 1)
	go func() { done <- alice.Receive(context.Background(), HandlerFuncs{}) }()

	require.NoError(t, s.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Receive did not return after server close")
	}
}

func TestTransport_RegisterRefusesEmptyName(t *testing.T) {
	s := startServer(t)
	tr, err := Dial(context.Background(), s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	_, err = tr.ReadGreeting()
	require.NoError(t, err)
	require.ErrorIs(t, tr.Register(""), ErrEmptyMessage)
	require.Zero(t, s.Registry().Len())
}

func TestIsQuit(t *testing.T) {
	require.True(t, IsQuit("quit"))
	require.True(t, IsQuit("QUIT\r\n"))
	require.False(t, IsQuit(" quit "), "the server relays padded text as a message")
	require.False(t, IsQuit("quite"))
}

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) OnMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *lineRecorder) OnError(error) {}

func (r *lineRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestTransport_LineFraming(t *testing.T) {
	s := startServerWith(t, chat.Options{Framing: chat.FramingLine})
	alice := connect(t, s, "alice", 1, WithFraming(chat.FramingLine))
	bob := connect(t, s, "bob", 2, WithFraming(chat.FramingLine))
	require.Equal(t, []string{"alice", "bob"}, s.Registry().Names())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := &lineRecorder{}
	go func() { _ = alice.Receive(ctx, got) }()

	require.NoError(t, bob.Send("one"))
	require.NoError(t, bob.Send("two"))
	require.NoError(t, bob.Quit())

	want := []string{"bob> one", "bob> two", "[bob] has left chat server"}
	require.Eventually(t, func() bool { return len(got.Lines()) == len(want) }, time.Second, 5*time.Millisecond)
	require.Equal(t, want, got.Lines())
}
