package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroadcast_ExcludesSender(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	b := NewBroadcaster(r, nil)

	alice := newTestClient("alice", 8)
	bob := newTestClient("bob", 8)
	carol := newTestClient("carol", 8)
	r.Insert(alice)
	r.Insert(bob)
	r.Insert(carol)

	req.Equal(2, b.Broadcast("alice> hello", alice))

	req.Equal("alice> hello", waitForMessage(t, bob.out))
	req.Equal("alice> hello", waitForMessage(t, carol.out))
	req.Empty(alice.out)
	req.Empty(bob.out)
}

func TestBroadcast_SkipsClosedRecipient(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	b := NewBroadcaster(r, nil)

	alice := newTestClient("alice", 8)
	bob := newTestClient("bob", 8)
	carol := newTestClient("carol", 8)
	r.Insert(alice)
	r.Insert(bob)
	r.Insert(carol)
	bob.Close()

	req.Equal(1, b.Broadcast("alice> hi", alice))
	req.Equal("alice> hi", waitForMessage(t, carol.out))
}

func TestBroadcast_FullQueueDoesNotBlock(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r, nil)

	alice := newTestClient("alice", 1)
	slow := newTestClient("slow", 1)
	r.Insert(alice)
	r.Insert(slow)
	require.True(t, slow.Send("pending"))

	done := make(chan int, 1)
	go func() { done <- b.Broadcast("alice> hi", alice) }()

	select {
	case n := <-done:
		require.Zero(t, n)
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full recipient queue")
	}
}

func waitForMessage(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}
