package room_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/solenlabs/agent-relay/backend/internal/model/relay"
	"github.com/solenlabs/agent-relay/backend/internal/service/room"
)

func TestBroadcastReachesAllSessionSubscribers(t *testing.T) {
	reg := room.NewRegistry()
	a := reg.Join("session-1")
	b := reg.Join("session-1")

	reg.Broadcast("session-1", relay.NewChunkMessage("session-1", "hello"))

	for _, sub := range []*room.Subscriber{a, b} {
		msg := <-sub.Messages()
		if msg.Content != "hello" {
			t.Fatalf("subscriber %s got %q", sub.ID, msg.Content)
		}
	}
}

func TestBroadcastPreservesIssueOrder(t *testing.T) {
	reg := room.NewRegistry()
	sub := reg.Join("session-1")

	for i := 0; i < 10; i++ {
		reg.Broadcast("session-1", relay.NewChunkMessage("session-1", fmt.Sprintf("chunk-%d", i)))
	}

	for i := 0; i < 10; i++ {
		msg := <-sub.Messages()
		want := fmt.Sprintf("chunk-%d", i)
		if msg.Content != want {
			t.Fatalf("message %d: got %q want %q", i, msg.Content, want)
		}
	}
}

func TestBroadcastIsSessionScoped(t *testing.T) {
	reg := room.NewRegistry()
	a := reg.Join("session-a")
	b := reg.Join("session-b")

	reg.Broadcast("session-a", relay.NewChunkMessage("session-a", "only-for-a"))

	select {
	case msg := <-b.Messages():
		t.Fatalf("session-b subscriber observed %q", msg.Content)
	default:
	}

	msg := <-a.Messages()
	if msg.Content != "only-for-a" {
		t.Fatalf("unexpected content %q", msg.Content)
	}
}

func TestBroadcastToEmptySessionIsNoop(t *testing.T) {
	reg := room.NewRegistry()
	// Must not panic or error.
	reg.Broadcast("nobody-home", relay.NewChunkMessage("nobody-home", "void"))
}

func TestLeaveClosesChannelAndIsIdempotent(t *testing.T) {
	reg := room.NewRegistry()
	sub := reg.Join("session-1")

	reg.Leave(sub)
	reg.Leave(sub)

	if _, ok := <-sub.Messages(); ok {
		t.Fatal("expected closed channel after leave")
	}
	if reg.Count("session-1") != 0 {
		t.Fatalf("expected empty room, got %d", reg.Count("session-1"))
	}
}

func TestBackpressuredSubscriberIsEvictedNotBlocking(t *testing.T) {
	reg := room.NewRegistry()
	slow := reg.Join("session-1")
	fast := reg.Join("session-1")

	// Fill well past the subscriber buffer without draining `slow`; the
	// broadcasts must return promptly and keep delivering to `fast`.
	for i := 0; i < 200; i++ {
		reg.Broadcast("session-1", relay.NewChunkMessage("session-1", "burst"))
		for {
			select {
			case <-fast.Messages():
				continue
			default:
			}
			break
		}
	}

	if reg.Count("session-1") != 1 {
		t.Fatalf("expected slow subscriber evicted, members=%d", reg.Count("session-1"))
	}

	// Eviction closes the channel after any buffered messages drain.
	for range slow.Messages() {
	}
	reg.Leave(slow)
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	reg := room.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session-%d", n%2)
			sub := reg.Join(sessionID)
			go func() {
				for range sub.Messages() {
				}
			}()
			for j := 0; j < 50; j++ {
				reg.Broadcast(sessionID, relay.NewChunkMessage(sessionID, "c"))
			}
			reg.Leave(sub)
		}(i)
	}
	wg.Wait()
}
