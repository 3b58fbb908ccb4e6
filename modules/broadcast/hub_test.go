package broadcast

import (
	"context"
	"testing"
)

// Registration is synchronous, so tests exercise the exported API directly;
// clients carry no real socket and deliveries land in their send queues.

func newTestClient(id string) *Client {
	return NewClient(id, nil)
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("u1")
	c2 := newTestClient("u2")

	h.Register(c1)
	h.Register(c2)

	if got := h.ClientCount(); got != 2 {
		t.Errorf("ClientCount() = %d, want 2", got)
	}

	h.Unregister(c1)
	if got := h.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}
	if h.GetClient("u1") != nil {
		t.Error("GetClient() should return nil after unregister")
	}
	if h.GetClient("u2") == nil {
		t.Error("GetClient() should find the remaining client")
	}
}

func TestHub_RoomBookkeeping(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("u1")
	c2 := newTestClient("u2")
	h.Register(c1)
	h.Register(c2)

	h.JoinRoom("u1", "ABCD")
	h.JoinRoom("u2", "ABCD")

	if got := h.RoomClientCount("ABCD"); got != 2 {
		t.Errorf("RoomClientCount() = %d, want 2", got)
	}

	// Moving rooms leaves the old one.
	h.JoinRoom("u2", "WXYZ")
	if got := h.RoomClientCount("ABCD"); got != 1 {
		t.Errorf("RoomClientCount(ABCD) = %d, want 1 after move", got)
	}
	if got := h.RoomClientCount("WXYZ"); got != 1 {
		t.Errorf("RoomClientCount(WXYZ) = %d, want 1", got)
	}

	h.LeaveRoom("u1")
	if got := h.RoomClientCount("ABCD"); got != 0 {
		t.Errorf("RoomClientCount() = %d, want 0 after leave", got)
	}
	if c1.RoomCode != "" {
		t.Errorf("client room = %q, want empty after leave", c1.RoomCode)
	}

	// Unknown client is a no-op.
	h.JoinRoom("ghost", "ABCD")
	if got := h.RoomClientCount("ABCD"); got != 0 {
		t.Errorf("RoomClientCount() = %d, want 0", got)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("u1")
	c2 := newTestClient("u2")
	c3 := newTestClient("u3")
	for _, c := range []*Client{c1, c2, c3} {
		h.Register(c)
	}
	h.JoinRoom("u1", "ABCD")
	h.JoinRoom("u2", "ABCD")
	h.JoinRoom("u3", "WXYZ")

	h.handleBroadcast(&BroadcastMessage{
		RoomCode: "ABCD",
		Payload:  map[string]string{"type": "presence"},
	})

	if got := len(c1.send); got != 1 {
		t.Errorf("c1 queued frames = %d, want 1", got)
	}
	if got := len(c2.send); got != 1 {
		t.Errorf("c2 queued frames = %d, want 1", got)
	}
	if got := len(c3.send); got != 0 {
		t.Errorf("c3 queued frames = %d, want 0 (other room)", got)
	}
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("u1")
	c2 := newTestClient("u2")
	h.Register(c1)
	h.Register(c2)
	h.JoinRoom("u1", "ABCD")
	h.JoinRoom("u2", "ABCD")

	h.handleBroadcast(&BroadcastMessage{
		RoomCode:  "ABCD",
		ExcludeID: "u1",
		Payload:   map[string]string{"type": "play"},
	})

	if got := len(c1.send); got != 0 {
		t.Errorf("sender queued frames = %d, want 0", got)
	}
	if got := len(c2.send); got != 1 {
		t.Errorf("receiver queued frames = %d, want 1", got)
	}
}

func TestHub_SendToUser(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("u1")
	c2 := newTestClient("u2")
	h.Register(c1)
	h.Register(c2)
	h.JoinRoom("u1", "ABCD")
	h.JoinRoom("u2", "ABCD")

	h.handleBroadcast(&BroadcastMessage{
		RoomCode: "ABCD",
		TargetID: "u2",
		Payload:  map[string]string{"type": "host_transferred"},
	})

	if got := len(c1.send); got != 0 {
		t.Errorf("bystander queued frames = %d, want 0", got)
	}
	if got := len(c2.send); got != 1 {
		t.Errorf("target queued frames = %d, want 1", got)
	}

	// A target outside the named room gets nothing.
	h.handleBroadcast(&BroadcastMessage{
		RoomCode: "WXYZ",
		TargetID: "u2",
		Payload:  map[string]string{"type": "host_transferred"},
	})
	if got := len(c2.send); got != 1 {
		t.Errorf("target queued frames = %d, want still 1", got)
	}
}

func TestHub_DropOnFullQueue(t *testing.T) {
	h := NewHub()
	c := newTestClient("u1")
	h.Register(c)
	h.JoinRoom("u1", "ABCD")

	for i := 0; i < sendQueueSize+10; i++ {
		h.handleBroadcast(&BroadcastMessage{
			RoomCode: "ABCD",
			Payload:  map[string]int{"n": i},
		})
	}

	if got := len(c.send); got != sendQueueSize {
		t.Errorf("queued frames = %d, want capped at %d", got, sendQueueSize)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub()
	c := newTestClient("u1")
	h.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	h.Wait()

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0 after shutdown", got)
	}
}

// A client must be able to join a room the instant Register returns, with no
// hub loop running at all.
func TestHub_RegisterThenImmediateJoin(t *testing.T) {
	h := NewHub()
	c := newTestClient("u1")

	h.Register(c)
	h.JoinRoom("u1", "ABCD")

	if got := h.RoomClientCount("ABCD"); got != 1 {
		t.Fatalf("RoomClientCount() = %d, want 1", got)
	}

	h.handleBroadcast(&BroadcastMessage{
		RoomCode: "ABCD",
		Payload:  map[string]string{"type": "presence"},
	})
	if got := len(c.send); got != 1 {
		t.Errorf("queued frames = %d, want 1", got)
	}
}
