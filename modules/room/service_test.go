package room

import (
	"context"
	"testing"

	domain "github.com/example/watch-together/domain/room"
)

// Handlers are exercised directly, without an event bus: publishing is
// best-effort and the engine state must not depend on it.

func TestModule_CreateRoom(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	t.Run("missing user id", func(t *testing.T) {
		if _, err := m.createRoom(ctx, CreateRoomRequest{DisplayName: "Alice"}, nil); err == nil {
			t.Error("createRoom() expected error, got nil")
		}
	})

	t.Run("valid", func(t *testing.T) {
		resp, err := m.createRoom(ctx, CreateRoomRequest{UserID: "u1", DisplayName: "Alice"}, nil)
		if err != nil {
			t.Fatalf("createRoom() unexpected error: %v", err)
		}
		if !resp.IsHost {
			t.Error("createRoom() IsHost = false, want true")
		}
		if len(resp.RoomCode) != RoomCodeLength {
			t.Errorf("createRoom() code = %q, want %d characters", resp.RoomCode, RoomCodeLength)
		}
	})

	t.Run("empty name gets a guest name", func(t *testing.T) {
		resp, err := m.createRoom(ctx, CreateRoomRequest{UserID: "u2"}, nil)
		if err != nil {
			t.Fatalf("createRoom() unexpected error: %v", err)
		}
		if resp.DisplayName == "" {
			t.Error("createRoom() DisplayName should not be empty")
		}
	})
}

func TestModule_JoinRoom(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, err := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)
	if err != nil {
		t.Fatalf("createRoom() unexpected error: %v", err)
	}

	t.Run("unknown code is an expected failure", func(t *testing.T) {
		resp, err := m.joinRoom(ctx, JoinRoomRequest{RoomCode: "ZZZZ", UserID: "g1", DisplayName: "Bob"}, nil)
		if err != nil {
			t.Fatalf("joinRoom() unexpected error: %v", err)
		}
		if resp.Success {
			t.Error("joinRoom() Success = true, want false")
		}
		if resp.Reason == "" {
			t.Error("joinRoom() Reason should not be empty")
		}
	})

	t.Run("valid join returns snapshot", func(t *testing.T) {
		resp, err := m.joinRoom(ctx, JoinRoomRequest{RoomCode: created.RoomCode, UserID: "g1", DisplayName: "Bob"}, nil)
		if err != nil {
			t.Fatalf("joinRoom() unexpected error: %v", err)
		}
		if !resp.Success {
			t.Fatalf("joinRoom() Success = false, reason %q", resp.Reason)
		}
		if resp.IsHost {
			t.Error("joinRoom() IsHost = true, want false")
		}
		if len(resp.Members) != 2 {
			t.Errorf("joinRoom() members = %d, want 2", len(resp.Members))
		}
	})
}

func TestModule_PlaybackCommand(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, _ := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)
	m.joinRoom(ctx, JoinRoomRequest{RoomCode: created.RoomCode, UserID: "g1", DisplayName: "Bob"}, nil)
	code := created.RoomCode

	tests := []struct {
		name string
		req  PlaybackCommandRequest
		want bool
	}{
		{
			name: "host load_track",
			req: PlaybackCommandRequest{
				RoomCode: code, UserID: "host", Action: ActionLoadTrack,
				Track: &domain.Track{ID: "v1"},
			},
			want: true,
		},
		{
			name: "host play",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "host", Action: ActionPlay},
			want: true,
		},
		{
			name: "host seek",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "host", Action: ActionSeek, Position: 42.5},
			want: true,
		},
		{
			name: "guest play dropped",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "g1", Action: ActionPlay},
			want: false,
		},
		{
			name: "negative position dropped",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "host", Action: ActionSeek, Position: -1},
			want: false,
		},
		{
			name: "unknown action dropped",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "host", Action: "rewind"},
			want: false,
		},
		{
			name: "load_track without track dropped",
			req:  PlaybackCommandRequest{RoomCode: code, UserID: "host", Action: ActionLoadTrack},
			want: false,
		},
		{
			name: "unknown room dropped",
			req:  PlaybackCommandRequest{RoomCode: "ZZZZ", UserID: "host", Action: ActionPlay},
			want: false,
		},
		{
			name: "missing user dropped",
			req:  PlaybackCommandRequest{RoomCode: code, Action: ActionPlay},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.playbackCommand(ctx, tt.req, nil)
			if err != nil {
				t.Fatalf("playbackCommand() unexpected error: %v", err)
			}
			if resp.Accepted != tt.want {
				t.Errorf("playbackCommand() Accepted = %v, want %v", resp.Accepted, tt.want)
			}
		})
	}
}

func TestModule_TrackEndedAdvancesQueue(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, _ := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)
	code := created.RoomCode

	m.playbackCommand(ctx, PlaybackCommandRequest{
		RoomCode: code, UserID: "host", Action: ActionLoadTrack,
		Track: &domain.Track{ID: "v1"},
	}, nil)
	m.queueAdd(ctx, QueueAddRequest{RoomCode: code, UserID: "host", Track: domain.Track{ID: "v2"}}, nil)

	resp, err := m.playbackCommand(ctx, PlaybackCommandRequest{
		RoomCode: code, UserID: "host", Action: ActionTrackEnded,
	}, nil)
	if err != nil {
		t.Fatalf("playbackCommand() unexpected error: %v", err)
	}
	if !resp.Accepted {
		t.Fatal("playbackCommand() track_ended not accepted")
	}

	current, ok := m.registry.CurrentTrack(code)
	if !ok || current == nil || current.ID != "v2" {
		t.Errorf("CurrentTrack() = %+v, want v2", current)
	}
}

func TestModule_RequestWorkflow(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, _ := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)
	code := created.RoomCode
	m.joinRoom(ctx, JoinRoomRequest{RoomCode: code, UserID: "g1", DisplayName: "Bob"}, nil)

	resp, err := m.requestTrack(ctx, RequestTrackRequest{
		RoomCode: code, UserID: "g1", Track: domain.Track{ID: "v1"},
	}, nil)
	if err != nil {
		t.Fatalf("requestTrack() unexpected error: %v", err)
	}
	if !resp.Accepted {
		t.Fatal("requestTrack() not accepted for guest")
	}

	// Host submissions are dropped.
	resp, _ = m.requestTrack(ctx, RequestTrackRequest{
		RoomCode: code, UserID: "host", Track: domain.Track{ID: "v2"},
	}, nil)
	if resp.Accepted {
		t.Error("requestTrack() should be dropped for the host")
	}

	// Play-now approval replaces the current track and clears the queue.
	m.queueAdd(ctx, QueueAddRequest{RoomCode: code, UserID: "host", Track: domain.Track{ID: "queued"}}, nil)
	approved, err := m.approveRequest(ctx, ApproveRequestRequest{
		RoomCode: code, UserID: "host", Index: 0, AddToQueue: false,
	}, nil)
	if err != nil {
		t.Fatalf("approveRequest() unexpected error: %v", err)
	}
	if !approved.Accepted {
		t.Fatal("approveRequest() not accepted for host")
	}
	current, _ := m.registry.CurrentTrack(code)
	if current == nil || current.ID != "v1" {
		t.Errorf("CurrentTrack() = %+v, want v1", current)
	}

	snap, _, _ := m.registry.Join(code, "g2", "Carol")
	if len(snap.Queue) != 0 {
		t.Errorf("queue = %+v, want cleared by play-now approval", snap.Queue)
	}
	if len(snap.Requests) != 0 {
		t.Errorf("requests = %+v, want empty", snap.Requests)
	}
}

func TestModule_SendMessageAndReaction(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, _ := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)
	code := created.RoomCode

	resp, err := m.sendMessage(ctx, SendMessageRequest{RoomCode: code, UserID: "host", Text: "hi"}, nil)
	if err != nil {
		t.Fatalf("sendMessage() unexpected error: %v", err)
	}
	if !resp.Accepted {
		t.Error("sendMessage() not accepted for member")
	}

	resp, _ = m.sendMessage(ctx, SendMessageRequest{RoomCode: code, UserID: "stranger", Text: "hi"}, nil)
	if resp.Accepted {
		t.Error("sendMessage() should be dropped for a non-member")
	}

	reaction, err := m.sendReaction(ctx, SendReactionRequest{RoomCode: code, UserID: "host", Emoji: "🔥"}, nil)
	if err != nil {
		t.Fatalf("sendReaction() unexpected error: %v", err)
	}
	if !reaction.Accepted {
		t.Error("sendReaction() not accepted for member")
	}

	reaction, _ = m.sendReaction(ctx, SendReactionRequest{RoomCode: code, UserID: "host"}, nil)
	if reaction.Accepted {
		t.Error("sendReaction() should be dropped without an emoji")
	}
}

func TestModule_GetRoom(t *testing.T) {
	ctx := context.Background()
	m := NewModule()

	created, _ := m.createRoom(ctx, CreateRoomRequest{UserID: "host", DisplayName: "Alice"}, nil)

	resp, err := m.getRoom(ctx, GetRoomRequest{RoomCode: created.RoomCode}, nil)
	if err != nil {
		t.Fatalf("getRoom() unexpected error: %v", err)
	}
	if !resp.Found {
		t.Error("getRoom() Found = false, want true")
	}
	if resp.Members != 1 {
		t.Errorf("getRoom() Members = %d, want 1", resp.Members)
	}

	resp, err = m.getRoom(ctx, GetRoomRequest{RoomCode: "ZZZZ"}, nil)
	if err != nil {
		t.Fatalf("getRoom() unexpected error: %v", err)
	}
	if resp.Found {
		t.Error("getRoom() Found = true, want false")
	}
}
