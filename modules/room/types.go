package room

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/watch-together/domain/room"
	"github.com/google/uuid"
)

// Engine limits.
const (
	RoomCodeLength    = 4
	MaxDisplayNameLen = 20
	MaxMessageLen     = 200
	MaxChatHistory    = 100
	MaxTrackFieldLen  = 200
)

// Playback actions accepted from the host. Anything else is dropped at the
// service boundary before reaching room state.
const (
	ActionLoadTrack  = "load_track"
	ActionPlay       = "play"
	ActionPause      = "pause"
	ActionSeek       = "seek"
	ActionTrackEnded = "track_ended"
)

// Sentinel errors for room operations.
var (
	// ErrRoomNotFound is returned when the requested room code does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrMissingUserID is returned when a command arrives without a caller
	// identity. This is a malformed command, not an expected failure path.
	ErrMissingUserID = errors.New("user id is required")
)

// ValidPlaybackAction reports whether action is one of the closed playback
// command set.
func ValidPlaybackAction(action string) bool {
	switch action {
	case ActionLoadTrack, ActionPlay, ActionPause, ActionSeek, ActionTrackEnded:
		return true
	}
	return false
}

// clampRunes truncates s to at most max runes.
func clampRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// normalizeDisplayName clamps a user-supplied display name and assigns a
// default when it is empty.
func normalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Guest-%s", uuid.New().String()[:4])
	}
	return clampRunes(name, MaxDisplayNameLen)
}

// sanitizeTrack clamps the display fields of a caller-supplied track. The
// track ID must be present; the rest is optional metadata.
func sanitizeTrack(t domain.Track) (domain.Track, bool) {
	t.ID = clampRunes(strings.TrimSpace(t.ID), MaxTrackFieldLen)
	if t.ID == "" {
		return domain.Track{}, false
	}
	t.Title = clampRunes(t.Title, MaxTrackFieldLen)
	t.Thumbnail = clampRunes(t.Thumbnail, 2*MaxTrackFieldLen)
	t.Channel = clampRunes(t.Channel, MaxTrackFieldLen)
	return t, true
}

// CreateRoomRequest is the request for creating a room.
type CreateRoomRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// CreateRoomResponse is the response for creating a room. Members is the
// initial presence view (just the host) so the creator renders it without
// depending on the presence broadcast racing its hub registration.
type CreateRoomResponse struct {
	RoomCode    string          `json:"room_code"`
	IsHost      bool            `json:"is_host"`
	DisplayName string          `json:"display_name"`
	Members     []domain.Member `json:"members,omitempty"`
}

// JoinRoomRequest is the request for joining a room by code.
type JoinRoomRequest struct {
	RoomCode    string `json:"room_code"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// JoinRoomResponse is the response for joining a room. On success it carries
// a full state snapshot so the joiner can render without waiting for events.
type JoinRoomResponse struct {
	Success         bool                  `json:"success"`
	Reason          string                `json:"reason,omitempty"`
	RoomCode        string                `json:"room_code,omitempty"`
	IsHost          bool                  `json:"is_host"`
	DisplayName     string                `json:"display_name,omitempty"`
	CurrentTrack    *domain.Track         `json:"current_track,omitempty"`
	Queue           []domain.Track        `json:"queue,omitempty"`
	ChatHistory     []domain.ChatMessage  `json:"chat_history,omitempty"`
	PendingRequests []domain.TrackRequest `json:"pending_requests,omitempty"`
	Members         []domain.Member       `json:"members,omitempty"`
}

// LeaveRoomRequest is the request for removing an identity from its room.
type LeaveRoomRequest struct {
	UserID string `json:"user_id"`
}

// LeaveRoomResponse reports whether the identity belonged to a room.
type LeaveRoomResponse struct {
	Left bool `json:"left"`
}

// PlaybackCommandRequest is a host playback command. Action is one of the
// closed action set; Track is required for load_track, Position for
// play/pause/seek.
type PlaybackCommandRequest struct {
	RoomCode string        `json:"room_code"`
	UserID   string        `json:"user_id"`
	Action   string        `json:"action"`
	Track    *domain.Track `json:"track,omitempty"`
	Position float64       `json:"position"`
}

// PlaybackCommandResponse acknowledges a playback command. Accepted is false
// for any dropped command; the caller is never told why.
type PlaybackCommandResponse struct {
	Accepted bool `json:"accepted"`
}

// QueueAddRequest appends a track to the room queue (host only).
type QueueAddRequest struct {
	RoomCode string       `json:"room_code"`
	UserID   string       `json:"user_id"`
	Track    domain.Track `json:"track"`
}

// QueueRemoveRequest removes the track at Index from the queue (host only).
type QueueRemoveRequest struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Index    int    `json:"index"`
}

// QueueResponse acknowledges a queue mutation.
type QueueResponse struct {
	Accepted bool `json:"accepted"`
}

// RequestTrackRequest submits a guest track request.
type RequestTrackRequest struct {
	RoomCode string       `json:"room_code"`
	UserID   string       `json:"user_id"`
	Track    domain.Track `json:"track"`
}

// ApproveRequestRequest resolves a pending request (host only). When
// AddToQueue is set the track goes to the queue tail; otherwise it becomes
// the current track and the queue is cleared.
type ApproveRequestRequest struct {
	RoomCode   string `json:"room_code"`
	UserID     string `json:"user_id"`
	Index      int    `json:"index"`
	AddToQueue bool   `json:"add_to_queue"`
}

// RejectRequestRequest discards a pending request (host only).
type RejectRequestRequest struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Index    int    `json:"index"`
}

// RequestsResponse acknowledges a request-list mutation.
type RequestsResponse struct {
	Accepted bool `json:"accepted"`
}

// SendMessageRequest posts a chat message to the sender's room.
type SendMessageRequest struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Text     string `json:"text"`
}

// SendMessageResponse acknowledges a chat message.
type SendMessageResponse struct {
	Accepted bool `json:"accepted"`
}

// SendReactionRequest fans an emoji out to the sender's room.
type SendReactionRequest struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Emoji    string `json:"emoji"`
}

// SendReactionResponse acknowledges a reaction.
type SendReactionResponse struct {
	Accepted bool `json:"accepted"`
}

// GetRoomRequest looks up a public room summary.
type GetRoomRequest struct {
	RoomCode string `json:"room_code"`
}

// GetRoomResponse is the public summary of a live room.
type GetRoomResponse struct {
	Found    bool   `json:"found"`
	RoomCode string `json:"room_code,omitempty"`
	Members  int    `json:"members"`
	HasTrack bool   `json:"has_track"`
}
