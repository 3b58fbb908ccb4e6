package api

import (
	domain "github.com/example/watch-together/domain/room"
)

// WSCommand is the envelope for every inbound WebSocket frame. Type selects
// the command; the remaining fields are read per command and ignored
// otherwise.
type WSCommand struct {
	Type       string        `json:"type"`
	RoomCode   string        `json:"room_code,omitempty"`
	Name       string        `json:"name,omitempty"`
	Track      *domain.Track `json:"track,omitempty"`
	Time       float64       `json:"time,omitempty"`
	Index      *int          `json:"index,omitempty"`
	AddToQueue bool          `json:"add_to_queue,omitempty"`
	Text       string        `json:"text,omitempty"`
	Emoji      string        `json:"emoji,omitempty"`
}

// Inbound command types.
const (
	cmdCreateRoom      = "create_room"
	cmdJoinRoom        = "join_room"
	cmdLeaveRoom       = "leave_room"
	cmdLoadTrack       = "load_track"
	cmdPlay            = "play"
	cmdPause           = "pause"
	cmdSeek            = "seek"
	cmdTrackEnded      = "track_ended"
	cmdAddToQueue      = "add_to_queue"
	cmdRemoveFromQueue = "remove_from_queue"
	cmdRequestTrack    = "request_track"
	cmdApproveRequest  = "approve_request"
	cmdRejectRequest   = "reject_request"
	cmdSendMessage     = "send_message"
	cmdSendReaction    = "send_reaction"
)

// WSConnected is the first frame sent on every new connection; it hands the
// client its identity.
type WSConnected struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// WSRoomCreated confirms room creation to the new host, including the
// initial presence view so the creator never depends on catching the
// presence broadcast.
type WSRoomCreated struct {
	Type     string          `json:"type"`
	RoomCode string          `json:"room_code"`
	Name     string          `json:"name"`
	Members  []domain.Member `json:"members"`
}

// WSRoomJoined carries the full room snapshot so the joiner can render
// immediately, before any event reaches it.
type WSRoomJoined struct {
	Type            string                `json:"type"`
	RoomCode        string                `json:"room_code"`
	Name            string                `json:"name"`
	CurrentTrack    *domain.Track         `json:"current_track,omitempty"`
	Queue           []domain.Track        `json:"queue"`
	ChatHistory     []domain.ChatMessage  `json:"chat_history"`
	PendingRequests []domain.TrackRequest `json:"pending_requests"`
	Members         []domain.Member       `json:"members"`
}

// WSJoinFailed reports an expected join failure (unknown code).
type WSJoinFailed struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// WSRoomLeft confirms a voluntary leave.
type WSRoomLeft struct {
	Type string `json:"type"`
}

// WSError is the generic inline error frame.
type WSError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// RoomResponse is the REST summary of a live room.
type RoomResponse struct {
	RoomCode string `json:"room_code"`
	Members  int    `json:"members"`
	HasTrack bool   `json:"has_track"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
