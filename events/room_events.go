package events

import (
	domain "github.com/example/watch-together/domain/room"
	"github.com/go-monolith/mono/pkg/helper"
)

// PlaybackCommandEvent is emitted when the host issues a playback command
// (or when the engine auto-advances the queue). ExcludeUserID names the
// sender to be skipped during fan-out; empty means deliver to every member.
type PlaybackCommandEvent struct {
	RoomCode      string        `json:"room_code"`
	Action        string        `json:"action"`
	Track         *domain.Track `json:"track,omitempty"`
	Position      float64       `json:"position"`
	ExcludeUserID string        `json:"exclude_user_id,omitempty"`
}

// QueueUpdatedEvent carries the full queue after a host mutation.
type QueueUpdatedEvent struct {
	RoomCode string         `json:"room_code"`
	Queue    []domain.Track `json:"queue"`
}

// RequestsUpdatedEvent carries the full pending-request list after a
// submission, approval, or rejection.
type RequestsUpdatedEvent struct {
	RoomCode string                `json:"room_code"`
	Requests []domain.TrackRequest `json:"requests"`
}

// PresenceUpdatedEvent carries the derived presence view after any
// membership change.
type PresenceUpdatedEvent struct {
	RoomCode string          `json:"room_code"`
	Members  []domain.Member `json:"members"`
}

// HostTransferredEvent is emitted when a departing host's role moves to a
// remaining member. Delivered to the promoted member only.
type HostTransferredEvent struct {
	RoomCode    string `json:"room_code"`
	NewHostID   string `json:"new_host_id"`
	NewHostName string `json:"new_host_name"`
}

// MemberJoinedEvent announces a new member to the rest of the room.
type MemberJoinedEvent struct {
	RoomCode string `json:"room_code"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
}

// MessagePostedEvent carries a single new chat entry (history is only sent
// in the join snapshot).
type MessagePostedEvent struct {
	RoomCode string             `json:"room_code"`
	Message  domain.ChatMessage `json:"message"`
}

// ReactionSentEvent is a stateless reaction fan-out.
type ReactionSentEvent struct {
	RoomCode string `json:"room_code"`
	Emoji    string `json:"emoji"`
	From     string `json:"from"`
}

// Event definitions for the room engine.
var (
	PlaybackCommandV1 = helper.EventDefinition[PlaybackCommandEvent](
		"room",
		"PlaybackCommand",
		"v1",
	)

	QueueUpdatedV1 = helper.EventDefinition[QueueUpdatedEvent](
		"room",
		"QueueUpdated",
		"v1",
	)

	RequestsUpdatedV1 = helper.EventDefinition[RequestsUpdatedEvent](
		"room",
		"RequestsUpdated",
		"v1",
	)

	PresenceUpdatedV1 = helper.EventDefinition[PresenceUpdatedEvent](
		"room",
		"PresenceUpdated",
		"v1",
	)

	HostTransferredV1 = helper.EventDefinition[HostTransferredEvent](
		"room",
		"HostTransferred",
		"v1",
	)

	MemberJoinedV1 = helper.EventDefinition[MemberJoinedEvent](
		"room",
		"MemberJoined",
		"v1",
	)

	MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
		"room",
		"MessagePosted",
		"v1",
	)

	ReactionSentV1 = helper.EventDefinition[ReactionSentEvent](
		"room",
		"ReactionSent",
		"v1",
	)
)
