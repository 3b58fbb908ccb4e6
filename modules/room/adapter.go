package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomPort defines the interface for room engine operations.
// This is the port other modules use to drive rooms.
type RoomPort interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error)
	JoinRoom(ctx context.Context, req JoinRoomRequest) (JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error)
	Playback(ctx context.Context, req PlaybackCommandRequest) (PlaybackCommandResponse, error)
	QueueAdd(ctx context.Context, req QueueAddRequest) (QueueResponse, error)
	QueueRemove(ctx context.Context, req QueueRemoveRequest) (QueueResponse, error)
	RequestTrack(ctx context.Context, req RequestTrackRequest) (RequestsResponse, error)
	ApproveRequest(ctx context.Context, req ApproveRequestRequest) (RequestsResponse, error)
	RejectRequest(ctx context.Context, req RejectRequestRequest) (RequestsResponse, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error)
	SendReaction(ctx context.Context, req SendReactionRequest) (SendReactionResponse, error)
	GetRoom(ctx context.Context, req GetRoomRequest) (GetRoomResponse, error)
}

// RoomAdapter implements RoomPort using the service container.
type RoomAdapter struct {
	container mono.ServiceContainer
}

// NewRoomAdapter creates a new RoomAdapter.
func NewRoomAdapter(container mono.ServiceContainer) *RoomAdapter {
	return &RoomAdapter{
		container: container,
	}
}

// call invokes a room service by name with a JSON request/reply pair.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req Req) (Resp, error) {
	var resp Resp
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return resp, fmt.Errorf("%s service call failed: %w", service, err)
	}
	return resp, nil
}

// CreateRoom creates a room with the caller as host.
func (a *RoomAdapter) CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error) {
	return call[CreateRoomRequest, CreateRoomResponse](ctx, a.container, "create-room", req)
}

// JoinRoom adds the caller to an existing room and returns a state snapshot.
func (a *RoomAdapter) JoinRoom(ctx context.Context, req JoinRoomRequest) (JoinRoomResponse, error) {
	return call[JoinRoomRequest, JoinRoomResponse](ctx, a.container, "join-room", req)
}

// LeaveRoom removes the caller from its room, if any.
func (a *RoomAdapter) LeaveRoom(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error) {
	return call[LeaveRoomRequest, LeaveRoomResponse](ctx, a.container, "leave-room", req)
}

// Playback forwards a playback command to the engine.
func (a *RoomAdapter) Playback(ctx context.Context, req PlaybackCommandRequest) (PlaybackCommandResponse, error) {
	return call[PlaybackCommandRequest, PlaybackCommandResponse](ctx, a.container, "playback-command", req)
}

// QueueAdd appends a track to the room queue.
func (a *RoomAdapter) QueueAdd(ctx context.Context, req QueueAddRequest) (QueueResponse, error) {
	return call[QueueAddRequest, QueueResponse](ctx, a.container, "queue-add", req)
}

// QueueRemove removes a queued track by index.
func (a *RoomAdapter) QueueRemove(ctx context.Context, req QueueRemoveRequest) (QueueResponse, error) {
	return call[QueueRemoveRequest, QueueResponse](ctx, a.container, "queue-remove", req)
}

// RequestTrack submits a guest track request.
func (a *RoomAdapter) RequestTrack(ctx context.Context, req RequestTrackRequest) (RequestsResponse, error) {
	return call[RequestTrackRequest, RequestsResponse](ctx, a.container, "request-track", req)
}

// ApproveRequest resolves a pending request.
func (a *RoomAdapter) ApproveRequest(ctx context.Context, req ApproveRequestRequest) (RequestsResponse, error) {
	return call[ApproveRequestRequest, RequestsResponse](ctx, a.container, "approve-request", req)
}

// RejectRequest discards a pending request.
func (a *RoomAdapter) RejectRequest(ctx context.Context, req RejectRequestRequest) (RequestsResponse, error) {
	return call[RejectRequestRequest, RequestsResponse](ctx, a.container, "reject-request", req)
}

// SendMessage posts a chat message.
func (a *RoomAdapter) SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error) {
	return call[SendMessageRequest, SendMessageResponse](ctx, a.container, "send-message", req)
}

// SendReaction fans an emoji out to the room.
func (a *RoomAdapter) SendReaction(ctx context.Context, req SendReactionRequest) (SendReactionResponse, error) {
	return call[SendReactionRequest, SendReactionResponse](ctx, a.container, "send-reaction", req)
}

// GetRoom looks up a public room summary.
func (a *RoomAdapter) GetRoom(ctx context.Context, req GetRoomRequest) (GetRoomResponse, error) {
	return call[GetRoomRequest, GetRoomResponse](ctx, a.container, "get-room", req)
}
