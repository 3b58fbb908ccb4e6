package room

import (
	"context"
	"log"
	"time"

	"github.com/example/watch-together/events"
	"github.com/go-monolith/mono"
)

// autoAdvanceDelay is how long the engine waits between broadcasting the
// auto-advanced track and broadcasting play(0), giving every player time to
// initialize the new media.
const autoAdvanceDelay = 1500 * time.Millisecond

// createRoom handles the create-room service request.
func (m *Module) createRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	if req.UserID == "" {
		return CreateRoomResponse{}, ErrMissingUserID
	}

	name := normalizeDisplayName(req.DisplayName)
	code, members, prior := m.registry.Create(req.UserID, name)
	m.publishDeparture(prior)

	if m.eventBus != nil {
		if err := events.PresenceUpdatedV1.Publish(m.eventBus, events.PresenceUpdatedEvent{
			RoomCode: code,
			Members:  members,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish PresenceUpdated event: %v", err)
		}
	}

	log.Printf("[room] Room %s created by %s", code, name)
	return CreateRoomResponse{RoomCode: code, IsHost: true, DisplayName: name, Members: members}, nil
}

// joinRoom handles the join-room service request. An unknown code is an
// expected failure reported in the response, not an error.
func (m *Module) joinRoom(_ context.Context, req JoinRoomRequest, _ *mono.Msg) (JoinRoomResponse, error) {
	if req.UserID == "" {
		return JoinRoomResponse{}, ErrMissingUserID
	}

	name := normalizeDisplayName(req.DisplayName)
	snap, prior, ok := m.registry.Join(req.RoomCode, req.UserID, name)
	m.publishDeparture(prior)
	if !ok {
		return JoinRoomResponse{Success: false, Reason: "room not found"}, nil
	}

	if m.eventBus != nil {
		if err := events.MemberJoinedV1.Publish(m.eventBus, events.MemberJoinedEvent{
			RoomCode: snap.Code,
			UserID:   req.UserID,
			Name:     name,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish MemberJoined event: %v", err)
		}
	}
	if m.eventBus != nil {
		if err := events.PresenceUpdatedV1.Publish(m.eventBus, events.PresenceUpdatedEvent{
			RoomCode: snap.Code,
			Members:  snap.Members,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish PresenceUpdated event: %v", err)
		}
	}

	log.Printf("[room] %s joined room %s", name, snap.Code)
	return JoinRoomResponse{
		Success:         true,
		RoomCode:        snap.Code,
		IsHost:          false,
		DisplayName:     name,
		CurrentTrack:    snap.Track,
		Queue:           snap.Queue,
		ChatHistory:     snap.Chat,
		PendingRequests: snap.Requests,
		Members:         snap.Members,
	}, nil
}

// leaveRoom handles the leave-room service request; it also runs on every
// disconnect.
func (m *Module) leaveRoom(_ context.Context, req LeaveRoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	if req.UserID == "" {
		return LeaveRoomResponse{}, ErrMissingUserID
	}

	dep, ok := m.registry.Leave(req.UserID)
	if !ok {
		return LeaveRoomResponse{Left: false}, nil
	}
	m.publishDeparture(dep)
	return LeaveRoomResponse{Left: true}, nil
}

// publishDeparture fans out the membership events a departure owes the room
// left behind: a host transfer when the role moved, then the updated
// presence view. It runs for explicit leaves, disconnects, and the implicit
// leave when a member creates or joins another room.
func (m *Module) publishDeparture(dep *Departure) {
	if dep == nil {
		return
	}
	if dep.RoomClosed {
		log.Printf("[room] Room %s closed", dep.Code)
		return
	}

	if dep.NewHostID != "" {
		if m.eventBus != nil {
			if err := events.HostTransferredV1.Publish(m.eventBus, events.HostTransferredEvent{
				RoomCode:    dep.Code,
				NewHostID:   dep.NewHostID,
				NewHostName: dep.NewHostName,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish HostTransferred event: %v", err)
			}
		}
		log.Printf("[room] Host of room %s transferred to %s", dep.Code, dep.NewHostName)
	}
	if m.eventBus != nil {
		if err := events.PresenceUpdatedV1.Publish(m.eventBus, events.PresenceUpdatedEvent{
			RoomCode: dep.Code,
			Members:  dep.Members,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish PresenceUpdated event: %v", err)
		}
	}
}

// playbackCommand handles the playback-command service request. Commands
// from a non-host, against an unknown room, or otherwise malformed are
// dropped without error: a command racing a host migration is benign.
func (m *Module) playbackCommand(_ context.Context, req PlaybackCommandRequest, _ *mono.Msg) (PlaybackCommandResponse, error) {
	if req.UserID == "" || req.RoomCode == "" || !ValidPlaybackAction(req.Action) {
		return PlaybackCommandResponse{Accepted: false}, nil
	}

	switch req.Action {
	case ActionLoadTrack:
		if req.Track == nil {
			return PlaybackCommandResponse{Accepted: false}, nil
		}
		track, ok := sanitizeTrack(*req.Track)
		if !ok || !m.registry.SetTrack(req.RoomCode, req.UserID, track) {
			return PlaybackCommandResponse{Accepted: false}, nil
		}
		if m.eventBus != nil {
			if err := events.PlaybackCommandV1.Publish(m.eventBus, events.PlaybackCommandEvent{
				RoomCode:      req.RoomCode,
				Action:        ActionLoadTrack,
				Track:         &track,
				ExcludeUserID: req.UserID,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish PlaybackCommand event: %v", err)
			}
		}

	case ActionPlay, ActionPause, ActionSeek:
		if req.Position < 0 || !m.registry.IsHost(req.RoomCode, req.UserID) {
			return PlaybackCommandResponse{Accepted: false}, nil
		}
		if m.eventBus != nil {
			if err := events.PlaybackCommandV1.Publish(m.eventBus, events.PlaybackCommandEvent{
				RoomCode:      req.RoomCode,
				Action:        req.Action,
				Position:      req.Position,
				ExcludeUserID: req.UserID,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish PlaybackCommand event: %v", err)
			}
		}

	case ActionTrackEnded:
		next, ok := m.registry.TrackEnded(req.RoomCode, req.UserID)
		if !ok {
			return PlaybackCommandResponse{Accepted: false}, nil
		}
		if next != nil {
			m.startAdvancedTrack(req.RoomCode, next.ID)
		}
	}

	return PlaybackCommandResponse{Accepted: true}, nil
}

// startAdvancedTrack broadcasts the auto-advanced track to every member,
// host included, then schedules play(0) after the fixed delay. The deferred
// play is skipped if the room is gone or the host has moved on to a
// different track in the meantime.
func (m *Module) startAdvancedTrack(code, trackID string) {
	track, ok := m.registry.CurrentTrack(code)
	if !ok || track == nil {
		return
	}
	if m.eventBus != nil {
		if err := events.PlaybackCommandV1.Publish(m.eventBus, events.PlaybackCommandEvent{
			RoomCode: code,
			Action:   ActionLoadTrack,
			Track:    track,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish PlaybackCommand event: %v", err)
		}
	}

	time.AfterFunc(m.advanceDelay, func() {
		current, ok := m.registry.CurrentTrack(code)
		if !ok || current == nil || current.ID != trackID {
			return
		}
		if m.eventBus != nil {
			if err := events.PlaybackCommandV1.Publish(m.eventBus, events.PlaybackCommandEvent{
				RoomCode: code,
				Action:   ActionPlay,
				Position: 0,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish PlaybackCommand event: %v", err)
			}
		}
	})
}

// queueAdd handles the queue-add service request.
func (m *Module) queueAdd(_ context.Context, req QueueAddRequest, _ *mono.Msg) (QueueResponse, error) {
	track, ok := sanitizeTrack(req.Track)
	if !ok {
		return QueueResponse{Accepted: false}, nil
	}
	queue, ok := m.registry.QueueAdd(req.RoomCode, req.UserID, track)
	if !ok {
		return QueueResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.QueueUpdatedV1.Publish(m.eventBus, events.QueueUpdatedEvent{
			RoomCode: req.RoomCode,
			Queue:    queue,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish QueueUpdated event: %v", err)
		}
	}
	return QueueResponse{Accepted: true}, nil
}

// queueRemove handles the queue-remove service request. A stale index is a
// no-op with no broadcast.
func (m *Module) queueRemove(_ context.Context, req QueueRemoveRequest, _ *mono.Msg) (QueueResponse, error) {
	queue, ok := m.registry.QueueRemove(req.RoomCode, req.UserID, req.Index)
	if !ok {
		return QueueResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.QueueUpdatedV1.Publish(m.eventBus, events.QueueUpdatedEvent{
			RoomCode: req.RoomCode,
			Queue:    queue,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish QueueUpdated event: %v", err)
		}
	}
	return QueueResponse{Accepted: true}, nil
}

// requestTrack handles the request-track service request (guests only; a
// host submission is a no-op).
func (m *Module) requestTrack(_ context.Context, req RequestTrackRequest, _ *mono.Msg) (RequestsResponse, error) {
	track, ok := sanitizeTrack(req.Track)
	if !ok {
		return RequestsResponse{Accepted: false}, nil
	}
	requests, ok := m.registry.RequestTrack(req.RoomCode, req.UserID, track)
	if !ok {
		return RequestsResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.RequestsUpdatedV1.Publish(m.eventBus, events.RequestsUpdatedEvent{
			RoomCode: req.RoomCode,
			Requests: requests,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish RequestsUpdated event: %v", err)
		}
	}
	return RequestsResponse{Accepted: true}, nil
}

// approveRequest handles the approve-request service request.
func (m *Module) approveRequest(_ context.Context, req ApproveRequestRequest, _ *mono.Msg) (RequestsResponse, error) {
	approval, ok := m.registry.ApproveRequest(req.RoomCode, req.UserID, req.Index, req.AddToQueue)
	if !ok {
		return RequestsResponse{Accepted: false}, nil
	}

	if approval.AddedToQueue {
		if m.eventBus != nil {
			if err := events.QueueUpdatedV1.Publish(m.eventBus, events.QueueUpdatedEvent{
				RoomCode: req.RoomCode,
				Queue:    approval.Queue,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish QueueUpdated event: %v", err)
			}
		}
	} else {
		// Play-now: every member, host included, re-initializes its player.
		track := approval.Track
		if m.eventBus != nil {
			if err := events.PlaybackCommandV1.Publish(m.eventBus, events.PlaybackCommandEvent{
				RoomCode: req.RoomCode,
				Action:   ActionLoadTrack,
				Track:    &track,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish PlaybackCommand event: %v", err)
			}
		}
		if m.eventBus != nil {
			if err := events.QueueUpdatedV1.Publish(m.eventBus, events.QueueUpdatedEvent{
				RoomCode: req.RoomCode,
				Queue:    approval.Queue,
			}, nil); err != nil {
				log.Printf("[room] Warning: failed to publish QueueUpdated event: %v", err)
			}
		}
	}
	if m.eventBus != nil {
		if err := events.RequestsUpdatedV1.Publish(m.eventBus, events.RequestsUpdatedEvent{
			RoomCode: req.RoomCode,
			Requests: approval.Requests,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish RequestsUpdated event: %v", err)
		}
	}
	return RequestsResponse{Accepted: true}, nil
}

// rejectRequest handles the reject-request service request.
func (m *Module) rejectRequest(_ context.Context, req RejectRequestRequest, _ *mono.Msg) (RequestsResponse, error) {
	requests, ok := m.registry.RejectRequest(req.RoomCode, req.UserID, req.Index)
	if !ok {
		return RequestsResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.RequestsUpdatedV1.Publish(m.eventBus, events.RequestsUpdatedEvent{
			RoomCode: req.RoomCode,
			Requests: requests,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish RequestsUpdated event: %v", err)
		}
	}
	return RequestsResponse{Accepted: true}, nil
}

// sendMessage handles the send-message service request.
func (m *Module) sendMessage(_ context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	msg, ok := m.registry.AppendMessage(req.RoomCode, req.UserID, req.Text)
	if !ok {
		return SendMessageResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.MessagePostedV1.Publish(m.eventBus, events.MessagePostedEvent{
			RoomCode: req.RoomCode,
			Message:  *msg,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish MessagePosted event: %v", err)
		}
	}
	return SendMessageResponse{Accepted: true}, nil
}

// sendReaction handles the send-reaction service request. Reactions are
// stateless: nothing is stored, the emoji is fanned out and forgotten.
func (m *Module) sendReaction(_ context.Context, req SendReactionRequest, _ *mono.Msg) (SendReactionResponse, error) {
	if req.Emoji == "" {
		return SendReactionResponse{Accepted: false}, nil
	}
	name, ok := m.registry.MemberName(req.RoomCode, req.UserID)
	if !ok {
		return SendReactionResponse{Accepted: false}, nil
	}
	if m.eventBus != nil {
		if err := events.ReactionSentV1.Publish(m.eventBus, events.ReactionSentEvent{
			RoomCode: req.RoomCode,
			Emoji:    clampRunes(req.Emoji, 16),
			From:     name,
		}, nil); err != nil {
			log.Printf("[room] Warning: failed to publish ReactionSent event: %v", err)
		}
	}
	return SendReactionResponse{Accepted: true}, nil
}

// getRoom handles the get-room service request.
func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	info, ok := m.registry.RoomInfo(req.RoomCode)
	if !ok {
		return GetRoomResponse{Found: false}, nil
	}
	return *info, nil
}
