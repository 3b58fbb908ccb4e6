package broadcast

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/watch-together/domain/room"
	"github.com/example/watch-together/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// BroadcastModule is an EventConsumerModule that fans room engine events out
// to connected WebSocket clients.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait() // Wait for hub to finish
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.PlaybackCommandV1, m.handlePlaybackCommand, m,
	); err != nil {
		return fmt.Errorf("failed to register PlaybackCommand consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.QueueUpdatedV1, m.handleQueueUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register QueueUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RequestsUpdatedV1, m.handleRequestsUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register RequestsUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PresenceUpdatedV1, m.handlePresenceUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register PresenceUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.HostTransferredV1, m.handleHostTransferred, m,
	); err != nil {
		return fmt.Errorf("failed to register HostTransferred consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberJoinedV1, m.handleMemberJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessagePostedV1, m.handleMessagePosted, m,
	); err != nil {
		return fmt.Errorf("failed to register MessagePosted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ReactionSentV1, m.handleReactionSent, m,
	); err != nil {
		return fmt.Errorf("failed to register ReactionSent consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: PlaybackCommand, QueueUpdated, RequestsUpdated, PresenceUpdated, HostTransferred, MemberJoined, MessagePosted, ReactionSent")
	return nil
}

// Event handlers

// handlePlaybackCommand relays a playback frame. The event's action is the
// frame type, so hosts and guests share one player protocol. The sender, if
// named, is excluded; engine-originated frames reach everyone.
func (m *BroadcastModule) handlePlaybackCommand(_ context.Context, event events.PlaybackCommandEvent, _ *mono.Msg) error {
	payload := WSPlayback{
		Type:  event.Action,
		Track: event.Track,
		Time:  event.Position,
	}
	if event.ExcludeUserID != "" {
		m.hub.BroadcastExcept(event.RoomCode, event.ExcludeUserID, payload)
	} else {
		m.hub.Broadcast(event.RoomCode, payload)
	}
	return nil
}

func (m *BroadcastModule) handleQueueUpdated(_ context.Context, event events.QueueUpdatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, WSQueueUpdate{
		Type:  "queue_update",
		Queue: event.Queue,
	})
	return nil
}

func (m *BroadcastModule) handleRequestsUpdated(_ context.Context, event events.RequestsUpdatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, WSRequestsUpdate{
		Type:     "requests_update",
		Requests: event.Requests,
	})
	return nil
}

func (m *BroadcastModule) handlePresenceUpdated(_ context.Context, event events.PresenceUpdatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, WSPresence{
		Type:    "presence",
		Members: event.Members,
	})
	return nil
}

// handleHostTransferred notifies only the promoted member; everyone else
// learns of the change from the presence update that follows.
func (m *BroadcastModule) handleHostTransferred(_ context.Context, event events.HostTransferredEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Notifying new host %s of room %s", event.NewHostName, event.RoomCode)
	m.hub.SendToUser(event.RoomCode, event.NewHostID, WSHostTransferred{
		Type:     "host_transferred",
		RoomCode: event.RoomCode,
	})
	return nil
}

func (m *BroadcastModule) handleMemberJoined(_ context.Context, event events.MemberJoinedEvent, _ *mono.Msg) error {
	m.hub.BroadcastExcept(event.RoomCode, event.UserID, WSUserJoined{
		Type:   "user_joined",
		UserID: event.UserID,
		Name:   event.Name,
	})
	return nil
}

func (m *BroadcastModule) handleMessagePosted(_ context.Context, event events.MessagePostedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, WSChatMessage{
		Type:    "chat_message",
		Message: event.Message,
	})
	return nil
}

func (m *BroadcastModule) handleReactionSent(_ context.Context, event events.ReactionSentEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, WSReaction{
		Type:  "reaction",
		Emoji: event.Emoji,
		From:  event.From,
	})
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

// WSPlayback is a playback frame. Type is the playback action itself;
// Time is always present so play(0) is unambiguous.
type WSPlayback struct {
	Type  string        `json:"type"`
	Track *domain.Track `json:"track,omitempty"`
	Time  float64       `json:"time"`
}

// WSQueueUpdate carries the full queue after any mutation.
type WSQueueUpdate struct {
	Type  string         `json:"type"`
	Queue []domain.Track `json:"queue"`
}

// WSRequestsUpdate carries the full pending-request list.
type WSRequestsUpdate struct {
	Type     string                `json:"type"`
	Requests []domain.TrackRequest `json:"requests"`
}

// WSPresence carries the full member list after any membership change.
type WSPresence struct {
	Type    string          `json:"type"`
	Members []domain.Member `json:"members"`
}

// WSHostTransferred tells one client it is now the host.
type WSHostTransferred struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
}

// WSUserJoined announces a new member to the rest of the room.
type WSUserJoined struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// WSChatMessage carries a single new chat entry.
type WSChatMessage struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

// WSReaction is a stateless reaction frame.
type WSReaction struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
	From  string `json:"from"`
}
