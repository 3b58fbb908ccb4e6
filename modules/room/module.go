package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/watch-together/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module is the room synchronization engine: the authoritative registry of
// live rooms, the host-authority playback relay, the queue/request workflow,
// and the chat/presence layer. Other modules reach it through request/reply
// services; everything it fans out to members travels as events consumed by
// the broadcast module.
type Module struct {
	registry     *Registry
	eventBus     mono.EventBus
	advanceDelay time.Duration
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates the room engine module.
func NewModule() *Module {
	return &Module{
		registry:     NewRegistry(),
		advanceDelay: autoAdvanceDelay,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "room"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PlaybackCommandV1.ToBase(),
		events.QueueUpdatedV1.ToBase(),
		events.RequestsUpdatedV1.ToBase(),
		events.PresenceUpdatedV1.ToBase(),
		events.HostTransferredV1.ToBase(),
		events.MemberJoinedV1.ToBase(),
		events.MessagePostedV1.ToBase(),
		events.ReactionSentV1.ToBase(),
	}
}

// RegisterServices registers the engine's request/reply services, one per
// caller command.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		return nil
	}

	if err := register("create-room", helper.RegisterTypedRequestReplyService(
		container, "create-room", json.Unmarshal, json.Marshal, m.createRoom,
	)); err != nil {
		return err
	}
	if err := register("join-room", helper.RegisterTypedRequestReplyService(
		container, "join-room", json.Unmarshal, json.Marshal, m.joinRoom,
	)); err != nil {
		return err
	}
	if err := register("leave-room", helper.RegisterTypedRequestReplyService(
		container, "leave-room", json.Unmarshal, json.Marshal, m.leaveRoom,
	)); err != nil {
		return err
	}
	if err := register("playback-command", helper.RegisterTypedRequestReplyService(
		container, "playback-command", json.Unmarshal, json.Marshal, m.playbackCommand,
	)); err != nil {
		return err
	}
	if err := register("queue-add", helper.RegisterTypedRequestReplyService(
		container, "queue-add", json.Unmarshal, json.Marshal, m.queueAdd,
	)); err != nil {
		return err
	}
	if err := register("queue-remove", helper.RegisterTypedRequestReplyService(
		container, "queue-remove", json.Unmarshal, json.Marshal, m.queueRemove,
	)); err != nil {
		return err
	}
	if err := register("request-track", helper.RegisterTypedRequestReplyService(
		container, "request-track", json.Unmarshal, json.Marshal, m.requestTrack,
	)); err != nil {
		return err
	}
	if err := register("approve-request", helper.RegisterTypedRequestReplyService(
		container, "approve-request", json.Unmarshal, json.Marshal, m.approveRequest,
	)); err != nil {
		return err
	}
	if err := register("reject-request", helper.RegisterTypedRequestReplyService(
		container, "reject-request", json.Unmarshal, json.Marshal, m.rejectRequest,
	)); err != nil {
		return err
	}
	if err := register("send-message", helper.RegisterTypedRequestReplyService(
		container, "send-message", json.Unmarshal, json.Marshal, m.sendMessage,
	)); err != nil {
		return err
	}
	if err := register("send-reaction", helper.RegisterTypedRequestReplyService(
		container, "send-reaction", json.Unmarshal, json.Marshal, m.sendReaction,
	)); err != nil {
		return err
	}
	if err := register("get-room", helper.RegisterTypedRequestReplyService(
		container, "get-room", json.Unmarshal, json.Marshal, m.getRoom,
	)); err != nil {
		return err
	}

	log.Printf("[room] Registered services: create-room, join-room, leave-room, playback-command, queue-add, queue-remove, request-track, approve-request, reject-request, send-message, send-reaction, get-room")
	return nil
}

// Start initializes the room module.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		log.Println("[room] Warning: eventBus not set, broadcasts will not be published")
	}
	log.Println("[room] Module started")
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[room] Module stopped - %d rooms were live", m.registry.RoomCount())
	return nil
}

// Registry exposes the engine state for in-process inspection.
func (m *Module) Registry() *Registry {
	return m.registry
}
