package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/watch-together/modules/broadcast"
	"github.com/example/watch-together/modules/room"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxFrameSize bounds a single inbound WS frame. Commands are small; anything
// bigger is garbage.
const maxFrameSize = 64 * 1024

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket, websocket.Config{
		Origins: m.origins,
	}))

	// REST API v1
	api := m.app.Group("/api/v1")

	// Room lookup, for "does this code exist" checks before connecting
	api.Get("/rooms/:code", m.getRoom)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// getRoom handles GET /api/v1/rooms/:code.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	resp, err := m.roomAdapter.GetRoom(c.UserContext(), room.GetRoomRequest{
		RoomCode: c.Params("code"),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to look up room",
		})
	}
	if !resp.Found {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	return c.JSON(RoomResponse{
		RoomCode: resp.RoomCode,
		Members:  resp.Members,
		HasTrack: resp.HasTrack,
	})
}

// handleWebSocket handles WebSocket connections at /ws. The connection ID is
// the user's identity for as long as the socket lives; there is no reconnect.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()
	client := broadcast.NewClient(clientID, c)
	c.SetReadLimit(maxFrameSize)

	// Register client with the hub
	m.hub.Register(client)
	defer func() {
		_, _ = m.roomAdapter.LeaveRoom(context.Background(), room.LeaveRoomRequest{
			UserID: clientID,
		})
		m.hub.LeaveRoom(clientID)
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s", clientID)
	}()

	log.Printf("[api] WebSocket client connected: %s", clientID)

	// Send welcome message
	client.Send(WSConnected{
		Type:   "connected",
		UserID: clientID,
	})

	// Message loop
	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", clientID)
			} else {
				log.Printf("[api] Read error from %s: %v", clientID, err)
			}
			break
		}

		var cmd WSCommand
		if err := json.Unmarshal(msgBytes, &cmd); err != nil {
			m.sendError(client, "Invalid message format")
			continue
		}

		// Handle command based on type
		switch cmd.Type {
		case cmdCreateRoom:
			m.handleCreateRoom(client, cmd)
		case cmdJoinRoom:
			m.handleJoinRoom(client, cmd)
		case cmdLeaveRoom:
			m.handleLeaveRoom(client)
		case cmdLoadTrack, cmdPlay, cmdPause, cmdSeek, cmdTrackEnded:
			m.handlePlayback(client, cmd)
		case cmdAddToQueue:
			m.handleAddToQueue(client, cmd)
		case cmdRemoveFromQueue:
			m.handleRemoveFromQueue(client, cmd)
		case cmdRequestTrack:
			m.handleRequestTrack(client, cmd)
		case cmdApproveRequest:
			m.handleApproveRequest(client, cmd)
		case cmdRejectRequest:
			m.handleRejectRequest(client, cmd)
		case cmdSendMessage:
			m.handleSendMessage(client, cmd)
		case cmdSendReaction:
			m.handleSendReaction(client, cmd)
		default:
			m.sendError(client, "Unknown message type: "+cmd.Type)
		}
	}
}

func (m *APIModule) handleCreateRoom(client *broadcast.Client, cmd WSCommand) {
	resp, err := m.roomAdapter.CreateRoom(context.Background(), room.CreateRoomRequest{
		UserID:      client.ID,
		DisplayName: cmd.Name,
	})
	if err != nil {
		m.sendError(client, "Failed to create room")
		return
	}

	m.hub.JoinRoom(client.ID, resp.RoomCode)
	client.Name = resp.DisplayName

	client.Send(WSRoomCreated{
		Type:     "room_created",
		RoomCode: resp.RoomCode,
		Name:     resp.DisplayName,
		Members:  resp.Members,
	})
}

func (m *APIModule) handleJoinRoom(client *broadcast.Client, cmd WSCommand) {
	if cmd.RoomCode == "" {
		m.sendError(client, "Room code is required")
		return
	}

	resp, err := m.roomAdapter.JoinRoom(context.Background(), room.JoinRoomRequest{
		RoomCode:    cmd.RoomCode,
		UserID:      client.ID,
		DisplayName: cmd.Name,
	})
	if err != nil {
		m.sendError(client, "Failed to join room")
		return
	}
	if !resp.Success {
		client.Send(WSJoinFailed{
			Type:   "join_failed",
			Reason: resp.Reason,
		})
		return
	}

	m.hub.JoinRoom(client.ID, resp.RoomCode)
	client.Name = resp.DisplayName

	client.Send(WSRoomJoined{
		Type:            "room_joined",
		RoomCode:        resp.RoomCode,
		Name:            resp.DisplayName,
		CurrentTrack:    resp.CurrentTrack,
		Queue:           resp.Queue,
		ChatHistory:     resp.ChatHistory,
		PendingRequests: resp.PendingRequests,
		Members:         resp.Members,
	})
}

func (m *APIModule) handleLeaveRoom(client *broadcast.Client) {
	if client.RoomCode == "" {
		m.sendError(client, "Not in a room")
		return
	}

	_, _ = m.roomAdapter.LeaveRoom(context.Background(), room.LeaveRoomRequest{
		UserID: client.ID,
	})
	m.hub.LeaveRoom(client.ID)

	client.Send(WSRoomLeft{Type: "room_left"})
}

// handlePlayback forwards a playback command. Rejections are deliberately
// silent: a guest sending play, or a command racing room teardown, is not an
// error worth a frame.
func (m *APIModule) handlePlayback(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" {
		return
	}
	_, _ = m.roomAdapter.Playback(context.Background(), room.PlaybackCommandRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Action:   cmd.Type,
		Track:    cmd.Track,
		Position: cmd.Time,
	})
}

func (m *APIModule) handleAddToQueue(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Track == nil {
		return
	}
	_, _ = m.roomAdapter.QueueAdd(context.Background(), room.QueueAddRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Track:    *cmd.Track,
	})
}

func (m *APIModule) handleRemoveFromQueue(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Index == nil {
		return
	}
	_, _ = m.roomAdapter.QueueRemove(context.Background(), room.QueueRemoveRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Index:    *cmd.Index,
	})
}

func (m *APIModule) handleRequestTrack(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Track == nil {
		return
	}
	_, _ = m.roomAdapter.RequestTrack(context.Background(), room.RequestTrackRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Track:    *cmd.Track,
	})
}

func (m *APIModule) handleApproveRequest(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Index == nil {
		return
	}
	_, _ = m.roomAdapter.ApproveRequest(context.Background(), room.ApproveRequestRequest{
		RoomCode:   client.RoomCode,
		UserID:     client.ID,
		Index:      *cmd.Index,
		AddToQueue: cmd.AddToQueue,
	})
}

func (m *APIModule) handleRejectRequest(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Index == nil {
		return
	}
	_, _ = m.roomAdapter.RejectRequest(context.Background(), room.RejectRequestRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Index:    *cmd.Index,
	})
}

func (m *APIModule) handleSendMessage(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" {
		m.sendError(client, "Join a room first")
		return
	}
	if cmd.Text == "" {
		m.sendError(client, "Message text is required")
		return
	}
	_, _ = m.roomAdapter.SendMessage(context.Background(), room.SendMessageRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Text:     cmd.Text,
	})
}

func (m *APIModule) handleSendReaction(client *broadcast.Client, cmd WSCommand) {
	if client.RoomCode == "" || cmd.Emoji == "" {
		return
	}
	_, _ = m.roomAdapter.SendReaction(context.Background(), room.SendReactionRequest{
		RoomCode: client.RoomCode,
		UserID:   client.ID,
		Emoji:    cmd.Emoji,
	})
}

func (m *APIModule) sendError(client *broadcast.Client, message string) {
	client.Send(WSError{
		Type:  "error",
		Error: message,
	})
}
