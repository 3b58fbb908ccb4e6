package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// sendQueueSize is the per-client outbound buffer. A client that cannot
// drain it fast enough loses frames rather than stalling the room.
const sendQueueSize = 64

// Client represents a connected WebSocket client. ID doubles as the user
// identity inside the room engine.
type Client struct {
	ID       string
	Name     string
	RoomCode string
	Conn     *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient wraps a WebSocket connection for hub registration.
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

// writeLoop drains the client's send queue onto the socket. It exits when
// the queue is closed during unregister or shutdown.
func (c *Client) writeLoop() {
	for data := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[hub] Failed to send to client %s: %v", c.ID, err)
			return
		}
	}
}

// Send queues a payload for delivery to this client. Direct replies go
// through the same queue as broadcasts so the socket has a single writer.
func (c *Client) Send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal reply for client %s: %v", c.ID, err)
		return
	}
	if !c.enqueue(data) {
		log.Printf("[hub] Dropping reply for client %s", c.ID)
	}
}

// enqueue adds a frame to the send queue unless the client is closed or the
// queue is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// Hub manages WebSocket connections and fans room events out to members.
// Registration is synchronous so a client can act on the hub the moment
// Register returns; only fan-out goes through the broadcast loop.
type Hub struct {
	clients   map[string]*Client         // clientID -> Client
	rooms     map[string]map[string]bool // room code -> set of clientIDs
	broadcast chan *BroadcastMessage
	done      chan struct{}
	mu        sync.RWMutex
}

// BroadcastMessage represents a message to fan out. ExcludeID skips one
// client (the sender of the command that produced the event); TargetID
// restricts delivery to a single client. At most one of the two is set.
type BroadcastMessage struct {
	RoomCode  string
	ExcludeID string
	TargetID  string
	Payload   any
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]bool),
		broadcast: make(chan *BroadcastMessage, 256),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if client.RoomCode != "" {
		if h.rooms[client.RoomCode] == nil {
			h.rooms[client.RoomCode] = make(map[string]bool)
		}
		h.rooms[client.RoomCode][client.ID] = true
	}
	if client.Conn != nil {
		go client.writeLoop()
	}
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		if client.RoomCode != "" && h.rooms[client.RoomCode] != nil {
			delete(h.rooms[client.RoomCode], client.ID)
			if len(h.rooms[client.RoomCode]) == 0 {
				delete(h.rooms, client.RoomCode)
			}
		}
		client.close()
		log.Printf("[hub] Client %s unregistered", client.ID)
	}
}

func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast message: %v", err)
		return
	}

	if msg.TargetID != "" {
		if client, ok := h.clients[msg.TargetID]; ok && client.RoomCode == msg.RoomCode {
			h.sendToClient(client, data)
		}
		return
	}

	clientIDs, ok := h.rooms[msg.RoomCode]
	if !ok {
		return
	}
	for clientID := range clientIDs {
		if clientID == msg.ExcludeID {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if !client.enqueue(data) {
		log.Printf("[hub] Send queue full, dropping frame for client %s", client.ID)
	}
}

// Register adds a client to the hub. It completes before returning, so the
// caller can join rooms immediately.
func (h *Hub) Register(client *Client) {
	h.handleRegister(client)
}

// Unregister removes a client from the hub and closes it.
func (h *Hub) Unregister(client *Client) {
	h.handleUnregister(client)
}

// Broadcast sends a payload to every client in a room.
func (h *Hub) Broadcast(roomCode string, payload any) {
	h.broadcast <- &BroadcastMessage{
		RoomCode: roomCode,
		Payload:  payload,
	}
}

// BroadcastExcept sends a payload to every client in a room except one.
func (h *Hub) BroadcastExcept(roomCode, excludeID string, payload any) {
	h.broadcast <- &BroadcastMessage{
		RoomCode:  roomCode,
		ExcludeID: excludeID,
		Payload:   payload,
	}
}

// SendToUser sends a payload to a single client in a room.
func (h *Hub) SendToUser(roomCode, targetID string, payload any) {
	h.broadcast <- &BroadcastMessage{
		RoomCode: roomCode,
		TargetID: targetID,
		Payload:  payload,
	}
}

// JoinRoom moves a client to a specific room.
func (h *Hub) JoinRoom(clientID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	// Leave old room if any
	if client.RoomCode != "" && h.rooms[client.RoomCode] != nil {
		delete(h.rooms[client.RoomCode], clientID)
		if len(h.rooms[client.RoomCode]) == 0 {
			delete(h.rooms, client.RoomCode)
		}
	}

	// Join new room
	client.RoomCode = roomCode
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]bool)
	}
	h.rooms[roomCode][clientID] = true
	log.Printf("[hub] Client %s joined room %s", clientID, roomCode)
}

// LeaveRoom removes a client from their current room.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.RoomCode == "" {
		return
	}

	if h.rooms[client.RoomCode] != nil {
		delete(h.rooms[client.RoomCode], clientID)
		if len(h.rooms[client.RoomCode]) == 0 {
			delete(h.rooms, client.RoomCode)
		}
	}
	log.Printf("[hub] Client %s left room %s", clientID, client.RoomCode)
	client.RoomCode = ""
}

// GetClient returns a client by ID.
func (h *Hub) GetClient(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomCode]; ok {
		return len(clients)
	}
	return 0
}
