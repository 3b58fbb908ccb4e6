package room

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"

	domain "github.com/example/watch-together/domain/room"
	"github.com/google/uuid"
)

// codeAlphabet is the room-code character set: exactly four uppercase ASCII
// letters, uniform random, retried on collision.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateRoomCode draws RoomCodeLength uniform random letters from
// codeAlphabet.
func generateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))

	for i := 0; i < RoomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// rand.Int fails only when the entropy source is broken.
			panic("room: code generator: " + err.Error())
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

// Registry owns every live room. Membership changes (create/join/leave) are
// serialized through the registry lock; all other room mutations take only
// the per-room lock, so commands against different rooms never serialize
// against each other.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*liveRoom
	byUser  map[string]string // userID -> room code (at most one room per identity)
	newCode func() string
}

// liveRoom is the mutable aggregate behind one room code. Field access
// requires holding mu. gone marks a room deleted from the registry so a
// caller holding a stale pointer cannot resurrect it.
type liveRoom struct {
	mu       sync.Mutex
	code     string
	hostID   string
	order    []string          // member IDs in join order
	names    map[string]string // member ID -> display name
	track    *domain.Track
	queue    []domain.Track
	requests []domain.TrackRequest
	chat     []domain.ChatMessage
	gone     bool
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*liveRoom),
		byUser:  make(map[string]string),
		newCode: generateRoomCode,
	}
}

// JoinSnapshot is the full room state handed to a joining member.
type JoinSnapshot struct {
	Code     string
	Name     string
	Track    *domain.Track
	Queue    []domain.Track
	Chat     []domain.ChatMessage
	Requests []domain.TrackRequest
	Members  []domain.Member
}

// Departure describes the outcome of removing an identity from its room.
type Departure struct {
	Code        string
	RoomClosed  bool
	NewHostID   string // non-empty iff the host role moved
	NewHostName string
	Members     []domain.Member
}

// Create makes a new room with the caller as sole member and host, and
// returns its code. The code is unique among live rooms; generation retries
// on collision. The returned Departure is non-nil when the caller implicitly
// left another room; its membership events still need to be broadcast there.
func (r *Registry) Create(userID, displayName string) (string, []domain.Member, *Departure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// An identity joins at most one room; drop any stale membership first.
	prior, _ := r.removeLocked(userID)

	code := r.newCode()
	for _, taken := r.rooms[code]; taken; _, taken = r.rooms[code] {
		code = r.newCode()
	}

	rm := &liveRoom{
		code:     code,
		hostID:   userID,
		order:    []string{userID},
		names:    map[string]string{userID: displayName},
		queue:    make([]domain.Track, 0),
		requests: make([]domain.TrackRequest, 0),
	}
	r.rooms[code] = rm
	r.byUser[userID] = code
	return code, rm.membersLocked(), prior
}

// Join adds an identity to the room addressed by code (case-insensitive).
// It returns false with no side effect when the code does not name a live
// room. The returned Departure is non-nil when the caller implicitly left
// another room first.
func (r *Registry) Join(code, userID, displayName string) (*JoinSnapshot, *Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, nil, false
	}

	prior, _ := r.removeLocked(userID)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	// A sole member rejoining its own room closes it during removeLocked.
	if rm.gone {
		return nil, prior, false
	}
	if _, member := rm.names[userID]; !member {
		rm.order = append(rm.order, userID)
	}
	rm.names[userID] = displayName
	r.byUser[userID] = rm.code

	return &JoinSnapshot{
		Code:     rm.code,
		Name:     displayName,
		Track:    copyTrack(rm.track),
		Queue:    copyTracks(rm.queue),
		Chat:     copyChat(rm.chat),
		Requests: copyRequests(rm.requests),
		Members:  rm.membersLocked(),
	}, prior, true
}

// Leave removes an identity from whatever room it belongs to. An empty room
// is deleted immediately; a departing host hands the role to the first
// remaining member in join order.
func (r *Registry) Leave(userID string) (*Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(userID)
}

// removeLocked implements Leave under the registry lock.
func (r *Registry) removeLocked(userID string) (*Departure, bool) {
	code, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	rm := r.rooms[code]
	delete(r.byUser, userID)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.names, userID)
	for i, id := range rm.order {
		if id == userID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}

	if len(rm.order) == 0 {
		rm.gone = true
		delete(r.rooms, code)
		return &Departure{Code: code, RoomClosed: true}, true
	}

	dep := &Departure{Code: code}
	if rm.hostID == userID {
		rm.hostID = rm.order[0]
		dep.NewHostID = rm.hostID
		dep.NewHostName = rm.names[rm.hostID]
	}
	dep.Members = rm.membersLocked()
	return dep, true
}

// withRoom runs fn with the room locked. It returns false when the code does
// not name a live room, including rooms deleted between lookup and lock.
func (r *Registry) withRoom(code string, fn func(*liveRoom) bool) bool {
	r.mu.RLock()
	rm, ok := r.rooms[strings.ToUpper(code)]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.gone {
		return false
	}
	return fn(rm)
}

// IsHost reports whether userID currently hosts the named room.
func (r *Registry) IsHost(code, userID string) bool {
	return r.withRoom(code, func(rm *liveRoom) bool {
		return rm.hostID == userID
	})
}

// SetTrack replaces the room's current track (host only).
func (r *Registry) SetTrack(code, userID string, track domain.Track) bool {
	return r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		rm.track = &track
		return true
	})
}

// TrackEnded advances the queue after the host reports the current track
// finished. The returned track is nil when the queue was empty and the
// current track was simply cleared.
func (r *Registry) TrackEnded(code, userID string) (*domain.Track, bool) {
	var next *domain.Track
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		if len(rm.queue) == 0 {
			rm.track = nil
			return true
		}
		head := rm.queue[0]
		rm.queue = rm.queue[1:]
		rm.track = &head
		next = copyTrack(rm.track)
		return true
	})
	return next, ok
}

// CurrentTrack returns a copy of the room's current track.
func (r *Registry) CurrentTrack(code string) (*domain.Track, bool) {
	var track *domain.Track
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		track = copyTrack(rm.track)
		return true
	})
	return track, ok
}

// QueueAdd appends a track to the queue tail (host only) and returns the
// updated queue.
func (r *Registry) QueueAdd(code, userID string, track domain.Track) ([]domain.Track, bool) {
	var queue []domain.Track
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		rm.queue = append(rm.queue, track)
		queue = copyTracks(rm.queue)
		return true
	})
	return queue, ok
}

// QueueRemove removes the queue entry at index (host only). A stale index is
// a no-op reported as false, so no broadcast follows.
func (r *Registry) QueueRemove(code, userID string, index int) ([]domain.Track, bool) {
	var queue []domain.Track
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		if index < 0 || index >= len(rm.queue) {
			return false
		}
		rm.queue = append(rm.queue[:index], rm.queue[index+1:]...)
		queue = copyTracks(rm.queue)
		return true
	})
	return queue, ok
}

// RequestTrack appends a guest request to the pending list. A host
// submission is a no-op.
func (r *Registry) RequestTrack(code, userID string, track domain.Track) ([]domain.TrackRequest, bool) {
	var requests []domain.TrackRequest
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		name, member := rm.names[userID]
		if !member || rm.hostID == userID {
			return false
		}
		rm.requests = append(rm.requests, domain.TrackRequest{
			Track:       track,
			RequestedBy: name,
		})
		requests = copyRequests(rm.requests)
		return true
	})
	return requests, ok
}

// Approval is the outcome of approving a pending request.
type Approval struct {
	Track        domain.Track
	AddedToQueue bool
	Queue        []domain.Track
	Requests     []domain.TrackRequest
}

// ApproveRequest removes the pending request at index (host only). With
// addToQueue the track joins the queue tail; otherwise it becomes the
// current track and the queue is cleared.
func (r *Registry) ApproveRequest(code, userID string, index int, addToQueue bool) (*Approval, bool) {
	var approval *Approval
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		if index < 0 || index >= len(rm.requests) {
			return false
		}
		req := rm.requests[index]
		rm.requests = append(rm.requests[:index], rm.requests[index+1:]...)

		if addToQueue {
			rm.queue = append(rm.queue, req.Track)
		} else {
			track := req.Track
			rm.track = &track
			rm.queue = make([]domain.Track, 0)
		}

		approval = &Approval{
			Track:        req.Track,
			AddedToQueue: addToQueue,
			Queue:        copyTracks(rm.queue),
			Requests:     copyRequests(rm.requests),
		}
		return true
	})
	return approval, ok
}

// RejectRequest removes the pending request at index (host only) with no
// other side effect.
func (r *Registry) RejectRequest(code, userID string, index int) ([]domain.TrackRequest, bool) {
	var requests []domain.TrackRequest
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		if rm.hostID != userID {
			return false
		}
		if index < 0 || index >= len(rm.requests) {
			return false
		}
		rm.requests = append(rm.requests[:index], rm.requests[index+1:]...)
		requests = copyRequests(rm.requests)
		return true
	})
	return requests, ok
}

// AppendMessage adds a chat entry to the bounded history and returns it.
// Non-members and empty texts are dropped.
func (r *Registry) AppendMessage(code, userID, text string) (*domain.ChatMessage, bool) {
	var msg *domain.ChatMessage
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		name, member := rm.names[userID]
		if !member || text == "" {
			return false
		}
		entry := domain.ChatMessage{
			ID:        uuid.New().String(),
			Name:      name,
			Text:      clampRunes(text, MaxMessageLen),
			Timestamp: time.Now(),
		}
		rm.chat = append(rm.chat, entry)
		if len(rm.chat) > MaxChatHistory {
			rm.chat = rm.chat[len(rm.chat)-MaxChatHistory:]
		}
		msg = &entry
		return true
	})
	return msg, ok
}

// MemberName returns the display name of a current member.
func (r *Registry) MemberName(code, userID string) (string, bool) {
	var name string
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		n, member := rm.names[userID]
		name = n
		return member
	})
	return name, ok
}

// Members returns the room's presence view in join order.
func (r *Registry) Members(code string) ([]domain.Member, bool) {
	var members []domain.Member
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		members = rm.membersLocked()
		return true
	})
	return members, ok
}

// RoomInfo returns the public summary used by the REST surface.
func (r *Registry) RoomInfo(code string) (*GetRoomResponse, bool) {
	var info *GetRoomResponse
	ok := r.withRoom(code, func(rm *liveRoom) bool {
		info = &GetRoomResponse{
			Found:    true,
			RoomCode: rm.code,
			Members:  len(rm.order),
			HasTrack: rm.track != nil,
		}
		return true
	})
	return info, ok
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// membersLocked derives the presence view. Caller holds rm.mu (or the room
// is not yet published).
func (rm *liveRoom) membersLocked() []domain.Member {
	members := make([]domain.Member, 0, len(rm.order))
	for _, id := range rm.order {
		members = append(members, domain.Member{
			UserID: id,
			Name:   rm.names[id],
			IsHost: id == rm.hostID,
		})
	}
	return members
}

func copyTrack(t *domain.Track) *domain.Track {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyTracks(tracks []domain.Track) []domain.Track {
	out := make([]domain.Track, len(tracks))
	copy(out, tracks)
	return out
}

func copyRequests(requests []domain.TrackRequest) []domain.TrackRequest {
	out := make([]domain.TrackRequest, len(requests))
	copy(out, requests)
	return out
}

func copyChat(chat []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(chat))
	copy(out, chat)
	return out
}
