package room

import "time"

// Track is the unit of shared media: an external identifier plus display
// metadata. The engine never resolves or fetches the media itself.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

// TrackRequest is a guest-submitted track awaiting host approval.
type TrackRequest struct {
	Track       Track  `json:"track"`
	RequestedBy string `json:"requested_by"`
}

// ChatMessage is a single entry in a room's bounded chat history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Member is one entry of a room's presence view.
type Member struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}
