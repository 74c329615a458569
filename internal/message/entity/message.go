package entity

import "time"

// Message is a guestbook entry. Private entries are readable by their owner
// only.
type Message struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Body      string    `json:"message"`
	Private   bool      `json:"private"`
	CreatedAt time.Time `json:"created_at"`
}

// Upvote records one user's vote on one message. At most one per
// (user, message) pair, never on the voter's own message.
type Upvote struct {
	ID        int64
	MessageID int64
	UserID    int64
}

// TopMessage is a row of the top_messages view.
type TopMessage struct {
	ID      int64  `json:"id"`
	Body    string `json:"message"`
	Upvotes int64  `json:"n_upvotes"`
}
