package chat

import "time"

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Turn is one immutable message of a conversation.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Failed    bool      `json:"failed,omitempty"` // placeholder written after a failed completion
	CreatedAt time.Time `json:"createdAt"`
}
