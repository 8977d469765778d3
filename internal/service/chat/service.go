package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnNotFound    = errors.New("turn not found")
	ErrEmptyText       = errors.New("turn text is empty")
	ErrInvalidSender   = errors.New("invalid sender")
)

const subscriberBuffer = 16

// Event announces a turn appended to a session.
type Event struct {
	SessionID string    `json:"sessionId"`
	Turn      chat.Turn `json:"turn"`
}

// Service encapsulates conversation state management. Conversations are
// append-only: there is no operation that edits, reorders or removes a turn.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	turns    map[string][]chat.Turn

	subMu       sync.Mutex
	subscribers map[string]map[int]chan Event
	nextSubID   int
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions:    make(map[string]chat.Session),
		turns:       make(map[string][]chat.Turn),
		subscribers: make(map[string]map[int]chan Event),
	}
}

// CreateSession provisions an anonymous session bound to a profile.
func (s *Service) CreateSession(_ context.Context, profileID string) (chat.Session, error) {
	if profileID == "" {
		return chat.Session{}, ErrProfileRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]chat.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// AppendTurn appends a turn to the session history and returns the stored
// copy with its identifier and timestamp filled in.
func (s *Service) AppendTurn(_ context.Context, turn chat.Turn) (chat.Turn, error) {
	if turn.SessionID == "" {
		return chat.Turn{}, ErrSessionNotFound
	}
	if !turn.Sender.Valid() {
		return chat.Turn{}, ErrInvalidSender
	}
	if strings.TrimSpace(turn.Text) == "" {
		return chat.Turn{}, ErrEmptyText
	}

	s.mu.Lock()
	if _, ok := s.sessions[turn.SessionID]; !ok {
		s.mu.Unlock()
		return chat.Turn{}, ErrSessionNotFound
	}

	turn.ID = uuid.NewString()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	s.mu.Unlock()

	s.publish(Event{SessionID: turn.SessionID, Turn: turn})
	return turn, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored turns for the provided session in append order.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// FindTurn returns a single turn of a session.
func (s *Service) FindTurn(_ context.Context, sessionID, turnID string) (chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return chat.Turn{}, ErrSessionNotFound
	}
	for _, turn := range turns {
		if turn.ID == turnID {
			return turn, nil
		}
	}
	return chat.Turn{}, ErrTurnNotFound
}

// Subscribe registers for append events of one session. The returned cancel
// func must be called to release the subscription; it closes the channel.
// Events are dropped for subscribers that fall behind.
func (s *Service) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.subscribers[sessionID] == nil {
		s.subscribers[sessionID] = make(map[int]chan Event)
	}
	s.subscribers[sessionID][id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers[sessionID], id)
			if len(s.subscribers[sessionID]) == 0 {
				delete(s.subscribers, sessionID)
			}
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publish(event Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}
