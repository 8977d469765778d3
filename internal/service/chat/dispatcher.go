package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
)

var (
	ErrEmptyInput      = errors.New("message text is empty")
	ErrSendInFlight    = errors.New("a reply is still pending for this session")
	ErrProfileNotFound = errors.New("profile not found")
)

// SendPolicy decides what happens to a send while another one is pending.
type SendPolicy string

const (
	// PolicyReject fails overlapping sends with ErrSendInFlight.
	PolicyReject SendPolicy = "reject"
	// PolicyQueue runs overlapping sends one after another in arrival order.
	PolicyQueue SendPolicy = "queue"
)

// ParseSendPolicy validates a policy name. Empty selects PolicyReject.
func ParseSendPolicy(raw string) (SendPolicy, error) {
	switch SendPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyQueue:
		return PolicyQueue, nil
	default:
		return "", fmt.Errorf("unknown send policy %q", raw)
	}
}

// Completer produces the assistant reply for a user turn.
type Completer interface {
	Complete(ctx context.Context, p profile.Profile, history []chat.Turn, text string) (string, error)
}

// SendResult holds the two turns appended by a successful Send.
type SendResult struct {
	User  chat.Turn `json:"user"`
	Reply chat.Turn `json:"reply"`
}

// Dispatcher runs the send flow: append the user turn, request a completion,
// append the reply. At most one completion is in flight per session.
type Dispatcher struct {
	chat      *Service
	profiles  profile.Store
	completer Completer
	policy    SendPolicy

	mu       sync.Mutex
	inFlight map[string]bool
	slots    map[string]chan struct{}
}

// NewDispatcher wires the send flow to its collaborators.
func NewDispatcher(chatSvc *Service, profiles profile.Store, completer Completer, policy SendPolicy) *Dispatcher {
	if policy == "" {
		policy = PolicyReject
	}
	return &Dispatcher{
		chat:      chatSvc,
		profiles:  profiles,
		completer: completer,
		policy:    policy,
		inFlight:  make(map[string]bool),
		slots:     make(map[string]chan struct{}),
	}
}

// Policy reports the configured overlap policy.
func (d *Dispatcher) Policy() SendPolicy {
	return d.policy
}

// Send appends text as a user turn and then exactly one assistant turn.
// Completion failures never surface: the profile's error text is appended
// instead. Returned errors only describe why nothing was appended.
func (d *Dispatcher) Send(ctx context.Context, sessionID, text string) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrEmptyInput
	}

	session, err := d.chat.GetSession(ctx, sessionID)
	if err != nil {
		return SendResult{}, err
	}
	prof, ok := d.profiles.FindByID(session.ProfileID)
	if !ok {
		return SendResult{}, fmt.Errorf("%w: %s", ErrProfileNotFound, session.ProfileID)
	}

	release, err := d.acquire(ctx, sessionID)
	if err != nil {
		return SendResult{}, err
	}
	defer release()

	transcript, err := d.chat.LoadTranscript(ctx, sessionID)
	if err != nil {
		return SendResult{}, err
	}

	userTurn, err := d.chat.AppendTurn(ctx, chat.Turn{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Text:      text,
	})
	if err != nil {
		return SendResult{}, err
	}

	// Once the user turn is stored the reply must follow, even if the caller
	// goes away.
	callCtx := context.WithoutCancel(ctx)

	reply := chat.Turn{SessionID: sessionID, Sender: chat.SenderAssistant}
	content, err := d.completer.Complete(callCtx, prof, contextTurns(transcript), text)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.New("completion returned empty text")
	}
	if err != nil {
		log.Printf("[chat] completion failed session=%s profile=%s: %v", sessionID, prof.ID, err)
		reply.Text = prof.ErrorText
		reply.Failed = true
	} else {
		reply.Text = content
	}

	stored, err := d.chat.AppendTurn(callCtx, reply)
	if err != nil {
		return SendResult{}, fmt.Errorf("append reply: %w", err)
	}

	return SendResult{User: userTurn, Reply: stored}, nil
}

func (d *Dispatcher) acquire(ctx context.Context, sessionID string) (func(), error) {
	if d.policy == PolicyQueue {
		d.mu.Lock()
		slot, ok := d.slots[sessionID]
		if !ok {
			slot = make(chan struct{}, 1)
			d.slots[sessionID] = slot
		}
		d.mu.Unlock()

		// Blocked channel senders are woken in FIFO order.
		select {
		case slot <- struct{}{}:
			return func() { <-slot }, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[sessionID] {
		return nil, ErrSendInFlight
	}
	d.inFlight[sessionID] = true
	return func() {
		d.mu.Lock()
		delete(d.inFlight, sessionID)
		d.mu.Unlock()
	}, nil
}

// contextTurns drops failure placeholders, which were never model output.
func contextTurns(turns []chat.Turn) []chat.Turn {
	out := make([]chat.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Failed {
			continue
		}
		out = append(out, turn)
	}
	return out
}
