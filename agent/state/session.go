package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// SessionState is the persistent source of truth for one conversation.
// - History is append-only; its order is the transcript and the prompt context.
// - PendingAction != nil <=> AwaitingConfirmation, after every mutation.
type SessionState struct {
	// Identity
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	History []contractx.Turn `json:"history,omitempty"`
	Domain  contractx.Domain `json:"domain,omitempty"`

	PendingAction        *contractx.PendingAction `json:"pending_action,omitempty"`
	AwaitingConfirmation bool                     `json:"awaiting_confirmation"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvariant        = errors.New("session state invariant violated")
	ErrNilPendingAction = errors.New("pending action is nil")
	ErrPendingExists    = errors.New("a confirmation is already pending")
)

func NewSessionState(sessionID, userID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

/* ----------------------------- Transcript ----------------------------- */

// AppendTurn adds a turn to the end of the history.
func (s *SessionState) AppendTurn(role contractx.Role, content string, now time.Time) {
	s.History = append(s.History, contractx.Turn{
		Role:    role,
		Content: content,
		At:      now.UTC(),
	})
	s.Touch(now)
}

// AppendExchange records a user message and the assistant reply as one turn.
func (s *SessionState) AppendExchange(userMessage, reply string, now time.Time) {
	s.History = append(s.History, contractx.Turn{
		Role:        contractx.RoleAssistant,
		Content:     reply,
		UserMessage: userMessage,
		At:          now.UTC(),
	})
	s.Touch(now)
}

// RecentHistory returns at most n trailing turns.
func (s *SessionState) RecentHistory(n int) []contractx.Turn {
	if s == nil || n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]contractx.Turn, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}

/* --------------------------- Pending action --------------------------- */

func (s *SessionState) HasPending() bool {
	return s != nil && s.PendingAction != nil
}

// SetPending attaches a pending action. Only one action may be outstanding.
func (s *SessionState) SetPending(p *contractx.PendingAction, now time.Time) error {
	if s == nil {
		return errors.New("nil session state")
	}
	if p == nil {
		return ErrNilPendingAction
	}
	if s.PendingAction != nil {
		return ErrPendingExists
	}
	s.PendingAction = p
	s.AwaitingConfirmation = true
	s.Touch(now)
	return nil
}

// ClearPending drops the pending action and returns it.
func (s *SessionState) ClearPending(now time.Time) *contractx.PendingAction {
	if s == nil {
		return nil
	}
	p := s.PendingAction
	s.PendingAction = nil
	s.AwaitingConfirmation = false
	s.Touch(now)
	return p
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if (s.PendingAction != nil) != s.AwaitingConfirmation {
		return fmt.Errorf("%w: pending_action=%t awaiting_confirmation=%t",
			ErrInvariant, s.PendingAction != nil, s.AwaitingConfirmation)
	}
	if s.Domain != "" && !s.Domain.Valid() {
		return fmt.Errorf("%w: unknown domain %q", ErrInvariant, s.Domain)
	}
	if p := s.PendingAction; p != nil {
		if strings.TrimSpace(p.ItemID) == "" || strings.TrimSpace(p.ActionID) == "" {
			return fmt.Errorf("%w: pending action without item or action id", ErrInvariant)
		}
		if !p.Domain.Valid() {
			return fmt.Errorf("%w: pending action domain %q", ErrInvariant, p.Domain)
		}
	}
	for i, t := range s.History {
		switch t.Role {
		case contractx.RoleUser, contractx.RoleAssistant, contractx.RoleSystem:
		default:
			return fmt.Errorf("%w: history[%d] has role %q", ErrInvariant, i, t.Role)
		}
	}
	return nil
}

// Clone returns a deep copy safe to mutate independently.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	if s.History != nil {
		out.History = make([]contractx.Turn, len(s.History))
		copy(out.History, s.History)
	}
	if s.PendingAction != nil {
		p := *s.PendingAction
		p.ItemSnapshot.Details = cloneDetails(p.ItemSnapshot.Details)
		out.PendingAction = &p
	}
	return &out
}

func cloneDetails(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
