package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	bookingx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/booking"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

type ChatInput struct {
	UserID    string
	SessionID string
	Message   string
}

type ConfirmInput struct {
	UserID    string
	SessionID string
	Confirmed bool
}

// TurnState is shared by the chat and confirm graphs.
type TurnState struct {
	UserID    string
	SessionID string
	Now       time.Time
	Session   *statex.SessionState
}

type ChatState struct {
	TurnState
	Message string

	Phase  Phase
	Domain contractx.Domain
	Reply  string
	Note   *contractx.Note
}

type ConfirmState struct {
	TurnState
	Confirmed  bool
	Resolution bookingx.Resolution
}

// ValidateChatRequest trims the input and assigns a session id when the
// caller did not send one.
func ValidateChatRequest(in ChatInput, nowFn func() time.Time, newID func() string) (*ChatState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contractx.ErrValidation)
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newID()
	}

	return &ChatState{
		TurnState: TurnState{
			UserID:    userID,
			SessionID: sessionID,
			Now:       nowFn().UTC(),
		},
		Message: message,
		Phase:   PhaseRouting,
	}, nil
}

func ValidateConfirmRequest(in ConfirmInput, nowFn func() time.Time) (*ConfirmState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contractx.ErrValidation)
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", contractx.ErrValidation)
	}
	return &ConfirmState{
		TurnState: TurnState{
			UserID:    userID,
			SessionID: sessionID,
			Now:       nowFn().UTC(),
		},
		Confirmed: in.Confirmed,
	}, nil
}
