package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

// LoadOrCreateState attaches the stored session or a fresh one. A fresh
// session is only written once the turn completes.
func LoadOrCreateState(ctx context.Context, in *ChatState, store statex.Store) (*ChatState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		st = statex.NewSessionState(in.SessionID, in.UserID, in.Now)
		log.Debug().Str("session_id", in.SessionID).Str("user_id", in.UserID).Msg("session created")
	case err != nil:
		return nil, contractx.Transient("load session", err)
	}
	if err := checkOwner(st, in.UserID); err != nil {
		return nil, err
	}
	in.Session = st
	return in, nil
}

// LoadState attaches an existing session. A session that was never stored
// has nothing pending.
func LoadState(ctx context.Context, in *ConfirmState, store statex.Store) (*ConfirmState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		return nil, fmt.Errorf("%w: session %s not found", contractx.ErrNoConfirmationPending, in.SessionID)
	case err != nil:
		return nil, contractx.Transient("load session", err)
	}
	if err := checkOwner(st, in.UserID); err != nil {
		return nil, err
	}
	in.Session = st
	return in, nil
}

func checkOwner(st *statex.SessionState, userID string) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("loaded session: %w", err)
	}
	if st.UserID != "" && st.UserID != userID {
		return fmt.Errorf("%w: session %s", contractx.ErrSessionForbidden, st.SessionID)
	}
	return nil
}
