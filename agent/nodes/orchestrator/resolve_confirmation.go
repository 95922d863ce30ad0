package orchestratornode

import (
	"context"
	"fmt"
	"time"

	bookingx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/booking"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

type ConfirmationGate interface {
	Resolve(ctx context.Context, st *statex.SessionState, userID string, accepted bool) (bookingx.Resolution, error)
}

// ResolveConfirmation answers the pending action and persists the session in
// the same step. Once the gate returns, a booking may be committed, so the
// save runs detached from the caller and bounded by saveTimeout.
func ResolveConfirmation(
	ctx context.Context,
	in *ConfirmState,
	gate ConfirmationGate,
	store statex.Store,
	saveTimeout time.Duration,
) (*ConfirmState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	res, err := gate.Resolve(ctx, in.Session, in.UserID, in.Confirmed)
	if err != nil {
		return nil, err
	}
	in.Resolution = res

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := ValidateAndSaveState(saveCtx, &in.TurnState, store); err != nil {
		return nil, err
	}
	return in, nil
}
