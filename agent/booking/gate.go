package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

const MessageCancelled = "Booking cancelled by user"

type BookingExecutor interface {
	Execute(ctx context.Context, cmd contractx.BookingCommand) (string, error)
	Recorded(ctx context.Context, actionID string) (string, error)
}

// Resolution is the outcome of answering a pending confirmation.
type Resolution struct {
	Status    contractx.ConfirmStatus
	Message   string
	BookingID string
}

// Gate resolves the pending action of a session. It mutates the session in
// place; persisting it is the caller's job.
type Gate struct {
	executor BookingExecutor
	events   contractx.BookingEvents
	now      func() time.Time
}

type GateOption func(*Gate)

// WithEvents publishes a confirmed booking after commit. Publish failures are
// logged and never change the outcome.
func WithEvents(events contractx.BookingEvents) GateOption {
	return func(g *Gate) {
		g.events = events
	}
}

func NewGate(executor BookingExecutor, opts ...GateOption) (*Gate, error) {
	if executor == nil {
		return nil, errors.New("booking executor is required")
	}
	g := &Gate{executor: executor, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

func (g *Gate) Resolve(ctx context.Context, st *statex.SessionState, userID string, accepted bool) (Resolution, error) {
	if st == nil {
		return Resolution{}, statex.ErrNilSessionState
	}
	pending := st.PendingAction
	if pending == nil {
		return Resolution{}, contractx.ErrNoConfirmationPending
	}

	logger := log.With().
		Str("session_id", st.SessionID).
		Str("user_id", userID).
		Str("domain", string(pending.Domain)).
		Str("item_id", pending.ItemID).
		Str("action_id", pending.ActionID).
		Logger()

	if !accepted {
		// A commit whose session save never landed still holds the pending
		// action; it is reported as confirmed, never as cancelled.
		bookingID, err := g.executor.Recorded(ctx, pending.ActionID)
		if err != nil {
			return Resolution{}, err
		}
		if bookingID != "" {
			msg := confirmedMessage(pending, bookingID)
			g.close(st, msg)
			logger.Warn().Str("booking_id", bookingID).Msg("denial after commit, reporting existing booking")
			return Resolution{
				Status:    contractx.ConfirmStatusConfirmed,
				Message:   msg,
				BookingID: bookingID,
			}, nil
		}
		g.close(st, MessageCancelled)
		logger.Info().Msg("booking cancelled")
		return Resolution{Status: contractx.ConfirmStatusCancelled, Message: MessageCancelled}, nil
	}

	cmd := contractx.BookingCommand{
		ActionID: pending.ActionID,
		Domain:   pending.Domain,
		ItemID:   pending.ItemID,
		UserID:   userID,
		Price:    pending.Price,
	}
	bookingID, err := g.executor.Execute(ctx, cmd)
	switch {
	case errors.Is(err, contractx.ErrOutOfStock):
		msg := unavailableMessage(pending)
		g.close(st, msg)
		logger.Info().Msg("booking unavailable")
		return Resolution{Status: contractx.ConfirmStatusUnavailable, Message: msg}, nil
	case err != nil:
		return Resolution{}, err
	}

	msg := confirmedMessage(pending, bookingID)
	g.close(st, msg)
	logger.Info().Str("booking_id", bookingID).Msg("booking confirmed")

	g.publish(ctx, contractx.BookingRecord{
		ID:         bookingID,
		ActionID:   cmd.ActionID,
		UserID:     cmd.UserID,
		ItemID:     cmd.ItemID,
		Domain:     cmd.Domain,
		TotalPrice: cmd.Price,
		Status:     contractx.BookingConfirmed,
		CreatedAt:  g.now().UTC(),
	})

	return Resolution{
		Status:    contractx.ConfirmStatusConfirmed,
		Message:   msg,
		BookingID: bookingID,
	}, nil
}

func (g *Gate) close(st *statex.SessionState, message string) {
	now := g.now()
	st.ClearPending(now)
	st.AppendTurn(contractx.RoleSystem, message, now)
}

func (g *Gate) publish(ctx context.Context, rec contractx.BookingRecord) {
	if g.events == nil {
		return
	}
	if err := g.events.BookingConfirmed(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn().Err(err).
			Str("booking_id", rec.ID).
			Str("action_id", rec.ActionID).
			Msg("publish booking confirmed event failed")
	}
}

func confirmedMessage(p *contractx.PendingAction, bookingID string) string {
	return fmt.Sprintf("%s booking confirmed with ID: %s", p.Domain.Title(), bookingID)
}

func unavailableMessage(p *contractx.PendingAction) string {
	title := p.ItemSnapshot.Title
	if title == "" {
		title = p.ItemID
	}
	return fmt.Sprintf("%s booking could not be completed: %s is no longer available", p.Domain.Title(), title)
}
