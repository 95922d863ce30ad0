package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

const defaultCommitTimeout = 10 * time.Second

// Executor reserves one unit of inventory and records the booking. A
// successful decrement is always followed by an insert or a compensating
// increment, even when the caller's context is cancelled in between.
type Executor struct {
	inventory     contractx.Inventory
	bookings      contractx.BookingStore
	commitTimeout time.Duration
	now           func() time.Time
}

type ExecutorOption func(*Executor)

// WithCommitTimeout bounds the insert and compensation steps, which run
// detached from the caller's deadline.
func WithCommitTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.commitTimeout = d
		}
	}
}

func NewExecutor(inventory contractx.Inventory, bookings contractx.BookingStore, opts ...ExecutorOption) (*Executor, error) {
	if inventory == nil {
		return nil, errors.New("inventory is required")
	}
	if bookings == nil {
		return nil, errors.New("booking store is required")
	}
	e := &Executor{
		inventory:     inventory,
		bookings:      bookings,
		commitTimeout: defaultCommitTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Execute returns the booking id, contractx.ErrOutOfStock when nothing is
// left, a transient error when the booking could not be recorded, or an
// *contractx.InconsistencyError when the decrement could not be undone.
func (e *Executor) Execute(ctx context.Context, cmd contractx.BookingCommand) (string, error) {
	if err := validateCommand(cmd); err != nil {
		return "", err
	}
	logger := log.With().
		Str("action_id", cmd.ActionID).
		Str("user_id", cmd.UserID).
		Str("domain", string(cmd.Domain)).
		Str("item_id", cmd.ItemID).
		Logger()

	existing, err := e.bookings.FindByActionID(ctx, cmd.ActionID)
	if err != nil {
		return "", contractx.Transient("lookup booking", err)
	}
	if existing != nil {
		logger.Info().Str("booking_id", existing.ID).Msg("booking already recorded for action")
		return existing.ID, nil
	}

	if err := ctx.Err(); err != nil {
		return "", contractx.Transient("reserve inventory", err)
	}
	ok, err := e.inventory.DecrementIfAvailable(ctx, cmd.Domain, cmd.ItemID)
	if err != nil {
		return "", contractx.Transient("reserve inventory", err)
	}
	if !ok {
		logger.Info().Msg("item unavailable")
		return "", fmt.Errorf("%w: domain=%s item=%s", contractx.ErrOutOfStock, cmd.Domain, cmd.ItemID)
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commitTimeout)
	defer cancel()

	id, insertErr := e.bookings.Insert(commitCtx, contractx.BookingRecord{
		ActionID:   cmd.ActionID,
		UserID:     cmd.UserID,
		ItemID:     cmd.ItemID,
		Domain:     cmd.Domain,
		TotalPrice: cmd.Price,
		Status:     contractx.BookingConfirmed,
		CreatedAt:  e.now().UTC(),
	})
	if insertErr == nil {
		logger.Debug().Str("booking_id", id).Msg("booking recorded")
		return id, nil
	}

	if compErr := e.inventory.Increment(commitCtx, cmd.Domain, cmd.ItemID); compErr != nil {
		inc := &contractx.InconsistencyError{
			Domain:        cmd.Domain,
			ItemID:        cmd.ItemID,
			UserID:        cmd.UserID,
			ActionID:      cmd.ActionID,
			InsertErr:     insertErr,
			CompensateErr: compErr,
		}
		logger.Error().
			Bool("alert", true).
			AnErr("insert_error", insertErr).
			AnErr("compensate_error", compErr).
			Msg("inventory decremented without a booking record")
		return "", inc
	}

	logger.Warn().Err(insertErr).Msg("booking insert failed, inventory restored")
	return "", contractx.Transient("insert booking", insertErr)
}

// Recorded returns the id of the booking already committed for actionID, or
// "" when there is none.
func (e *Executor) Recorded(ctx context.Context, actionID string) (string, error) {
	existing, err := e.bookings.FindByActionID(ctx, actionID)
	if err != nil {
		return "", contractx.Transient("lookup booking", err)
	}
	if existing == nil {
		return "", nil
	}
	return existing.ID, nil
}

func validateCommand(cmd contractx.BookingCommand) error {
	switch {
	case strings.TrimSpace(cmd.ActionID) == "":
		return fmt.Errorf("%w: action id is required", contractx.ErrValidation)
	case strings.TrimSpace(cmd.ItemID) == "":
		return fmt.Errorf("%w: item id is required", contractx.ErrValidation)
	case strings.TrimSpace(cmd.UserID) == "":
		return fmt.Errorf("%w: user id is required", contractx.ErrValidation)
	case !cmd.Domain.Valid():
		return fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, cmd.Domain)
	}
	return nil
}
