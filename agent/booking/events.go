package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	qstashx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/qstash"
)

type publisher interface {
	Publish(ctx context.Context, payload any, opts qstashx.PublishOptions) (qstashx.PublishResult, error)
}

// BookingConfirmedEvent is the body delivered to the booking webhook.
type BookingConfirmedEvent struct {
	Type       string           `json:"type"`
	BookingID  string           `json:"booking_id"`
	ActionID   string           `json:"action_id"`
	UserID     string           `json:"user_id"`
	Domain     contractx.Domain `json:"domain"`
	ItemID     string           `json:"item_id"`
	TotalPrice float64          `json:"total_price"`
	CreatedAt  time.Time        `json:"created_at"`
}

// QStashEvents publishes booking events through QStash, deduplicated by
// action id.
type QStashEvents struct {
	pub publisher
}

var _ contractx.BookingEvents = (*QStashEvents)(nil)

func NewQStashEvents(client *qstashx.Client) (*QStashEvents, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	return &QStashEvents{pub: client}, nil
}

func (q *QStashEvents) BookingConfirmed(ctx context.Context, rec contractx.BookingRecord) error {
	res, err := q.pub.Publish(ctx, BookingConfirmedEvent{
		Type:       "booking.confirmed",
		BookingID:  rec.ID,
		ActionID:   rec.ActionID,
		UserID:     rec.UserID,
		Domain:     rec.Domain,
		ItemID:     rec.ItemID,
		TotalPrice: rec.TotalPrice,
		CreatedAt:  rec.CreatedAt,
	}, qstashx.PublishOptions{DeduplicationID: rec.ActionID})
	if err != nil {
		return err
	}
	log.Debug().Str("booking_id", rec.ID).Str("message_id", res.MessageID).Msg("booking event published")
	return nil
}
