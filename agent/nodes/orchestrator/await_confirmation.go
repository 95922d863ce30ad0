package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// AwaitConfirmation answers a message sent while a booking is pending. The
// agent is not called; the reply restates what is waiting for a decision.
func AwaitConfirmation(ctx context.Context, in *ChatState) (*ChatState, error) {
	if in == nil || in.Session == nil || in.Session.PendingAction == nil {
		return nil, fmt.Errorf("%w: no pending action to restate", contractx.ErrValidation)
	}

	reply := ReminderMessage(in.Session.PendingAction)
	in.Session.AppendExchange(in.Message, reply, in.Now)
	in.Reply = reply

	var err error
	in.Phase, _, err = Transition(ctx, in.Phase, in.Session, in.Message, nil)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func ReminderMessage(p *contractx.PendingAction) string {
	title := p.ItemSnapshot.Title
	if title == "" {
		title = p.ItemID
	}
	return fmt.Sprintf(
		"You have a pending %s booking for %s at %.2f. Please confirm or cancel it before making another request.",
		p.Domain, title, p.Price,
	)
}
