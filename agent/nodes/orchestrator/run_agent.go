package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// RunAgent invokes the domain agent and applies its answer to the session:
// one assistant turn and, when proposed, the pending action.
func RunAgent(
	ctx context.Context,
	in *ChatState,
	agent contractx.Specialist,
	historyTurns int,
) (*ChatState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: no agent for domain %q", contractx.ErrValidation, in.Domain)
	}

	resp, err := agent.Run(ctx, contractx.SpecialistRequest{
		SessionID:   in.SessionID,
		UserID:      in.UserID,
		UserMessage: in.Message,
		History:     in.Session.RecentHistory(historyTurns),
	})
	if err != nil {
		return nil, err
	}

	reply := strings.TrimSpace(resp.Message)
	if reply == "" {
		return nil, fmt.Errorf("%w: %s agent returned empty message", contractx.ErrSchemaViolation, in.Domain)
	}

	in.Session.Domain = in.Domain
	in.Session.AppendExchange(in.Message, reply, in.Now)
	if resp.PendingAction != nil {
		if err := in.Session.SetPending(resp.PendingAction, in.Now); err != nil {
			return nil, fmt.Errorf("set pending action: %w", err)
		}
	}

	in.Reply = reply
	in.Note = resp.Note
	in.Phase, _, err = Transition(ctx, in.Phase, in.Session, in.Message, nil)
	if err != nil {
		return nil, err
	}
	return in, nil
}
