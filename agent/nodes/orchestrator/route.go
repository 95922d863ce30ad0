package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
)

const (
	NodeFlightAgent       = "flight_agent"
	NodeHotelAgent        = "hotel_agent"
	NodeAwaitConfirmation = "await_confirmation"
)

func Route(ctx context.Context, in *ChatState, classifier policy.Classifier) (*ChatState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	phase, domain, err := Transition(ctx, in.Phase, in.Session, in.Message, classifier)
	if err != nil {
		return nil, err
	}
	in.Phase = phase
	if domain != "" {
		in.Domain = domain
	}

	log.Debug().
		Str("session_id", in.SessionID).
		Str("phase", string(phase)).
		Str("domain", string(domain)).
		Msg("turn routed")
	return in, nil
}

// NextNode maps the routed phase to the graph node that handles it.
func NextNode(_ context.Context, in *ChatState) (string, error) {
	switch in.Phase {
	case PhaseAgentFlight:
		return NodeFlightAgent, nil
	case PhaseAgentHotel:
		return NodeHotelAgent, nil
	case PhaseAwaitingConfirmation:
		return NodeAwaitConfirmation, nil
	default:
		return "", fmt.Errorf("%w: no node for phase %q", ErrInvalidTransition, in.Phase)
	}
}
