package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

// Phase is a step of the per-turn routing state machine.
type Phase string

const (
	PhaseRouting              Phase = "ROUTING"
	PhaseAgentFlight          Phase = "AGENT_FLIGHT"
	PhaseAgentHotel           Phase = "AGENT_HOTEL"
	PhaseAwaitingConfirmation Phase = "AWAITING_CONFIRMATION"
	PhaseDone                 Phase = "DONE"
)

var ErrInvalidTransition = errors.New("invalid phase transition")

// Transition returns the phase that follows phase. From ROUTING a pending
// action always wins over classification; agent and awaiting phases end the
// turn. The returned domain is only set when an agent phase is chosen.
func Transition(
	ctx context.Context,
	phase Phase,
	session *statex.SessionState,
	message string,
	classifier policy.Classifier,
) (Phase, contractx.Domain, error) {
	switch phase {
	case PhaseRouting:
		if session.HasPending() {
			return PhaseAwaitingConfirmation, "", nil
		}
		if classifier == nil {
			classifier = policy.KeywordClassifier{}
		}
		domain, err := classifier.Classify(ctx, message)
		if err != nil {
			return "", "", fmt.Errorf("classify message: %w", err)
		}
		switch domain {
		case contractx.DomainFlight:
			return PhaseAgentFlight, domain, nil
		case contractx.DomainHotel:
			return PhaseAgentHotel, domain, nil
		default:
			return "", "", fmt.Errorf("%w: classifier returned %q", contractx.ErrSchemaViolation, domain)
		}
	case PhaseAgentFlight, PhaseAgentHotel, PhaseAwaitingConfirmation:
		return PhaseDone, "", nil
	default:
		return "", "", fmt.Errorf("%w: from %q", ErrInvalidTransition, phase)
	}
}
