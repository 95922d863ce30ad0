package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// WriteMemory stores the transcript note of an agent turn. The session is
// already saved, so a failure is logged and the turn still succeeds.
func WriteMemory(
	ctx context.Context,
	in *ChatState,
	memory contractx.HistoryRetriever,
) (*ChatState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Note == nil || memory == nil {
		return in, nil
	}

	if err := memory.Remember(ctx, *in.Note); err != nil {
		log.Warn().Err(err).
			Str("session_id", in.SessionID).
			Str("user_id", in.UserID).
			Msg("write transcript note failed")
	}
	return in, nil
}
