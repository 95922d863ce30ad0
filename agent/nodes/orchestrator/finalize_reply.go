package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

func FinalizeChat(in *ChatState) (contractx.ChatResponse, error) {
	if in == nil || in.Session == nil {
		return contractx.ChatResponse{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return contractx.ChatResponse{}, fmt.Errorf("%w: turn produced no reply", contractx.ErrSchemaViolation)
	}
	return contractx.ChatResponse{
		Response:             reply,
		SessionID:            in.SessionID,
		RequiresConfirmation: in.Session.AwaitingConfirmation,
		PendingAction:        contractx.ViewOf(in.Session.PendingAction),
	}, nil
}

func FinalizeConfirm(in *ConfirmState) (contractx.ConfirmResponse, error) {
	if in == nil {
		return contractx.ConfirmResponse{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return contractx.ConfirmResponse{
		Response:  in.Resolution.Message,
		SessionID: in.SessionID,
		Status:    in.Resolution.Status,
		BookingID: in.Resolution.BookingID,
	}, nil
}
