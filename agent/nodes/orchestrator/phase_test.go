package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

type stubClassifier struct {
	domain contractx.Domain
	err    error
	calls  int
}

func (s *stubClassifier) Classify(context.Context, string) (contractx.Domain, error) {
	s.calls++
	return s.domain, s.err
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func pendingSession(t *testing.T) *statex.SessionState {
	t.Helper()
	st := statex.NewSessionState("s1", "u1", testNow)
	err := st.SetPending(&contractx.PendingAction{
		ActionID:     "a1",
		Domain:       contractx.DomainHotel,
		ItemID:       "ht-agrabad",
		Price:        12000,
		ItemSnapshot: contractx.CatalogItem{ID: "ht-agrabad", Title: "Agrabad Hotel"},
	}, testNow)
	if err != nil {
		t.Fatalf("SetPending() error = %v", err)
	}
	return st
}

func TestTransitionFromRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		session    *statex.SessionState
		classifier *stubClassifier
		wantPhase  Phase
		wantDomain contractx.Domain
		wantCalls  int
	}{
		{
			name:       "flight",
			session:    statex.NewSessionState("s1", "u1", testNow),
			classifier: &stubClassifier{domain: contractx.DomainFlight},
			wantPhase:  PhaseAgentFlight,
			wantDomain: contractx.DomainFlight,
			wantCalls:  1,
		},
		{
			name:       "hotel",
			session:    statex.NewSessionState("s1", "u1", testNow),
			classifier: &stubClassifier{domain: contractx.DomainHotel},
			wantPhase:  PhaseAgentHotel,
			wantDomain: contractx.DomainHotel,
			wantCalls:  1,
		},
		{
			name:       "pending action skips classification",
			session:    pendingSession(t),
			classifier: &stubClassifier{domain: contractx.DomainFlight},
			wantPhase:  PhaseAwaitingConfirmation,
			wantCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			phase, domain, err := Transition(context.Background(), PhaseRouting, tt.session, "anything", tt.classifier)
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if phase != tt.wantPhase || domain != tt.wantDomain {
				t.Fatalf("Transition() = (%s, %s), want (%s, %s)", phase, domain, tt.wantPhase, tt.wantDomain)
			}
			if tt.classifier.calls != tt.wantCalls {
				t.Fatalf("classifier calls = %d, want %d", tt.classifier.calls, tt.wantCalls)
			}
		})
	}
}

func TestTransitionDefaultClassifier(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s1", "u1", testNow)
	phase, domain, err := Transition(context.Background(), PhaseRouting, st, "find me a flight", nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if phase != PhaseAgentFlight || domain != contractx.DomainFlight {
		t.Fatalf("unexpected transition (%s, %s)", phase, domain)
	}
}

func TestTransitionToDone(t *testing.T) {
	t.Parallel()

	for _, from := range []Phase{PhaseAgentFlight, PhaseAgentHotel, PhaseAwaitingConfirmation} {
		phase, _, err := Transition(context.Background(), from, nil, "", nil)
		if err != nil {
			t.Fatalf("Transition(%s) error = %v", from, err)
		}
		if phase != PhaseDone {
			t.Fatalf("Transition(%s) = %s, want DONE", from, phase)
		}
	}
}

func TestTransitionInvalid(t *testing.T) {
	t.Parallel()

	for _, from := range []Phase{PhaseDone, Phase("BOGUS")} {
		if _, _, err := Transition(context.Background(), from, nil, "", nil); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Transition(%s) error = %v, want ErrInvalidTransition", from, err)
		}
	}
}

func TestTransitionClassifierFailure(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s1", "u1", testNow)
	boom := errors.New("boom")
	if _, _, err := Transition(context.Background(), PhaseRouting, st, "x", &stubClassifier{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected classifier error, got %v", err)
	}
	if _, _, err := Transition(context.Background(), PhaseRouting, st, "x", &stubClassifier{domain: "car"}); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
