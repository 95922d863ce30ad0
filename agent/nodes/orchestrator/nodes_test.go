package orchestratornode

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	bookingx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/booking"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/state"
)

type fakeAgent struct {
	resp contractx.SpecialistResponse
	err  error
	req  contractx.SpecialistRequest
}

func (f *fakeAgent) Run(_ context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	f.req = req
	return f.resp, f.err
}

type failingMemory struct{ calls int }

func (f *failingMemory) SimilaritySearch(context.Context, string, string, int) ([]string, error) {
	return nil, nil
}

func (f *failingMemory) Remember(context.Context, contractx.Note) error {
	f.calls++
	return errors.New("memory down")
}

// cancellingGate commits like a real gate would and then cancels the caller.
type cancellingGate struct {
	cancel context.CancelFunc
}

func (g *cancellingGate) Resolve(_ context.Context, st *statex.SessionState, _ string, _ bool) (bookingx.Resolution, error) {
	msg := "Hotel booking confirmed with ID: bk-1"
	st.ClearPending(testNow)
	st.AppendTurn(contractx.RoleSystem, msg, testNow)
	g.cancel()
	return bookingx.Resolution{Status: contractx.ConfirmStatusConfirmed, Message: msg, BookingID: "bk-1"}, nil
}

// ctxStore refuses writes on a finished context, like a network store would.
type ctxStore struct {
	*statex.MemoryStore
	hadDeadline bool
}

func (s *ctxStore) Save(ctx context.Context, st *statex.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, s.hadDeadline = ctx.Deadline()
	return s.MemoryStore.Save(ctx, st)
}

func TestValidateChatRequest(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return testNow }
	newID := func() string { return "generated" }

	st, err := ValidateChatRequest(ChatInput{UserID: " u1 ", Message: "  hi  "}, now, newID)
	if err != nil {
		t.Fatalf("ValidateChatRequest() error = %v", err)
	}
	if st.SessionID != "generated" || st.UserID != "u1" || st.Message != "hi" || st.Phase != PhaseRouting {
		t.Fatalf("unexpected state: %#v", st)
	}

	if _, err := ValidateChatRequest(ChatInput{UserID: "u1", Message: "   "}, now, newID); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty message, got %v", err)
	}
	if _, err := ValidateChatRequest(ChatInput{Message: "hi"}, now, newID); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty user, got %v", err)
	}
	if _, err := ValidateConfirmRequest(ConfirmInput{UserID: "u1"}, now); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty session, got %v", err)
	}
}

func TestLoadOrCreateState(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctx := context.Background()

	in := &ChatState{TurnState: TurnState{UserID: "u1", SessionID: "s1", Now: testNow}}
	out, err := LoadOrCreateState(ctx, in, store)
	if err != nil {
		t.Fatalf("LoadOrCreateState() error = %v", err)
	}
	if out.Session.UserID != "u1" || out.Session.SessionID != "s1" {
		t.Fatalf("unexpected session: %#v", out.Session)
	}
	if store.Len() != 0 {
		t.Fatal("new session must not be stored before the turn completes")
	}

	if err := store.Save(ctx, out.Session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	other := &ChatState{TurnState: TurnState{UserID: "intruder", SessionID: "s1", Now: testNow}}
	if _, err := LoadOrCreateState(ctx, other, store); !errors.Is(err, contractx.ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
}

func TestLoadStateMissingSession(t *testing.T) {
	t.Parallel()

	in := &ConfirmState{TurnState: TurnState{UserID: "u1", SessionID: "nope", Now: testNow}}
	if _, err := LoadState(context.Background(), in, statex.NewMemoryStore()); !errors.Is(err, contractx.ErrNoConfirmationPending) {
		t.Fatalf("expected ErrNoConfirmationPending, got %v", err)
	}
}

func TestRunAgentAppliesResponse(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{resp: contractx.SpecialistResponse{
		Message: "Booked? Confirm please.",
		PendingAction: &contractx.PendingAction{
			ActionID: "a1", Domain: contractx.DomainFlight, ItemID: "fl-bb101", Price: 5500,
		},
		Note: &contractx.Note{Text: "note"},
	}}

	in := &ChatState{
		TurnState: TurnState{UserID: "u1", SessionID: "s1", Now: testNow, Session: statex.NewSessionState("s1", "u1", testNow)},
		Message:   "book a flight",
		Phase:     PhaseAgentFlight,
		Domain:    contractx.DomainFlight,
	}
	out, err := RunAgent(context.Background(), in, agent, 6)
	if err != nil {
		t.Fatalf("RunAgent() error = %v", err)
	}
	if out.Phase != PhaseDone {
		t.Fatalf("phase = %s, want DONE", out.Phase)
	}
	if len(out.Session.History) != 1 || out.Session.History[0].UserMessage != "book a flight" {
		t.Fatalf("unexpected history: %#v", out.Session.History)
	}
	if !out.Session.AwaitingConfirmation || out.Session.PendingAction.ItemID != "fl-bb101" {
		t.Fatalf("pending action not applied: %#v", out.Session)
	}
	if out.Session.Domain != contractx.DomainFlight {
		t.Fatalf("domain = %s", out.Session.Domain)
	}
	if agent.req.UserID != "u1" || agent.req.SessionID != "s1" {
		t.Fatalf("unexpected agent request: %#v", agent.req)
	}

	resp, err := FinalizeChat(out)
	if err != nil {
		t.Fatalf("FinalizeChat() error = %v", err)
	}
	if !resp.RequiresConfirmation || resp.PendingAction == nil || resp.PendingAction.Price != 5500 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestRunAgentErrorLeavesSessionUntouched(t *testing.T) {
	t.Parallel()

	session := statex.NewSessionState("s1", "u1", testNow)
	in := &ChatState{
		TurnState: TurnState{UserID: "u1", SessionID: "s1", Now: testNow, Session: session},
		Message:   "hello",
		Phase:     PhaseAgentHotel,
		Domain:    contractx.DomainHotel,
	}
	_, err := RunAgent(context.Background(), in, &fakeAgent{err: contractx.Transient("complete", errors.New("502"))}, 6)
	if !errors.Is(err, contractx.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if len(session.History) != 0 {
		t.Fatalf("history changed on failure: %#v", session.History)
	}
}

func TestAwaitConfirmation(t *testing.T) {
	t.Parallel()

	session := pendingSession(t)
	in := &ChatState{
		TurnState: TurnState{UserID: "u1", SessionID: "s1", Now: testNow, Session: session},
		Message:   "what about flights?",
		Phase:     PhaseAwaitingConfirmation,
	}
	out, err := AwaitConfirmation(context.Background(), in)
	if err != nil {
		t.Fatalf("AwaitConfirmation() error = %v", err)
	}
	if !strings.Contains(out.Reply, "Agrabad Hotel") {
		t.Fatalf("reminder does not name the item: %q", out.Reply)
	}
	if len(session.History) != 1 || !session.AwaitingConfirmation {
		t.Fatalf("unexpected session after reminder: %#v", session)
	}
	if out.Note != nil {
		t.Fatal("reminder turns must not produce a transcript note")
	}
}

func TestWriteMemoryFailureDoesNotFailTurn(t *testing.T) {
	t.Parallel()

	mem := &failingMemory{}
	in := &ChatState{
		TurnState: TurnState{UserID: "u1", SessionID: "s1", Session: statex.NewSessionState("s1", "u1", testNow)},
		Note:      &contractx.Note{Text: "x"},
	}
	if _, err := WriteMemory(context.Background(), in, mem); err != nil {
		t.Fatalf("WriteMemory() error = %v", err)
	}
	if mem.calls != 1 {
		t.Fatalf("Remember calls = %d, want 1", mem.calls)
	}
}

func TestValidateAndSaveStateRejectsBrokenInvariant(t *testing.T) {
	t.Parallel()

	session := statex.NewSessionState("s1", "u1", testNow)
	session.AwaitingConfirmation = true
	store := statex.NewMemoryStore()

	err := ValidateAndSaveState(context.Background(), &TurnState{Now: testNow, Session: session}, store)
	if !errors.Is(err, statex.ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("invalid state must not be saved")
	}
}

func TestResolveConfirmationSavesAfterCallerCancels(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &ctxStore{MemoryStore: statex.NewMemoryStore()}
	in := &ConfirmState{
		TurnState: TurnState{UserID: "u1", SessionID: "s1", Now: testNow, Session: pendingSession(t)},
		Confirmed: true,
	}

	out, err := ResolveConfirmation(ctx, in, &cancellingGate{cancel: cancel}, store, time.Second)
	if err != nil {
		t.Fatalf("ResolveConfirmation() error = %v", err)
	}
	if out.Resolution.BookingID != "bk-1" {
		t.Fatalf("unexpected resolution: %+v", out.Resolution)
	}
	if !store.hadDeadline {
		t.Fatal("detached save must carry its own deadline")
	}
	saved, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.HasPending() || len(saved.History) != 1 {
		t.Fatalf("committed resolution not persisted: %#v", saved)
	}
}
