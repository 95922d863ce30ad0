package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

var testSecret = []byte("test-secret")

type fakeService struct {
	chatErr    error
	confirmErr error
	gotUser    string
	gotChat    contractx.ChatRequest
}

func (f *fakeService) Chat(_ context.Context, userID string, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	f.gotUser = userID
	f.gotChat = req
	if f.chatErr != nil {
		return contractx.ChatResponse{}, f.chatErr
	}
	return contractx.ChatResponse{Response: "hi", SessionID: "s1"}, nil
}

func (f *fakeService) Confirm(_ context.Context, userID string, req contractx.ConfirmRequest) (contractx.ConfirmResponse, error) {
	f.gotUser = userID
	if f.confirmErr != nil {
		return contractx.ConfirmResponse{}, f.confirmErr
	}
	return contractx.ConfirmResponse{Response: "ok", SessionID: req.SessionID, Status: contractx.ConfirmStatusConfirmed, BookingID: "b1"}, nil
}

func bearer(t *testing.T, user string) string {
	t.Helper()
	tok, _, err := IssueToken(testSecret, user, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, svc Service, cfg Config, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	NewRouter(svc, cfg, testSecret).ServeHTTP(rec, req)
	return rec
}

func TestChatResolvesUserFromToken(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	rec := do(t, svc, Config{}, http.MethodPost, "/api/chat", bearer(t, "user-42"), contractx.ChatRequest{Message: "hotels?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotUser != "user-42" || svc.gotChat.Message != "hotels?" {
		t.Fatalf("unexpected call: user=%q req=%#v", svc.gotUser, svc.gotChat)
	}

	var resp contractx.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "s1" || resp.RequiresConfirmation {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestAuthRejections(t *testing.T) {
	t.Parallel()

	expired, _, err := IssueToken(testSecret, "u1", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	otherKey, _, err := IssueToken([]byte("other"), "u1", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	for name, auth := range map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + otherKey,
	} {
		auth := auth
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, &fakeService{}, Config{}, http.MethodPost, "/api/chat", auth, contractx.ChatRequest{Message: "x"})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: contractx.ErrValidation, want: http.StatusBadRequest},
		{err: contractx.ErrNoConfirmationPending, want: http.StatusConflict},
		{err: contractx.ErrSessionForbidden, want: http.StatusForbidden},
		{err: contractx.Transient("save", errors.New("down")), want: http.StatusServiceUnavailable},
		{err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{err: &contractx.InconsistencyError{InsertErr: errors.New("a"), CompensateErr: contractx.Transient("inc", errors.New("b"))}, want: http.StatusInternalServerError},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfirmNoPendingIsConflict(t *testing.T) {
	t.Parallel()

	svc := &fakeService{confirmErr: contractx.ErrNoConfirmationPending}
	rec := do(t, svc, Config{}, http.MethodPost, "/api/confirm", bearer(t, "u1"), contractx.ConfirmRequest{SessionID: "s1", Confirmed: true})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestInvalidBodyIsBadRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec := httptest.NewRecorder()
	NewRouter(&fakeService{}, Config{}, testSecret).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	t.Parallel()

	router := NewRouter(&fakeService{}, Config{RateLimit: 0.001, RateBurst: 1}, testSecret)
	send := func(user string) int {
		body := bytes.NewBufferString(`{"message":"hi"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
		req.Header.Set("Authorization", bearer(t, user))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("u1"); code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
	if code := send("u1"); code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", code)
	}
	if code := send("u2"); code != http.StatusOK {
		t.Fatalf("other user status = %d, want 200", code)
	}
}

func TestRateLimitEvictsIdleUsers(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiters := newUserLimiters(1, 1)
	limiters.now = func() time.Time { return clock }

	limiters.get("u1")
	limiters.get("u2")
	if limiters.size() != 2 {
		t.Fatalf("size = %d, want 2", limiters.size())
	}

	clock = clock.Add(limiterIdleTTL / 2)
	limiters.get("u2")
	clock = clock.Add(limiterIdleTTL / 2)
	limiters.get("u3")

	if limiters.size() != 2 {
		t.Fatalf("size = %d, want idle u1 evicted", limiters.size())
	}
	limiters.mu.Lock()
	_, stale := limiters.limiters["u1"]
	limiters.mu.Unlock()
	if stale {
		t.Fatal("u1 should have been evicted")
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := do(t, &fakeService{}, Config{}, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, exp, err := IssueToken(testSecret, "u9", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry must be in the future")
	}
	user, err := ParseToken(testSecret, tok)
	if err != nil || user != "u9" {
		t.Fatalf("ParseToken() = %q, %v", user, err)
	}
	if _, err := ParseToken(testSecret, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
