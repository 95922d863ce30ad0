package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_123"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		URL:         server.URL,
		Token:       "qs-token",
		Destination: "https://hooks.example.com/bookings",
		Retries:     2,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	res, err := client.Publish(context.Background(), map[string]any{"booking_id": "bk-1"}, PublishOptions{DeduplicationID: "act-1"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.MessageID != "msg_123" {
		t.Fatalf("MessageID = %q", res.MessageID)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/bookings" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotHeaders.Get("Authorization") != "Bearer qs-token" ||
		gotHeaders.Get("Upstash-Deduplication-Id") != "act-1" ||
		gotHeaders.Get("Upstash-Retries") != "2" {
		t.Fatalf("unexpected headers: %v", gotHeaders)
	}
	if gotBody["booking_id"] != "bk-1" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestPublishErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad token"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "x", Destination: "https://hooks.example.com/b"})
	if _, err := client.Publish(context.Background(), struct{}{}, PublishOptions{}); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Destination: "https://x"}); err == nil {
		t.Fatal("expected missing token error")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Token: "t", Destination: "not a url"}); err == nil {
		t.Fatal("expected invalid destination error")
	}
}
