package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordedSend struct {
	Path string
	Body sendMessageReq
}

func newAPIStub(t *testing.T, failChats map[string]bool) (*httptest.Server, *[]recordedSend) {
	t.Helper()
	var mu sync.Mutex
	var sends []recordedSend
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		sends = append(sends, recordedSend{Path: r.URL.Path, Body: req})
		mu.Unlock()
		if failChats[req.ChatID] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &sends
}

func TestBroadcastDeliversToAllChats(t *testing.T) {
	srv, sends := newAPIStub(t, nil)
	tg := NewTelegram("tok123", []string{"111", "222"})
	tg.SetBaseURL(srv.URL)

	n := tg.Broadcast(context.Background(), "*Fresh listing*\niPhone\nhttps://x/1")
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if len(*sends) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*sends))
	}
	first := (*sends)[0]
	if first.Path != "/bottok123/sendMessage" {
		t.Fatalf("unexpected path %q", first.Path)
	}
	if first.Body.ChatID != "111" || !first.Body.DisableWebPagePreview {
		t.Fatalf("unexpected payload: %+v", first.Body)
	}
}

func TestBroadcastIsolatesPerChatFailures(t *testing.T) {
	srv, sends := newAPIStub(t, map[string]bool{"222": true})
	tg := NewTelegram("tok", []string{"111", "222", "333"})
	tg.SetBaseURL(srv.URL)

	n := tg.Broadcast(context.Background(), "hello")
	if n != 2 {
		t.Fatalf("expected 2 successful deliveries, got %d", n)
	}
	// The failing chat must not short-circuit the rest.
	if len(*sends) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(*sends))
	}
}

func TestBroadcastNoChats(t *testing.T) {
	tg := NewTelegram("tok", nil)
	if n := tg.Broadcast(context.Background(), "hello"); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
}

func TestBroadcastTransportError(t *testing.T) {
	tg := NewTelegram("tok", []string{"111"})
	tg.SetBaseURL("http://127.0.0.1:1") // nothing listens here
	if n := tg.Broadcast(context.Background(), "hello"); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
}
