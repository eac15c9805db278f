package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSendsOneBatch(t *testing.T) {
	var requests int
	var got []Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"t1"},{"status":"ok","id":"t2"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "expo-token", time.Second, nil)
	data := map[string]any{"projectId": "proj-42"}
	err := c.Send(context.Background(), []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, "Budget exceeded", "Over by 12%", data)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if requests != 1 {
		t.Fatalf("requests = %d, want 1", requests)
	}
	if auth != "Bearer expo-token" {
		t.Fatalf("authorization = %q", auth)
	}
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	for i, m := range got {
		if m.To != []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}[i] {
			t.Fatalf("message %d to = %q", i, m.To)
		}
		if m.Title != "Budget exceeded" || m.Body != "Over by 12%" {
			t.Fatalf("message %d = %+v", i, m)
		}
		if m.Priority != "high" || m.Sound != "default" || m.ChannelID != "default" {
			t.Fatalf("message %d delivery options = %+v", i, m)
		}
		if m.Data["projectId"] != "proj-42" {
			t.Fatalf("message %d data = %v", i, m.Data)
		}
	}
}

func TestClientNon2xxKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"code":"RATE_LIMIT"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "expo-token", time.Second, nil)
	err := c.Send(context.Background(), []string{"t"}, "a", "b", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "RATE_LIMIT") {
		t.Fatalf("err = %v", err)
	}
}

func TestClientMissingAccessToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", time.Second, nil)
	err := c.Send(context.Background(), []string{"t"}, "a", "b", nil)
	if !errors.Is(err, ErrMissingAccessToken) {
		t.Fatalf("err = %v, want ErrMissingAccessToken", err)
	}
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "expo-token", 50*time.Millisecond, nil)
	if err := c.Send(context.Background(), []string{"t"}, "a", "b", nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClientLogsTicketErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"t1"},{"status":"error","message":"not registered","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewClient(srv.URL, "expo-token", time.Second, logger)
	if err := c.Send(context.Background(), []string{"good", "stale"}, "a", "b", nil); err != nil {
		t.Fatalf("ticket errors must not fail the send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "DeviceNotRegistered") || !strings.Contains(out, "token=stale") {
		t.Fatalf("log output = %q", out)
	}
}
