package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string) *UltraMsgClient {
	return &UltraMsgClient{
		APIBaseURL: serverURL,
		InstanceID: "instance123",
		Token:      "token123",
		httpClient: &http.Client{Timeout: time.Second},
		retryDelay: 0,
	}
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instance123/messages/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostForm.Get("token") != "token123" || r.PostForm.Get("to") != "263771000001" {
			t.Errorf("unexpected form values: %v", r.PostForm)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.Send(context.Background(), "263771000001", "hello"); err != nil {
		t.Fatalf("Send() error after retries: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("gateway called %d times, want 3", n)
	}
}

func TestSendReturnsLastErrorAfterThreeAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.Send(context.Background(), "263771000001", "hello"); err == nil {
		t.Fatal("Send() = nil, want error")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("gateway called %d times, want 3", n)
	}
}

func TestSendOnceDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.SendOnce(context.Background(), "263771000001", "hello"); err == nil {
		t.Fatal("SendOnce() = nil, want error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("gateway called %d times, want 1", n)
	}
}

func TestSendSkipsPlaceholderRecipients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called for placeholder recipients")
	}))
	defer server.Close()

	client := testClient(server.URL)
	for _, recipient := range []string{"", "0"} {
		if err := client.Send(context.Background(), recipient, "hello"); err != nil {
			t.Errorf("Send(%q) error: %v", recipient, err)
		}
		if err := client.SendOnce(context.Background(), recipient, "hello"); err != nil {
			t.Errorf("SendOnce(%q) error: %v", recipient, err)
		}
	}
}
