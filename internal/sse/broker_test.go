package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishScanCompleted(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishScanCompleted(3, 1)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: scan.completed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"differences":3`) || !strings.Contains(s, `"skipped":1`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestScanLifecycleEvents(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishScanStarted()
	b.PublishScanFailed("boom")

	want := []string{"scan.started", "scan.failed"}
	for _, w := range want {
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), "event: "+w) {
				t.Errorf("message %q, want event %s", msg, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", w)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishScanCompleted(1, 0)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: scan.completed") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill the client buffer (capacity 64) and then some; publishing must
	// never block the broker loop.
	for i := 0; i < 70; i++ {
		b.PublishScanStarted()
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.PublishScanStarted()
	b.PublishScanCompleted(0, 0)
}
