package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	assert.Equal(t, 0, b.ClientCount())
	ch := b.Subscribe()
	assert.Equal(t, 1, b.ClientCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount())
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "custom", Data: map[string]string{"id": "a"}})
	msg := receive(t, ch)
	assert.Contains(t, msg, "event: custom")
	assert.Contains(t, msg, `"id":"a"`)
}

func TestPublishDocumentEvent(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("created", "d1")
	b.PublishDocumentEvent("deleted", "d1")
	b.PublishDocumentEvent("bogus", "d1")

	assert.Contains(t, receive(t, ch), "event: "+TypeDocumentCreated)
	assert.Contains(t, receive(t, ch), "event: "+TypeDocumentDeleted)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, drain(ch))
}

func TestPublishChangeThrottlesPerSession(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(Change{SessionID: "s1", Command: "format-text", Version: 2})
	b.PublishChange(Change{SessionID: "s1", Command: "format-text", Version: 3})
	b.PublishChange(Change{SessionID: "s1", Command: "insert-table", Version: 4})
	b.PublishChange(Change{SessionID: "s2", Command: "undo", Version: 7})

	time.Sleep(50 * time.Millisecond)
	first := drain(ch)
	require.Len(t, first, 2)
	assert.Contains(t, first[0], `"version":2`)
	assert.Contains(t, first[1], `"session_id":"s2"`)

	// The collapsed trailing change for s1 arrives after the window.
	msg := receive(t, ch)
	assert.Contains(t, msg, "event: "+TypeDocumentChanged)
	assert.Contains(t, msg, `"version":4`)
	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, drain(ch))
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	b.PublishDocumentEvent("updated", "x")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	assert.True(t, strings.Contains(w.Body.String(), "event: "+TypeDocumentUpdated))
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Capacity is 64; the extra events must not block the loop.
	for range 70 {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	assert.Equal(t, 1, b.ClientCount())
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	require.Equal(t, 1, b.ClientCount())

	b.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected subscriber channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	assert.Equal(t, 0, b.ClientCount())

	b.Publish(Event{Type: "x"})
	b.PublishDocumentEvent("updated", "x")
	b.PublishChange(Change{SessionID: "s"})
}
