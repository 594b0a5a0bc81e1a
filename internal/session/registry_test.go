package session

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func drain(t *testing.T, s *Session) []byte {
	t.Helper()
	select {
	case msg := <-s.Send():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	r := NewRegistry(4)

	const n = 5
	sessions := make([]*Session, n)
	for i := range sessions {
		sessions[i] = r.Attach("dev-1")
	}

	reached := r.Broadcast("dev-1", []byte(`{"pin":4}`))
	if reached != n {
		t.Errorf("Broadcast() reached = %d, want %d", reached, n)
	}

	for i, s := range sessions {
		if got := string(drain(t, s)); got != `{"pin":4}` {
			t.Errorf("session %d got %q", i, got)
		}
	}
}

func TestBroadcastIsolatedPerDevice(t *testing.T) {
	r := NewRegistry(4)

	s1 := r.Attach("dev-1")
	s2 := r.Attach("dev-2")

	if reached := r.Broadcast("dev-1", []byte("a")); reached != 1 {
		t.Errorf("Broadcast(dev-1) reached = %d, want 1", reached)
	}

	drain(t, s1)

	select {
	case msg := <-s2.Send():
		t.Errorf("dev-2 session received %q, want nothing", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastNoSessions(t *testing.T) {
	r := NewRegistry(4)

	if reached := r.Broadcast("ghost", []byte("a")); reached != 0 {
		t.Errorf("Broadcast() reached = %d, want 0", reached)
	}
}

func TestDetachIdempotent(t *testing.T) {
	r := NewRegistry(4)

	s := r.Attach("dev-1")
	r.Detach(s)
	r.Detach(s) // second teardown from the other pump must not panic

	if got := r.Count("dev-1"); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}

	// Channel closed exactly once.
	if _, ok := <-s.Send(); ok {
		t.Error("send channel not closed after detach")
	}
}

func TestDetachMidBroadcast(t *testing.T) {
	r := NewRegistry(1)

	s := r.Attach("dev-1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.Broadcast("dev-1", []byte("x"))
		}
	}()
	go func() {
		defer wg.Done()
		r.Detach(s)
	}()
	wg.Wait()

	if got := r.Count("dev-1"); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestSlowSessionDoesNotBlock(t *testing.T) {
	r := NewRegistry(1)

	slow := r.Attach("dev-1")
	fast := r.Attach("dev-1")

	// Fill the slow session's buffer so the next broadcast cannot queue.
	r.Broadcast("dev-1", []byte("first"))
	drain(t, fast)

	done := make(chan int, 1)
	go func() { done <- r.Broadcast("dev-1", []byte("second")) }()

	select {
	case reached := <-done:
		if reached != 1 {
			t.Errorf("Broadcast() reached = %d, want 1 (slow session dropped)", reached)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on slow session")
	}

	if got := string(drain(t, slow)); got != "first" {
		t.Errorf("slow session got %q, want %q", got, "first")
	}
	drain(t, fast)
}

func TestLastSentRetained(t *testing.T) {
	r := NewRegistry(4)

	if got := r.LastSent("dev-1"); got != nil {
		t.Errorf("LastSent() before broadcast = %q, want nil", got)
	}

	r.Attach("dev-1")
	r.Broadcast("dev-1", []byte("a"))
	r.Broadcast("dev-1", []byte("b"))

	if got := string(r.LastSent("dev-1")); got != "b" {
		t.Errorf("LastSent() = %q, want %q", got, "b")
	}
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(4)

	var sessions []*Session
	for i := 0; i < 3; i++ {
		sessions = append(sessions, r.Attach(fmt.Sprintf("dev-%d", i)))
	}

	r.CloseAll()

	for i, s := range sessions {
		if _, ok := <-s.Send(); ok {
			t.Errorf("session %d channel not closed", i)
		}
	}
	for i := 0; i < 3; i++ {
		if got := r.Count(fmt.Sprintf("dev-%d", i)); got != 0 {
			t.Errorf("Count(dev-%d) = %d, want 0", i, got)
		}
	}
}

func TestConcurrentAttachBroadcast(t *testing.T) {
	r := NewRegistry(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := r.Attach("dev-1")
			r.Broadcast("dev-1", []byte("m"))
			r.Detach(s)
		}(i)
	}
	wg.Wait()

	if got := r.Count("dev-1"); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}
