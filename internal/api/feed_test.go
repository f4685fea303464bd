package api

import (
	"sync"
	"testing"

	"github.com/relook-app/relook/internal/domain"
)

// fakeSubscriber registers a subscriber with no websocket behind it.
// Nothing drains its channel, so it fills after feedBuffer sends.
func fakeSubscriber(f *Feed) *subscriber {
	s := &subscriber{send: make(chan []byte, feedBuffer)}
	f.mu.Lock()
	f.subs[s] = true
	f.mu.Unlock()
	return s
}

func TestFeed_NotifyConcurrentWithRemove(t *testing.T) {
	f := NewFeed(nil, nil)
	n := domain.Notification{Type: domain.NotifyCombo, Title: "Combo x2"}

	for i := 0; i < 2000; i++ {
		s := fakeSubscriber(f)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.Notify(n)
		}()
		go func() {
			defer wg.Done()
			f.remove(s)
		}()
		wg.Wait()
	}
	if got := f.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestFeed_NotifyConcurrentWithClose(t *testing.T) {
	f := NewFeed(nil, nil)
	n := domain.Notification{Type: domain.NotifyCombo, Title: "Combo x2"}

	for i := 0; i < 500; i++ {
		fakeSubscriber(f)
		fakeSubscriber(f)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.Notify(n)
		}()
		go func() {
			defer wg.Done()
			f.Close()
		}()
		wg.Wait()
	}
}

func TestFeed_DropsSlowSubscriber(t *testing.T) {
	f := NewFeed(nil, nil)
	s := fakeSubscriber(f)
	n := domain.Notification{Type: domain.NotifyStreak, Title: "Streak"}

	for i := 0; i < feedBuffer; i++ {
		f.Notify(n)
	}
	if got := f.Count(); got != 1 {
		t.Fatalf("Count() after %d sends = %d, want 1", feedBuffer, got)
	}

	f.Notify(n)
	if got := f.Count(); got != 0 {
		t.Errorf("Count() after overflow = %d, want 0", got)
	}
	if _, open := <-s.send; !open {
		t.Error("buffered messages should still be readable before close")
	}
}
