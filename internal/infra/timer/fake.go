package timer

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manual clock and scheduler. Callbacks run synchronously
// inside Advance, in due order, on the caller's goroutine.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks map[int]*fakeTask
}

type fakeTask struct {
	id  int
	due time.Time
	fn  func()
}

// NewFake creates a fake clock starting at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, tasks: make(map[int]*fakeTask)}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t without firing anything.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// AfterFunc schedules fn at now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := f.seq
	f.tasks[id] = &fakeTask{id: id, due: f.now.Add(d), fn: fn}
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.tasks[id]; !ok {
			return false
		}
		delete(f.tasks, id)
		return true
	}
}

// Pending returns the number of scheduled callbacks.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Advance moves the clock forward by d and runs every callback that
// came due, earliest first.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due []*fakeTask
	for id, t := range f.tasks {
		if !t.due.After(f.now) {
			due = append(due, t)
			delete(f.tasks, id)
		}
	}
	f.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})
	for _, t := range due {
		t.fn()
	}
}
