package service

import (
	"sync"
	"time"
)

// AutoCompleter runs one delayed callback per ride id.
//
// Cancel never waits for a callback that is already running; a callback that
// loses a race with a manual transition must treat ErrAlreadyTerminal as a
// no-op. Stop does wait for them.
type AutoCompleter struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopped  bool
	inFlight sync.WaitGroup
}

// NewAutoCompleter creates an AutoCompleter with no pending tasks.
func NewAutoCompleter() *AutoCompleter {
	return &AutoCompleter{timers: make(map[string]*time.Timer)}
}

// Schedule arranges for fn to run once after d. A task already pending for
// id is replaced.
func (a *AutoCompleter) Schedule(id string, d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	if old, ok := a.timers[id]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		a.mu.Lock()
		current, ok := a.timers[id]
		if !ok || current != t || a.stopped {
			a.mu.Unlock()
			return
		}
		delete(a.timers, id)
		a.inFlight.Add(1)
		a.mu.Unlock()

		defer a.inFlight.Done()
		fn()
	})
	a.timers[id] = t
}

// Cancel drops the pending task for id. It reports whether a task was
// pending.
func (a *AutoCompleter) Cancel(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(a.timers, id)
	return true
}

// Pending returns the number of tasks that have not fired yet.
func (a *AutoCompleter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// Stop cancels every pending task, rejects new ones and waits for running
// callbacks to return. It must not be called from a callback.
func (a *AutoCompleter) Stop() {
	a.mu.Lock()
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
	a.stopped = true
	a.mu.Unlock()

	a.inFlight.Wait()
}
