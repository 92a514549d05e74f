package service

import "sync"

// Listeners fans auth events out to subscribers. The zero value is ready to use.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(AuthEvent, *Session)
}

// Subscribe registers fn and returns its release function.
// Calling the release function more than once is a no-op.
func (l *Listeners) Subscribe(fn func(AuthEvent, *Session)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(AuthEvent, *Session))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Emit calls every subscriber with the event.
// Subscribers run outside the lock so they may subscribe or unsubscribe.
func (l *Listeners) Emit(ev AuthEvent, s *Session) {
	l.mu.Lock()
	fns := make([]func(AuthEvent, *Session), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev, s)
	}
}

// Len returns the number of live subscriptions.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
