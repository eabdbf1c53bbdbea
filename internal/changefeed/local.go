package changefeed

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to or subscribing on a closed feed.
var ErrClosed = errors.New("change feed closed")

// Local is an in-process Feed for single-instance deployments and tests.
// Each subscription holds at most one undelivered event: since events carry no
// diff, a burst of changes collapses into a single notification.
type Local struct {
	mu     sync.RWMutex
	subs   map[string]map[*localSub]struct{}
	closed bool
}

var _ Feed = (*Local)(nil)

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[*localSub]struct{})}
}

type localSub struct {
	feed  *Local
	table string
	ch    chan Event
	done  chan struct{}
	once  sync.Once
}

func (f *Local) Publish(_ context.Context, ev Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrClosed
	}
	for s := range f.subs[ev.Table] {
		select {
		case s.ch <- ev:
		default:
			// a notification is already pending for this subscriber
		}
	}
	return nil
}

func (f *Local) Subscribe(_ context.Context, table string, fn func(Event)) (Subscription, error) {
	s := &localSub{
		feed:  f,
		table: table,
		ch:    make(chan Event, 1),
		done:  make(chan struct{}),
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	if f.subs[table] == nil {
		f.subs[table] = make(map[*localSub]struct{})
	}
	f.subs[table][s] = struct{}{}
	f.mu.Unlock()

	go func() {
		for {
			select {
			case ev := <-s.ch:
				fn(ev)
			case <-s.done:
				return
			}
		}
	}()
	return s, nil
}

// Subscribers reports how many subscriptions are open on table.
func (f *Local) Subscribers(table string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[table])
}

// Close closes every open subscription.
func (f *Local) Close() error {
	f.mu.Lock()
	f.closed = true
	var all []*localSub
	for _, set := range f.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	f.mu.Unlock()

	for _, s := range all {
		_ = s.Close()
	}
	return nil
}

func (s *localSub) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs[s.table], s)
		s.feed.mu.Unlock()
		close(s.done)
	})
	return nil
}
