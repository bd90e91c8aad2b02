package application

import (
	"context"
	"sync"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

// Change is delivered to subscribers after every dispatch.
type Change struct {
	Action domain.Action
	Prev   domain.Snapshot
	Next   domain.Snapshot
}

// Changed reports whether the reducer produced a different snapshot. The
// reducer returns its input untouched on no-ops, so identity of the backing
// arrays is enough.
func (c Change) Changed() bool {
	return !sameBacking(c.Prev.Items, c.Next.Items) ||
		!sameBacking(c.Prev.Reviews, c.Next.Reviews) ||
		!sameBacking(c.Prev.Categories, c.Next.Categories) ||
		c.Prev.Selection != c.Next.Selection
}

func sameBacking[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

type Subscriber func(ctx context.Context, change Change)

type subscription struct {
	id int
	fn Subscriber
}

// Store owns the current snapshot. Dispatches are serialized; subscribers are
// called synchronously in registration order, after the new snapshot is
// visible to readers. Subscribers must not dispatch.
type Store struct {
	reducer domain.Reducer

	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state domain.Snapshot

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

func NewStore(reducer domain.Reducer, initial domain.Snapshot) *Store {
	return &Store{reducer: reducer, state: initial}
}

func (s *Store) State() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Dispatch(ctx context.Context, action domain.Action) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := s.reducer.Reduce(prev, action)
	s.state = next
	s.mu.Unlock()

	change := Change{Action: action, Prev: prev, Next: next}
	for _, sub := range s.subscribers() {
		sub.fn(ctx, change)
	}
	return next, nil
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) subscribers() []subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return append([]subscription(nil), s.subs...)
}
