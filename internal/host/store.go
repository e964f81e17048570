package host

import (
	"fmt"
	"log/slog"
	"sync"
)

// Action is a typed event dispatched into the store. Type returns the tag
// reducers switch on.
type Action interface {
	Type() string
}

// Reducer folds an action into the state slice it was registered for. It must
// be pure: no I/O and no mutation of the previous state.
type Reducer func(state any, action Action) any

// Dispatch applies an action. GetState reads the current value of a slice.
type (
	Dispatch func(Action)
	GetState func(key string) any
)

type slice struct {
	key     string
	reducer Reducer
}

// Store is the host's process-wide UI state. Every dispatch and every thunk
// runs to completion under one lock, so a read-modify-write performed inside
// a thunk is atomic with respect to other dispatches. Subscribers are called
// after the lock is released.
type Store struct {
	mu     sync.Mutex
	slices []slice
	state  map[string]any

	subMu  sync.RWMutex
	subs   map[uint64]func()
	nextID uint64

	log *slog.Logger
}

// NewStore creates an empty store.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		state: make(map[string]any),
		subs:  make(map[uint64]func()),
		log:   log,
	}
}

// RegisterReducer adds a state slice under key with its initial value.
func (s *Store) RegisterReducer(key string, initial any, r Reducer) error {
	if key == "" || r == nil {
		return fmt.Errorf("registering reducer: key and reducer are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slices {
		if sl.key == key {
			return fmt.Errorf("registering reducer: key %q already registered", key)
		}
	}
	s.slices = append(s.slices, slice{key: key, reducer: r})
	s.state[key] = initial
	return nil
}

// Get returns the current value of the slice registered under key.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[key]
}

// Dispatch applies action to every registered slice.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.apply(action)
	s.mu.Unlock()
	s.notify()
}

// Thunk runs fn with exclusive access to the store. Actions dispatched through
// the supplied Dispatch are applied immediately and are visible to later
// GetState calls within the same thunk.
func (s *Store) Thunk(fn func(dispatch Dispatch, getState GetState)) {
	dispatched := false
	s.mu.Lock()
	fn(func(a Action) {
		dispatched = true
		s.apply(a)
	}, func(key string) any {
		return s.state[key]
	})
	s.mu.Unlock()
	if dispatched {
		s.notify()
	}
}

// Subscribe registers fn to run after every dispatch. The returned function
// removes it.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// apply must be called with s.mu held.
func (s *Store) apply(action Action) {
	if action == nil {
		s.log.Warn("dropping malformed action", slog.String("reason", "nil action"))
		return
	}
	for _, sl := range s.slices {
		s.state[sl.key] = s.reduce(sl, action)
	}
}

func (s *Store) reduce(sl slice, action Action) (next any) {
	prev := s.state[sl.key]
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reducer panicked, keeping previous state",
				slog.String("slice", sl.key),
				slog.String("action", action.Type()),
				slog.Any("panic", r))
			next = prev
		}
	}()
	return sl.reducer(prev, action)
}

func (s *Store) notify() {
	s.subMu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
