package viewer

import (
	"fmt"
	"sync"

	"github.com/jyoonje/collabview-plugin/internal/host"
)

// Store is the typed view of the viewer slice inside the host store.
type Store struct {
	hs *host.Store
}

// NewStore registers the viewer reducer with hs, starting from the empty
// state with token 0.
func NewStore(hs *host.Store) (*Store, error) {
	if err := hs.RegisterReducer(Key, State{}, reducer); err != nil {
		return nil, fmt.Errorf("registering viewer reducer: %w", err)
	}
	return &Store{hs: hs}, nil
}

// State returns the current viewer state.
func (s *Store) State() State {
	st, _ := s.hs.Get(Key).(State)
	return st
}

// Publish records url as the new target with a token strictly greater than
// any issued before. The read of the current token and the dispatch happen
// under one store lock.
func (s *Store) Publish(url string) State {
	var next State
	s.hs.Thunk(func(dispatch host.Dispatch, getState host.GetState) {
		cur, _ := getState(Key).(State)
		dispatch(Resolved{URL: url, Token: cur.ReloadToken + 1})
		next, _ = getState(Key).(State)
	})
	return next
}

// Subscribe calls fn with the viewer state after every store dispatch that
// changed it.
func (s *Store) Subscribe(fn func(State)) func() {
	var mu sync.Mutex
	last := s.State()
	return s.hs.Subscribe(func() {
		mu.Lock()
		defer mu.Unlock()
		cur := s.State()
		if cur == last {
			return
		}
		last = cur
		fn(cur)
	})
}
