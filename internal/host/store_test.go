package host

import (
	"testing"
)

type incr struct{ by int }

func (incr) Type() string { return "INCR" }

type boom struct{}

func (boom) Type() string { return "BOOM" }

func counter(state any, action Action) any {
	n, _ := state.(int)
	switch a := action.(type) {
	case incr:
		return n + a.by
	case boom:
		panic("reducer failure")
	}
	return n
}

func TestRegisterReducerDuplicate(t *testing.T) {
	s := NewStore(nil)
	if err := s.RegisterReducer("count", 0, counter); err != nil {
		t.Fatalf("RegisterReducer: %v", err)
	}
	if err := s.RegisterReducer("count", 0, counter); err == nil {
		t.Fatal("expected error for duplicate key")
	}
	if err := s.RegisterReducer("", 0, counter); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestDispatchAppliesReducers(t *testing.T) {
	s := NewStore(nil)
	s.RegisterReducer("count", 0, counter)

	s.Dispatch(incr{by: 2})
	s.Dispatch(incr{by: 3})

	if got := s.Get("count"); got != 5 {
		t.Errorf("count = %v, want 5", got)
	}
}

func TestDispatchDropsMalformed(t *testing.T) {
	s := NewStore(nil)
	s.RegisterReducer("count", 1, counter)

	s.Dispatch(nil)
	s.Dispatch(boom{})

	if got := s.Get("count"); got != 1 {
		t.Errorf("count = %v, want 1 after malformed actions", got)
	}
}

func TestThunkSeesOwnDispatches(t *testing.T) {
	s := NewStore(nil)
	s.RegisterReducer("count", 0, counter)

	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	defer unsub()

	s.Thunk(func(dispatch Dispatch, getState GetState) {
		dispatch(incr{by: 1})
		if n := getState("count").(int); n != 1 {
			t.Errorf("getState inside thunk = %d, want 1", n)
		}
		dispatch(incr{by: 1})
	})

	if got := s.Get("count"); got != 2 {
		t.Errorf("count = %v, want 2", got)
	}
	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1", calls)
	}

	// A thunk that only reads does not notify.
	s.Thunk(func(dispatch Dispatch, getState GetState) { _ = getState("count") })
	if calls != 1 {
		t.Errorf("subscriber called %d times after read-only thunk, want 1", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore(nil)
	s.RegisterReducer("count", 0, counter)

	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	s.Dispatch(incr{by: 1})
	unsub()
	s.Dispatch(incr{by: 1})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
