package panel

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jyoonje/collabview-plugin/internal/host"
)

// Controller performs visibility transitions against the host store. Every
// operation reads the current slot and dispatches inside one thunk.
type Controller struct {
	hs  *host.Store
	log *slog.Logger
}

// NewController registers the visibility reducer with hs.
func NewController(hs *host.Store, log *slog.Logger) (*Controller, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := hs.RegisterReducer(Key, Visibility{}, reducer); err != nil {
		return nil, fmt.Errorf("registering panel reducer: %w", err)
	}
	return &Controller{hs: hs, log: log}, nil
}

// Visibility returns the current panel state.
func (c *Controller) Visibility() Visibility {
	v, _ := c.hs.Get(Key).(Visibility)
	return v
}

// Active returns the active slot, if any.
func (c *Controller) Active() (string, bool) {
	return c.Visibility().Active()
}

// Toggle shows slot if it is hidden and hides it if it is shown. It reports
// whether slot is open afterwards.
func (c *Controller) Toggle(slot string) bool {
	var open bool
	c.hs.Thunk(func(dispatch host.Dispatch, getState host.GetState) {
		cur, _ := getState(Key).(Visibility)
		dispatch(Toggle(cur, slot))
		next, _ := getState(Key).(Visibility)
		open = next.ActiveSlotID == slot
	})
	c.log.Debug("panel toggled", slog.String("slot", slot), slog.Bool("open", open))
	return open
}

// EnsureOpen shows slot unless it is already the active slot. Unlike Toggle,
// calling it twice never closes the panel. It reports whether anything
// changed.
func (c *Controller) EnsureOpen(slot string) bool {
	changed := false
	c.hs.Thunk(func(dispatch host.Dispatch, getState host.GetState) {
		cur, _ := getState(Key).(Visibility)
		if cur.ActiveSlotID == slot {
			return
		}
		dispatch(Show{SlotID: slot})
		changed = true
	})
	if changed {
		c.log.Debug("panel opened", slog.String("slot", slot))
	}
	return changed
}

// Close hides slot if it is active. It reports whether anything changed.
func (c *Controller) Close(slot string) bool {
	changed := false
	c.hs.Thunk(func(dispatch host.Dispatch, getState host.GetState) {
		cur, _ := getState(Key).(Visibility)
		if cur.ActiveSlotID != slot {
			return
		}
		dispatch(Hide{SlotID: slot})
		changed = true
	})
	return changed
}

// Subscribe calls fn whenever the visibility changes.
func (c *Controller) Subscribe(fn func(Visibility)) func() {
	var mu sync.Mutex
	last := c.Visibility()
	return c.hs.Subscribe(func() {
		mu.Lock()
		defer mu.Unlock()
		cur := c.Visibility()
		if cur == last {
			return
		}
		last = cur
		fn(cur)
	})
}
