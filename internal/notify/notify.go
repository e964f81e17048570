// Package notify carries the "open the viewer panel" signal between
// components that hold no direct reference to each other.
package notify

import "sync"

// Message type tags.
const (
	OpenMessageType     = "openRHSPlugin"
	ResolvedMessageType = "viewerResolved"
)

// Message is the payload exchanged with browser windows.
type Message struct {
	Type  string `json:"type"`
	Token uint64 `json:"token,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Notifier delivers open requests to whoever listens at the time. Signals
// sent with no listener are dropped, not queued.
type Notifier interface {
	NotifyOpen()
	OnOpenRequested(fn func()) (cancel func())
}

// Bus is the in-process Notifier.
type Bus struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]func()
}

// NewBus creates a Bus with no listeners.
func NewBus() *Bus {
	return &Bus{listeners: make(map[uint64]func())}
}

// NotifyOpen calls every registered listener.
func (b *Bus) NotifyOpen() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnOpenRequested registers fn until cancel is called.
func (b *Bus) OnOpenRequested(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Listeners reports how many listeners are registered.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
