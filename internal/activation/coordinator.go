// Package activation runs the per-placeholder lifecycle that turns a file
// preview into a resolved viewer URL and an open viewer panel.
package activation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jyoonje/collabview-plugin/internal/host"
	"github.com/jyoonje/collabview-plugin/internal/notify"
	"github.com/jyoonje/collabview-plugin/internal/resolver"
	"github.com/jyoonje/collabview-plugin/internal/viewer"
)

// DefaultSlotID is the panel slot the viewer occupies.
const DefaultSlotID = "viewer"

// Resolver turns an activation request into a viewer URL.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) (resolver.Result, error)
}

// Publisher records a resolved URL with a fresh reload token.
type Publisher interface {
	Publish(url string) viewer.State
}

// Opener makes a panel slot visible without ever closing it.
type Opener interface {
	EnsureOpen(slot string) bool
}

// Eligibility decides whether a file is handled at all.
type Eligibility interface {
	Eligible(file host.FileInfo) bool
}

// Reporter receives resolution failures.
type Reporter interface {
	Report(file host.FileInfo, err error)
}

type logReporter struct {
	log *slog.Logger
}

func (r logReporter) Report(file host.FileInfo, err error) {
	r.log.Error("viewer resolution failed",
		slog.String("file_id", file.ID),
		slog.String("file_name", file.Name),
		slog.Any("error", err))
}

// Options configures a Coordinator. Resolver and Viewer are required. When
// Panel is nil the open request goes through Notifier instead.
type Options struct {
	Resolver    Resolver
	Viewer      Publisher
	Panel       Opener
	Notifier    notify.Notifier
	Reporter    Reporter
	Policy      Eligibility
	SlotID      string
	Logger      *slog.Logger
	BaseContext context.Context
}

// Coordinator is shared by every placeholder. It numbers activations so that
// only the newest one may publish.
type Coordinator struct {
	resolver Resolver
	viewer   Publisher
	panel    Opener
	notifier notify.Notifier
	reporter Reporter
	policy   Eligibility
	slot     string
	log      *slog.Logger

	base     context.Context
	stop     context.CancelFunc
	inflight sync.WaitGroup

	mu     sync.Mutex
	seq    uint64
	owner  *Placeholder
	cancel context.CancelFunc
}

// New creates a Coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("creating coordinator: resolver is required")
	}
	if opts.Viewer == nil {
		return nil, fmt.Errorf("creating coordinator: viewer store is required")
	}
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Coordinator{
		resolver: opts.Resolver,
		viewer:   opts.Viewer,
		panel:    opts.Panel,
		notifier: opts.Notifier,
		reporter: opts.Reporter,
		policy:   opts.Policy,
		slot:     opts.SlotID,
		log:      log,
	}
	c.base, c.stop = context.WithCancel(base)
	if c.reporter == nil {
		c.reporter = logReporter{log: log}
	}
	if c.slot == "" {
		c.slot = DefaultSlotID
	}
	return c, nil
}

// SlotID returns the panel slot activations open.
func (c *Coordinator) SlotID() string { return c.slot }

// Mount starts the lifecycle of a new placeholder for file.
func (c *Coordinator) Mount(file host.FileInfo, identity *host.Identity) *Placeholder {
	p := &Placeholder{
		c:        c,
		file:     file,
		identity: identity,
		done:     make(chan struct{}),
	}
	p.mu.Lock()
	p.start()
	p.mu.Unlock()
	return p
}

// Close cancels every in-flight resolution and waits for their goroutines.
func (c *Coordinator) Close() {
	c.stop()
	c.inflight.Wait()
}

// begin issues a new ticket for p and cancels the previous in-flight
// activation, if another placeholder owns it.
func (c *Coordinator) begin(p *Placeholder, cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil && c.owner != p {
		c.cancel()
	}
	c.seq++
	c.owner = p
	c.cancel = cancel
	return c.seq
}

// release forgets p's in-flight activation if it is still the newest.
func (c *Coordinator) release(p *Placeholder, ticket uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == p && c.seq == ticket {
		c.owner = nil
		c.cancel = nil
	}
}

// open makes the viewer slot visible, directly when a panel is wired.
func (c *Coordinator) open() {
	switch {
	case c.panel != nil:
		c.panel.EnsureOpen(c.slot)
	case c.notifier != nil:
		c.notifier.NotifyOpen()
	default:
		c.log.Warn("no panel or notifier wired, viewer stays hidden")
	}
}
