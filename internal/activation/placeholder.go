package activation

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"sync"

	"github.com/jyoonje/collabview-plugin/internal/host"
	"github.com/jyoonje/collabview-plugin/internal/resolver"
)

// Status is a placeholder's lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusChecking
	StatusIneligible
	StatusResolving
	StatusApplied
	StatusFailed
	// StatusSuperseded marks a cycle whose result lost to a newer activation.
	StatusSuperseded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusChecking:
		return "checking"
	case StatusIneligible:
		return "ineligible"
	case StatusResolving:
		return "resolving"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	case StatusSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Reason explains StatusIneligible.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonDenied is terminal for the current file.
	ReasonDenied
	// ReasonIdentityUnavailable waits for SetIdentity.
	ReasonIdentityUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonDenied:
		return "denied"
	case ReasonIdentityUnavailable:
		return "identity_unavailable"
	default:
		return ""
	}
}

// Snapshot is a point-in-time view of a placeholder.
type Snapshot struct {
	Status   Status
	Reason   Reason
	FileID   string
	URL      string
	Token    uint64
	Err      error
	Attempts int
}

// Placeholder is one mounted preview override. It issues at most one
// resolution per (file, user) pair unless Retry is called.
type Placeholder struct {
	c *Coordinator

	mu        sync.Mutex
	file      host.FileInfo
	identity  *host.Identity
	status    Status
	reason    Reason
	err       error
	url       string
	token     uint64
	attempts  int
	gen       uint64
	ticket    uint64
	cancel    context.CancelFunc
	done      chan struct{}
	settled   bool
	unmounted bool
}

func userID(identity *host.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.ID
}

// Update re-renders the placeholder with new props. A new cycle starts only
// when the file id or the acting user id changed.
func (p *Placeholder) Update(file host.FileInfo, identity *host.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	changed := file.ID != p.file.ID || userID(identity) != userID(p.identity)
	p.file = file
	p.identity = identity
	if changed {
		p.start()
	}
}

// SetIdentity supplies the acting user once the session has resolved it.
func (p *Placeholder) SetIdentity(identity *host.Identity) {
	p.mu.Lock()
	file := p.file
	p.mu.Unlock()
	p.Update(file, identity)
}

// Retry starts a new cycle after a failure. It reports whether one started.
func (p *Placeholder) Retry() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return false
	}
	switch p.status {
	case StatusFailed, StatusIdle, StatusSuperseded:
		p.start()
		return true
	default:
		return false
	}
}

// Unmount cancels any in-flight resolution. Results arriving later are
// dropped.
func (p *Placeholder) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	p.unmounted = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.c.release(p, p.ticket)
	p.settle()
}

// Status returns a snapshot of the placeholder.
func (p *Placeholder) Status() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Status:   p.status,
		Reason:   p.reason,
		FileID:   p.file.ID,
		URL:      p.url,
		Token:    p.token,
		Err:      p.err,
		Attempts: p.attempts,
	}
}

// State returns the lifecycle state as a string, with the reason appended
// for ineligible placeholders.
func (p *Placeholder) State() string {
	s := p.Status()
	if s.Status == StatusIneligible {
		return s.Status.String() + ":" + s.Reason.String()
	}
	return s.Status.String()
}

// Wait blocks until the current cycle settles or ctx is done.
func (p *Placeholder) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		done, settled := p.done, p.settled
		p.mu.Unlock()
		if settled {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

var placeholderTmpl = template.Must(template.New("placeholder").Parse(
	`<div class="collabview-placeholder" data-file-id="{{.FileID}}" data-state="{{.State}}">` +
		`{{if .Failed}}Viewer unavailable: {{.Error}}{{else}}CollabView Viewer Override{{end}}</div>`))

// Render returns the inert markup shown in place of the native preview.
func (p *Placeholder) Render() string {
	s := p.Status()
	data := struct {
		FileID string
		State  string
		Failed bool
		Error  string
	}{FileID: s.FileID, State: s.Status.String(), Failed: s.Status == StatusFailed}
	if s.Err != nil {
		data.Error = s.Err.Error()
	}
	var buf bytes.Buffer
	if err := placeholderTmpl.Execute(&buf, data); err != nil {
		p.c.log.Error("rendering placeholder", slog.Any("error", err))
		return ""
	}
	return buf.String()
}

// start begins a new cycle. p.mu must be held.
func (p *Placeholder) start() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if !p.settled {
		close(p.done)
	}
	p.done = make(chan struct{})
	p.settled = false
	p.err = nil
	p.reason = ReasonNone

	p.status = StatusChecking
	if p.c.policy != nil && !p.c.policy.Eligible(p.file) {
		p.status = StatusIneligible
		p.reason = ReasonDenied
		p.c.log.Debug("file not eligible for viewer", slog.String("file_id", p.file.ID))
		p.settle()
		return
	}
	if userID(p.identity) == "" {
		p.status = StatusIneligible
		p.reason = ReasonIdentityUnavailable
		p.settle()
		return
	}

	p.status = StatusResolving
	p.attempts++
	ctx, cancel := context.WithCancel(p.c.base)
	p.cancel = cancel
	p.ticket = p.c.begin(p, cancel)

	req := resolver.Request{
		FileID:        p.file.ID,
		FileName:      p.file.Name,
		FileExtension: p.file.Extension,
		UserID:        p.identity.ID,
		UserName:      p.identity.Name,
	}
	gen, ticket := p.gen, p.ticket

	p.c.inflight.Add(1)
	go func() {
		defer p.c.inflight.Done()
		defer cancel()
		res, err := p.c.resolver.Resolve(ctx, req)
		p.finish(gen, ticket, res, err)
	}()
}

// finish applies a settled resolution if it still belongs to the newest
// activation and to this placeholder's current cycle.
func (p *Placeholder) finish(gen, ticket uint64, res resolver.Result, err error) {
	p.mu.Lock()
	if p.unmounted || gen != p.gen {
		p.mu.Unlock()
		p.c.log.Debug("dropping late viewer resolution", slog.Uint64("ticket", ticket))
		return
	}
	p.cancel = nil

	c := p.c
	c.mu.Lock()
	newest := c.seq == ticket
	if newest {
		c.owner = nil
		c.cancel = nil
	}

	var opened, failed bool
	switch {
	case !newest:
		p.status = StatusSuperseded
	case err != nil && errors.Is(err, context.Canceled):
		p.status = StatusIdle
	case err != nil:
		p.status = StatusFailed
		p.err = err
		failed = true
	default:
		st := c.viewer.Publish(res.FinalURL)
		p.status = StatusApplied
		p.url = st.TargetURL
		p.token = st.ReloadToken
		opened = true
	}
	c.mu.Unlock()

	file := p.file
	status := p.status
	p.mu.Unlock()

	c.log.Debug("activation settled",
		slog.String("file_id", file.ID),
		slog.String("status", status.String()),
		slog.Uint64("ticket", ticket))

	if failed {
		c.reporter.Report(file, err)
	}
	if opened {
		c.open()
	}

	p.mu.Lock()
	if p.gen == gen {
		p.settle()
	}
	p.mu.Unlock()
}

// settle wakes Wait callers. p.mu must be held.
func (p *Placeholder) settle() {
	if !p.settled {
		p.settled = true
		close(p.done)
	}
}
