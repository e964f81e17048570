// Package plugin wires the viewer components into a host: the viewer store,
// panel controller, renderer and activation coordinator.
package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/jyoonje/collabview-plugin/internal/activation"
	"github.com/jyoonje/collabview-plugin/internal/eligibility"
	"github.com/jyoonje/collabview-plugin/internal/host"
	"github.com/jyoonje/collabview-plugin/internal/notify"
	"github.com/jyoonje/collabview-plugin/internal/panel"
	"github.com/jyoonje/collabview-plugin/internal/render"
	"github.com/jyoonje/collabview-plugin/internal/viewer"
)

// DefaultPanelTitle is the side-panel header.
const DefaultPanelTitle = "CollabView"

// Options configures Initialize. Resolver is required.
type Options struct {
	Resolver activation.Resolver
	Policy   *eligibility.Policy
	// Notifier carries open requests across contexts. When nil an
	// in-process bus is used.
	Notifier notify.Notifier
	// UseNotifier routes activation open requests through Notifier instead
	// of calling the panel controller directly.
	UseNotifier  bool
	Reporter     activation.Reporter
	SlotID       string
	PanelTitle   string
	EmptyMessage string
	Logger       *slog.Logger
	BaseContext  context.Context
}

// publisher is implemented by notifiers that can push viewer updates to
// remote windows.
type publisher interface {
	Publish(msg notify.Message)
}

// routable is implemented by notifiers that expose an HTTP endpoint.
type routable interface {
	RegisterRoutes(r chi.Router)
}

// Plugin is an initialized viewer plugin.
type Plugin struct {
	Viewer      *viewer.Store
	Panel       *panel.Controller
	Renderer    *render.Renderer
	Coordinator *activation.Coordinator
	Notifier    notify.Notifier
	Handle      host.PanelHandle

	title   string
	log     *slog.Logger
	closers []func()
}

// Initialize registers the viewer slot and the file-preview override with
// reg, keeping all state in hs.
func Initialize(reg *host.Registry, hs *host.Store, opts Options) (*Plugin, error) {
	if reg == nil || hs == nil {
		return nil, fmt.Errorf("initializing plugin: registry and store are required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("initializing plugin: resolver is required")
	}
	if opts.Policy == nil {
		opts.Policy = eligibility.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewBus()
	}
	if opts.SlotID == "" {
		opts.SlotID = activation.DefaultSlotID
	}
	if opts.PanelTitle == "" {
		opts.PanelTitle = DefaultPanelTitle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger

	vs, err := viewer.NewStore(hs)
	if err != nil {
		return nil, err
	}
	pc, err := panel.NewController(hs, log)
	if err != nil {
		return nil, err
	}
	rd, err := render.New(vs, render.Options{EmptyMessage: opts.EmptyMessage, Logger: log})
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		Viewer:   vs,
		Panel:    pc,
		Renderer: rd,
		Notifier: opts.Notifier,
		title:    opts.PanelTitle,
		log:      log,
	}
	p.closers = append(p.closers, rd.Close)

	p.Handle, err = reg.RegisterPanel(opts.SlotID, opts.PanelTitle, rd)
	if err != nil {
		rd.Close()
		return nil, err
	}

	var opener activation.Opener = pc
	if opts.UseNotifier {
		opener = nil
	}
	p.Coordinator, err = activation.New(activation.Options{
		Resolver:    opts.Resolver,
		Viewer:      vs,
		Panel:       opener,
		Notifier:    opts.Notifier,
		Reporter:    opts.Reporter,
		Policy:      opts.Policy,
		SlotID:      opts.SlotID,
		Logger:      log,
		BaseContext: opts.BaseContext,
	})
	if err != nil {
		rd.Close()
		return nil, err
	}

	slot := opts.SlotID
	p.closers = append(p.closers, opts.Notifier.OnOpenRequested(func() {
		pc.EnsureOpen(slot)
	}))

	if pub, ok := opts.Notifier.(publisher); ok {
		p.closers = append(p.closers, vs.Subscribe(func(st viewer.State) {
			pub.Publish(notify.Message{
				Type:  notify.ResolvedMessageType,
				Token: st.ReloadToken,
				URL:   st.TargetURL,
			})
		}))
	}

	coord := p.Coordinator
	reg.RegisterFilePreview(opts.Policy.Eligible, func(file host.FileInfo, identity *host.Identity) host.PreviewComponent {
		return coord.Mount(file, identity)
	})

	log.Info("viewer plugin initialized",
		slog.String("slot", slot),
		slog.Bool("via_notifier", opts.UseNotifier))
	return p, nil
}

// RegisterRoutes mounts the panel, viewer and notifier endpoints.
func (p *Plugin) RegisterRoutes(r chi.Router) {
	slot := p.Coordinator.SlotID()
	panel.RegisterRoutes(r, p.Panel, slot)
	p.Renderer.RegisterRoutes(r, render.PageOptions{Title: p.title, Slot: slot, Panel: p.Panel})
	if rt, ok := p.Notifier.(routable); ok {
		rt.RegisterRoutes(r)
	}
}

// Close stops in-flight resolutions and detaches every subscription.
func (p *Plugin) Close() {
	p.Coordinator.Close()
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}
