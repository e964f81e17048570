// Package render draws the viewer panel: an empty-state message until a URL
// is resolved, then an embedded frame remounted on every reload token.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"

	"github.com/jyoonje/collabview-plugin/internal/viewer"
)

// DefaultEmptyMessage is shown while no viewer URL has been resolved.
const DefaultEmptyMessage = "**No viewer URL to load.**\n\n" +
	"Open a supported file to show it here. To check the viewer endpoint by hand:\n\n" +
	"```sh\ncollabview resolve <file-id> --user <user-id>\n```\n"

// Frame is one mounted instance of the embedded viewer. A new instance is
// created for every reload token, even when the URL repeats.
type Frame struct {
	URL        string `json:"url"`
	Token      uint64 `json:"reloadKey"`
	InstanceID string `json:"instanceId"`
}

// Options configures a Renderer.
type Options struct {
	// EmptyMessage is markdown.
	EmptyMessage string
	Logger       *slog.Logger
}

// Renderer is the panel component for the viewer slot.
type Renderer struct {
	empty template.HTML
	log   *slog.Logger

	mu     sync.RWMutex
	frame  *Frame
	mounts int

	unsub func()
}

// New renders the empty-state markdown once and subscribes to vs.
func New(vs *viewer.Store, opts Options) (*Renderer, error) {
	if opts.EmptyMessage == "" {
		opts.EmptyMessage = DefaultEmptyMessage
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(opts.EmptyMessage), &buf); err != nil {
		return nil, fmt.Errorf("rendering empty-state message: %w", err)
	}

	r := &Renderer{
		empty: template.HTML(buf.String()),
		log:   opts.Logger,
	}
	r.apply(vs.State())
	r.unsub = vs.Subscribe(r.apply)
	return r, nil
}

func (r *Renderer) apply(st viewer.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.Empty() {
		r.frame = nil
		return
	}
	if r.frame != nil && r.frame.Token == st.ReloadToken {
		return
	}
	r.frame = &Frame{
		URL:        st.TargetURL,
		Token:      st.ReloadToken,
		InstanceID: uuid.New().String(),
	}
	r.mounts++
	r.log.Debug("viewer frame mounted",
		slog.Uint64("reload_key", st.ReloadToken),
		slog.String("instance_id", r.frame.InstanceID))
}

// Frame returns the mounted frame, if any.
func (r *Renderer) Frame() (Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.frame == nil {
		return Frame{}, false
	}
	return *r.frame, true
}

// Mounts counts frame instances created so far.
func (r *Renderer) Mounts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mounts
}

var panelTmpl = template.Must(template.New("panel").Parse(
	`{{if .Frame}}<div class="collabview-panel">` +
		`<iframe id="collabview-frame-{{.Frame.Token}}" data-reload-key="{{.Frame.Token}}" data-instance="{{.Frame.InstanceID}}" ` +
		`src="{{.Frame.URL}}" title="CollabView" style="width:100%;height:100%;border:0"></iframe></div>` +
		`{{else}}<div class="collabview-panel collabview-empty">{{.Empty}}</div>{{end}}`))

// Render writes the panel markup.
func (r *Renderer) Render(w io.Writer) error {
	data := struct {
		Frame *Frame
		Empty template.HTML
	}{Empty: r.empty}
	if f, ok := r.Frame(); ok {
		data.Frame = &f
	}
	return panelTmpl.Execute(w, data)
}

// Close stops following the viewer store.
func (r *Renderer) Close() {
	if r.unsub != nil {
		r.unsub()
	}
}
