// Package viewer holds the resolved viewer target shown in the side panel and
// the reload token that forces the panel to remount its frame.
package viewer

import (
	"github.com/jyoonje/collabview-plugin/internal/host"
)

// Key is the host store slice the viewer state lives under.
const Key = "viewer"

// ActionShowViewer tags Resolved actions.
const ActionShowViewer = "RHS_SHOW_VIEWER"

// State is the current viewer target. An empty TargetURL means there is
// nothing to show.
type State struct {
	TargetURL   string `json:"finalURL"`
	ReloadToken uint64 `json:"reloadKey"`
}

// Empty reports whether there is nothing to show.
func (s State) Empty() bool { return s.TargetURL == "" }

// Resolved records a successful URL resolution.
type Resolved struct {
	URL   string
	Token uint64
}

// Type implements host.Action.
func (Resolved) Type() string { return ActionShowViewer }

// Apply is the viewer reducer. Resolved replaces the state; replaying it with
// an unchanged token yields the same state. A Resolved whose token is lower
// than the current one is malformed and dropped, as is anything else.
func Apply(s State, action host.Action) State {
	var ev Resolved
	switch a := action.(type) {
	case Resolved:
		ev = a
	case *Resolved:
		if a == nil {
			return s
		}
		ev = *a
	default:
		return s
	}
	if ev.Token < s.ReloadToken {
		return s
	}
	return State{TargetURL: ev.URL, ReloadToken: ev.Token}
}

func reducer(state any, action host.Action) any {
	s, _ := state.(State)
	return Apply(s, action)
}
