package domain

import "fmt"

// ExitMode is the response action an ExitState triggers.
type ExitMode int

const (
	// ModeRender stops the chain and renders the target template.
	ModeRender ExitMode = iota
	// ModeRedirect stops the chain and sends the client to the target route path.
	ModeRedirect
	// ModeRewrite stops the chain and runs the target route's chain in-process.
	ModeRewrite
)

func (m ExitMode) String() string {
	switch m {
	case ModeRender:
		return "render"
	case ModeRedirect:
		return "redirect"
	case ModeRewrite:
		return "rewrite"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseExitMode maps a mode name to its ExitMode.
func ParseExitMode(s string) (ExitMode, error) {
	switch s {
	case "render", "":
		return ModeRender, nil
	case "redirect":
		return ModeRedirect, nil
	case "rewrite":
		return ModeRewrite, nil
	}
	return ModeRender, fmt.Errorf("unknown exit mode %q", s)
}

// ExitState maps a controller exit code to a response action.
// An empty Target means no target: the route's default template for renders.
type ExitState struct {
	Code   int      `json:"code"`
	Mode   ExitMode `json:"mode"`
	Target string   `json:"target,omitempty"`
}

// NewExitState builds an ExitState value.
func NewExitState(code int, mode ExitMode, target string) ExitState {
	return ExitState{Code: code, Mode: mode, Target: target}
}

// Render is shorthand for a render exit state.
func Render(code int, template string) ExitState {
	return NewExitState(code, ModeRender, template)
}

// Redirect is shorthand for a redirect exit state.
func Redirect(code int, path string) ExitState {
	return NewExitState(code, ModeRedirect, path)
}

// Rewrite is shorthand for a rewrite exit state.
func Rewrite(code int, path string) ExitState {
	return NewExitState(code, ModeRewrite, path)
}

// HasTarget reports whether the exit state names a template or route path.
func (e ExitState) HasTarget() bool {
	return e.Target != ""
}
