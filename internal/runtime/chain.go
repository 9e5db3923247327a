package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/route"
)

// Stores maps each store kind to the store slices bind against for one request.
type Stores map[domain.StoreKind]ports.MemoryStore

// Execution is everything needed to run one route's chain.
type Execution struct {
	Route  *route.Route
	Group  *route.Group // nil runs the route's own slices only
	Method string

	// Data seeds the accumulator; nil seeds it from the route's static inputs.
	Data map[string]any

	Stores Stores
	Env    controller.Environment

	// RoutingCache controls group caching for rewrite lookups.
	RoutingCache bool
}

// Outcome is the result of a chain.
type Outcome struct {
	// Route is the route whose chain finished, after any rewrites.
	Route *route.Route
	Data  map[string]any

	Messages []domain.Message

	// Directive is the exit state that stopped the chain; nil when the chain ran out.
	Directive *domain.ExitState

	// Template is the render target: the directive's target or the route default.
	Template string

	Binary ports.BinaryView

	// LastCode is the exit code of the final slice run.
	LastCode int

	// Unmapped is set when the final slice returned a code with no exit state.
	Unmapped bool

	// Rewrites lists the rewrite targets followed, in order.
	Rewrites []string
}

// Redirect returns the pending client redirect target, if any.
func (o *Outcome) Redirect() (string, bool) {
	if o.Directive != nil && o.Directive.Mode == domain.ModeRedirect {
		return o.Directive.Target, true
	}
	return "", false
}

// Execute runs the chain of exec.Route, following rewrites.
// A controller error aborts the chain and is returned wrapped; store writes already made stay.
func (e *Engine) Execute(ctx context.Context, exec Execution) (*Outcome, error) {
	data := exec.Data
	if data == nil {
		data = exec.Route.StaticInputs()
	}
	out := &Outcome{}
	if err := e.run(ctx, exec, data, 0, out); err != nil {
		return out, err
	}
	return out, nil
}

func (e *Engine) run(ctx context.Context, exec Execution, data map[string]any, depth int, out *Outcome) error {
	r := exec.Route
	out.Route = r

	chain := r.Slices()
	if exec.Group != nil {
		chain = exec.Group.Chain(r)
	}

	logger := e.logger
	if exec.Env.Logger != nil {
		logger = exec.Env.Logger
	}

	var directive *domain.ExitState
	mapped := false
	for i, s := range chain {
		st, ok, err := e.runSlice(ctx, exec, logger, i, s, data, out)
		if err != nil {
			return err
		}
		mapped = ok
		if !ok {
			continue
		}

		if st.Mode == domain.ModeRewrite {
			return e.rewrite(ctx, exec, st, data, depth, out)
		}
		directive = &st
		break
	}

	out.Unmapped = len(chain) > 0 && !mapped
	if out.Unmapped {
		logger.Warn("chain ended on an unmapped exit code, rendering accumulated data",
			"route", r.Name(),
			"exit_code", out.LastCode,
		)
	}

	if m, ok := r.OutputAliases(); ok {
		data = applyOutputMap(data, m)
	}

	out.Data = data
	out.Directive = directive
	out.Template = r.DefaultTemplate()
	if directive != nil && directive.Mode == domain.ModeRender && directive.HasTarget() {
		out.Template = directive.Target
	}
	return nil
}

func (e *Engine) rewrite(ctx context.Context, exec Execution, st domain.ExitState, data map[string]any, depth int, out *Outcome) error {
	if depth+1 > e.maxRewriteDepth {
		return fmt.Errorf("%w: %s -> %s after %d rewrites", domain.ErrRewriteLoop, exec.Route.Name(), st.Target, depth)
	}

	target, group, err := e.Lookup(ctx, st.Target, exec.Method, exec.RoutingCache)
	if err != nil {
		// %v drops the RoutingError so the fault maps to a server error.
		return fmt.Errorf("%w: %s -> %s: %v", domain.ErrRewriteTarget, exec.Route.Name(), st.Target, err)
	}

	if e.hooks.OnRewrite != nil {
		e.hooks.OnRewrite(ctx, &domain.RewriteEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRewrite, RequestID: requestID(ctx)},
			From:      exec.Route.Name(),
			To:        st.Target,
			Depth:     depth + 1,
		})
	}
	out.Rewrites = append(out.Rewrites, st.Target)

	// The target's static inputs sit under the carried accumulator.
	seed := target.StaticInputs()
	for k, v := range data {
		seed[k] = v
	}

	next := exec
	next.Route = target
	next.Group = group
	return e.run(ctx, next, seed, depth+1, out)
}

// runSlice runs one slice and merges its results into data and out.
// It returns the exit state mapped to the slice's code, if any.
func (e *Engine) runSlice(ctx context.Context, exec Execution, logger *slog.Logger, idx int, s *route.Slice, data map[string]any, out *Outcome) (domain.ExitState, bool, error) {
	inputs, err := resolveInputs(ctx, s, data, exec.Stores)
	if err != nil {
		return domain.ExitState{}, false, fmt.Errorf("slice %d of route %q: %w", idx, exec.Route.Name(), err)
	}

	name := s.Name()
	code := domain.ExitSuccess
	outputs := inputs

	if s.HasController() {
		c := s.Factory()()
		if name == "" {
			name = controller.Name(c)
		}

		ev := &domain.SliceEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventSliceEnter, RequestID: requestID(ctx)},
			Route:      exec.Route.Name(),
			Index:      idx,
			Controller: name,
		}
		if e.hooks.OnSliceEnter != nil {
			e.hooks.OnSliceEnter(ctx, ev)
		}

		x := controller.NewExchange(inputs, exec.Env)
		start := time.Now()
		code, err = c.Main(ctx, x)
		out.Messages = append(out.Messages, x.Messages()...)

		_, isMapped := s.ExitState(code)
		if e.hooks.OnSliceLeave != nil {
			e.hooks.OnSliceLeave(ctx, &domain.SliceEvent{
				EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventSliceLeave, RequestID: requestID(ctx)},
				Route:      exec.Route.Name(),
				Index:      idx,
				Controller: name,
				ExitCode:   code,
				Mapped:     isMapped && err == nil,
				Duration:   time.Since(start),
			})
		}
		if err != nil {
			return domain.ExitState{}, false, fmt.Errorf("controller %s (slice %d of route %q): %w", name, idx, exec.Route.Name(), err)
		}

		outputs = x.Outputs()
		if v := x.BinaryView(); v != nil {
			out.Binary = v
		}
	}

	mergeOutputs(data, outputs, s)
	if err := writeStoreOutputs(ctx, s, outputs, exec.Stores); err != nil {
		return domain.ExitState{}, false, fmt.Errorf("slice %d of route %q: %w", idx, exec.Route.Name(), err)
	}

	out.LastCode = code
	st, ok := s.ExitState(code)
	logger.Debug("slice finished",
		"route", exec.Route.Name(),
		"slice", idx,
		"controller", name,
		"exit_code", code,
		"mapped", ok,
	)
	return st, ok, nil
}
