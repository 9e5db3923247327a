package route

import (
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
)

// Binding pairs a source key with the key it is copied to.
type Binding struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Bind copies source to target.
func Bind(source, target string) Binding {
	return Binding{Source: source, Target: target}
}

// Key copies a key under its own name.
func Key(key string) Binding {
	return Binding{Source: key, Target: key}
}

// Slice is one stage of a route's chain: an optional controller plus its I/O mapping.
type Slice struct {
	name      string
	factory   controller.Factory
	statics   map[string]any
	inputMap  []Binding
	storeIn   map[domain.StoreKind][]Binding
	outputMap map[string]string
	storeOut  map[domain.StoreKind][]Binding
	exits     map[int]domain.ExitState
}

// NewSlice builds a slice around a controller factory. A nil factory makes a
// controller-less slice whose resolved inputs become its outputs.
func NewSlice(factory controller.Factory) *Slice {
	return &Slice{
		factory:  factory,
		statics:  make(map[string]any),
		storeIn:  make(map[domain.StoreKind][]Binding),
		storeOut: make(map[domain.StoreKind][]Binding),
		exits:    make(map[int]domain.ExitState),
	}
}

// Named labels the slice for logs and metrics.
func (s *Slice) Named(name string) *Slice {
	s.name = name
	return s
}

// Static adds a constant input.
func (s *Slice) Static(key string, value any) *Slice {
	s.statics[key] = value
	return s
}

// Statics adds constant inputs.
func (s *Slice) Statics(values map[string]any) *Slice {
	for k, v := range values {
		s.statics[k] = v
	}
	return s
}

// InputMap copies accumulator keys to controller input keys.
func (s *Slice) InputMap(bindings ...Binding) *Slice {
	s.inputMap = append(s.inputMap, bindings...)
	return s
}

// StoreInput reads store keys into controller input keys.
func (s *Slice) StoreInput(kind domain.StoreKind, bindings ...Binding) *Slice {
	s.storeIn[kind] = append(s.storeIn[kind], bindings...)
	return s
}

// OutputMap restricts and renames controller outputs merged into the accumulator.
// Without an output map every output passes through.
func (s *Slice) OutputMap(m map[string]string) *Slice {
	if s.outputMap == nil {
		s.outputMap = make(map[string]string, len(m))
	}
	for k, v := range m {
		s.outputMap[k] = v
	}
	return s
}

// StoreOutput writes raw controller outputs into store keys.
func (s *Slice) StoreOutput(kind domain.StoreKind, bindings ...Binding) *Slice {
	s.storeOut[kind] = append(s.storeOut[kind], bindings...)
	return s
}

// Exit maps exit codes to exit states. A later state for the same code replaces the earlier one.
func (s *Slice) Exit(states ...domain.ExitState) *Slice {
	for _, st := range states {
		s.exits[st.Code] = st
	}
	return s
}

// Name returns the slice label.
func (s *Slice) Name() string { return s.name }

// Factory returns the controller factory, nil for controller-less slices.
func (s *Slice) Factory() controller.Factory { return s.factory }

// HasController reports whether the slice runs a controller.
func (s *Slice) HasController() bool { return s.factory != nil }

// StaticInputs returns a copy of the constant inputs.
func (s *Slice) StaticInputs() map[string]any { return copyStatics(s.statics) }

// InputBindings returns the accumulator-to-input aliases.
func (s *Slice) InputBindings() []Binding { return s.inputMap }

// StoreInputs returns the input bindings for one store.
func (s *Slice) StoreInputs(kind domain.StoreKind) []Binding { return s.storeIn[kind] }

// OutputAliases returns the output map and whether one is defined.
func (s *Slice) OutputAliases() (map[string]string, bool) {
	return s.outputMap, s.outputMap != nil
}

// StoreOutputs returns the output bindings for one store.
func (s *Slice) StoreOutputs(kind domain.StoreKind) []Binding { return s.storeOut[kind] }

// ExitState looks up the exit state mapped to code.
func (s *Slice) ExitState(code int) (domain.ExitState, bool) {
	st, ok := s.exits[code]
	return st, ok
}

// ExitStates returns every mapped exit state.
func (s *Slice) ExitStates() []domain.ExitState {
	out := make([]domain.ExitState, 0, len(s.exits))
	for _, st := range s.exits {
		out = append(out, st)
	}
	return out
}
