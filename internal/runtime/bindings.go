package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/route"
)

// resolveInputs builds a slice's controller inputs. Later sources win:
// accumulator, static inputs, accumulator aliases, store bindings.
func resolveInputs(ctx context.Context, s *route.Slice, data map[string]any, stores Stores) (map[string]any, error) {
	in := make(map[string]any, len(data))
	for k, v := range data {
		in[k] = v
	}
	for k, v := range s.StaticInputs() {
		in[k] = v
	}
	for _, b := range s.InputBindings() {
		in[b.Target] = data[b.Source]
	}

	for _, kind := range domain.StoreKinds {
		bindings := s.StoreInputs(kind)
		if len(bindings) == 0 {
			continue
		}
		store, err := storeFor(stores, kind)
		if err != nil {
			return nil, err
		}
		for _, b := range bindings {
			v, _, err := store.Get(ctx, b.Source)
			if err != nil {
				return nil, fmt.Errorf("read %s store key %q: %w", kind, b.Source, err)
			}
			in[b.Target] = v
		}
	}
	return in, nil
}

// mergeOutputs folds controller outputs into the accumulator through the slice's output map.
func mergeOutputs(data, outputs map[string]any, s *route.Slice) {
	m, ok := s.OutputAliases()
	if !ok {
		for k, v := range outputs {
			data[k] = v
		}
		return
	}
	for src, dst := range m {
		if v, present := outputs[src]; present {
			data[dst] = v
		}
	}
}

// writeStoreOutputs copies raw outputs into stores. Keys the controller did not produce are skipped.
func writeStoreOutputs(ctx context.Context, s *route.Slice, outputs map[string]any, stores Stores) error {
	for _, kind := range domain.StoreKinds {
		bindings := s.StoreOutputs(kind)
		if len(bindings) == 0 {
			continue
		}
		store, err := storeFor(stores, kind)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			v, present := outputs[b.Source]
			if !present {
				continue
			}
			if err := store.Set(ctx, b.Target, v); err != nil {
				return fmt.Errorf("write %s store key %q: %w", kind, b.Target, err)
			}
		}
	}
	return nil
}

// applyOutputMap replaces the accumulator with exactly the mapped destination keys.
func applyOutputMap(data map[string]any, m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for src, dst := range m {
		out[dst] = data[src]
	}
	return out
}

func storeFor(stores Stores, kind domain.StoreKind) (ports.MemoryStore, error) {
	store, ok := stores[kind]
	if !ok || store == nil {
		return nil, fmt.Errorf("%s store is not available", kind)
	}
	return store, nil
}
