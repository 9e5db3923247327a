// Package codec serializes store values so they read back with the Go types
// they were written with.
//
// A value is written as a JSON envelope {"t": <type>, "v": <payload>}. Types
// are described by a small grammar: the builtin scalars, "time", "any", "[]T",
// "map[string]T" and names added with Register. An int written through Marshal
// comes back as an int, a []string as a []string. Values the grammar cannot
// describe fall back to plain JSON and come back as generic JSON values.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

const (
	kindNil  = "nil"
	kindJSON = "json"
	kindAny  = "any"
	kindTime = "time"
)

var (
	anyType  = reflect.TypeOf((*any)(nil)).Elem()
	timeType = reflect.TypeOf(time.Time{})

	scalars = map[string]reflect.Type{
		"bool":    reflect.TypeOf(false),
		"string":  reflect.TypeOf(""),
		"int":     reflect.TypeOf(int(0)),
		"int8":    reflect.TypeOf(int8(0)),
		"int16":   reflect.TypeOf(int16(0)),
		"int32":   reflect.TypeOf(int32(0)),
		"int64":   reflect.TypeOf(int64(0)),
		"uint":    reflect.TypeOf(uint(0)),
		"uint8":   reflect.TypeOf(uint8(0)),
		"uint16":  reflect.TypeOf(uint16(0)),
		"uint32":  reflect.TypeOf(uint32(0)),
		"uint64":  reflect.TypeOf(uint64(0)),
		"float32": reflect.TypeOf(float32(0)),
		"float64": reflect.TypeOf(float64(0)),
	}
	scalarNames = func() map[reflect.Type]string {
		m := make(map[reflect.Type]string, len(scalars))
		for n, t := range scalars {
			m[t] = n
		}
		return m
	}()

	registryMu sync.RWMutex
	byName     = map[string]reflect.Type{}
	byType     = map[reflect.Type]string{}
)

// Register makes the type of sample round-trip under name. Registered values
// are encoded with encoding/json, so their exported fields must survive it.
// Registering the same name twice panics.
func Register(name string, sample any) {
	t := reflect.TypeOf(sample)
	if t == nil || name == "" || strings.ContainsAny(name, "[]") {
		panic(fmt.Sprintf("codec: invalid registration %q", name))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if prev, ok := byName[name]; ok {
		if prev == t {
			return
		}
		panic(fmt.Sprintf("codec: %q already registered for %s", name, prev))
	}
	byName[name] = t
	byType[t] = name
}

type envelope struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// Marshal encodes v with its type.
func Marshal(v any) ([]byte, error) {
	env, err := encodeAny(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes data written by Marshal.
func Unmarshal(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	if env.T == "" {
		return nil, fmt.Errorf("codec: missing type")
	}
	return decodeAny(env)
}

func encodeAny(v any) (envelope, error) {
	if v == nil {
		return envelope{T: kindNil}, nil
	}
	rv := reflect.ValueOf(v)
	name, ok := describe(rv.Type())
	if !ok {
		raw, err := json.Marshal(v)
		if err != nil {
			return envelope{}, fmt.Errorf("codec: encode %T: %w", v, err)
		}
		return envelope{T: kindJSON, V: raw}, nil
	}
	raw, err := encode(rv, name)
	if err != nil {
		return envelope{}, err
	}
	return envelope{T: name, V: raw}, nil
}

func decodeAny(env envelope) (any, error) {
	switch env.T {
	case kindNil:
		return nil, nil
	case kindJSON:
		var v any
		if err := json.Unmarshal(env.V, &v); err != nil {
			return nil, fmt.Errorf("codec: %w", err)
		}
		return v, nil
	}
	t, err := typeOf(env.T)
	if err != nil {
		return nil, err
	}
	rv, err := decode(env.V, t)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// describe returns the type name of t, false when the grammar cannot express it.
func describe(t reflect.Type) (string, bool) {
	if n, ok := scalarNames[t]; ok {
		return n, true
	}
	switch t {
	case anyType:
		return kindAny, true
	case timeType:
		return kindTime, true
	}
	registryMu.RLock()
	n, ok := byType[t]
	registryMu.RUnlock()
	if ok {
		return n, true
	}

	switch {
	case t.Kind() == reflect.Slice && t.Name() == "":
		elem, ok := describe(t.Elem())
		return "[]" + elem, ok
	case t.Kind() == reflect.Map && t.Name() == "" && t.Key() == scalars["string"]:
		elem, ok := describe(t.Elem())
		return "map[string]" + elem, ok
	}
	return "", false
}

// typeOf is the inverse of describe.
func typeOf(name string) (reflect.Type, error) {
	if t, ok := scalars[name]; ok {
		return t, nil
	}
	switch {
	case name == kindAny:
		return anyType, nil
	case name == kindTime:
		return timeType, nil
	case strings.HasPrefix(name, "[]"):
		elem, err := typeOf(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "map[string]"):
		elem, err := typeOf(name[len("map[string]"):])
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(scalars["string"], elem), nil
	}
	registryMu.RLock()
	t, ok := byName[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codec: unknown type %q", name)
	}
	return t, nil
}

func encode(rv reflect.Value, name string) (json.RawMessage, error) {
	switch {
	case name == kindAny:
		if rv.IsNil() {
			return json.Marshal(envelope{T: kindNil})
		}
		env, err := encodeAny(rv.Elem().Interface())
		if err != nil {
			return nil, err
		}
		return json.Marshal(env)

	case name == "[]uint8":
		if rv.IsNil() {
			return json.RawMessage("null"), nil
		}
		return json.Marshal(base64.StdEncoding.EncodeToString(rv.Bytes()))

	case strings.HasPrefix(name, "[]"):
		if rv.IsNil() {
			return json.RawMessage("null"), nil
		}
		elemName := name[2:]
		items := make([]json.RawMessage, rv.Len())
		for i := range items {
			raw, err := encode(rv.Index(i), elemName)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = raw
		}
		return json.Marshal(items)

	case strings.HasPrefix(name, "map[string]"):
		if rv.IsNil() {
			return json.RawMessage("null"), nil
		}
		elemName := name[len("map[string]"):]
		items := make(map[string]json.RawMessage, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			raw, err := encode(iter.Value(), elemName)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			items[iter.Key().String()] = raw
		}
		return json.Marshal(items)
	}

	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", name, err)
	}
	return raw, nil
}

func decode(raw json.RawMessage, t reflect.Type) (reflect.Value, error) {
	isNull := len(raw) == 0 || bytes.Equal(raw, []byte("null"))

	switch {
	case t == anyType:
		out := reflect.New(anyType).Elem()
		if isNull {
			return out, nil
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return out, fmt.Errorf("codec: %w", err)
		}
		v, err := decodeAny(env)
		if err != nil {
			return out, err
		}
		if v != nil {
			out.Set(reflect.ValueOf(v))
		}
		return out, nil

	case t.Kind() == reflect.Slice && t.Elem() == scalars["uint8"] && t.Name() == "":
		if isNull {
			return reflect.Zero(t), nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %w", err)
		}
		return reflect.ValueOf(b), nil

	case t.Kind() == reflect.Slice && t.Name() == "" && !isRegistered(t):
		if isNull {
			return reflect.Zero(t), nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %w", err)
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			v, err := decode(item, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(v)
		}
		return out, nil

	case t.Kind() == reflect.Map && t.Name() == "" && !isRegistered(t):
		if isNull {
			return reflect.Zero(t), nil
		}
		var items map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %w", err)
		}
		out := reflect.MakeMapWithSize(t, len(items))
		for k, item := range items {
			v, err := decode(item, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), v)
		}
		return out, nil
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("codec: decode %s: %w", t, err)
	}
	return ptr.Elem(), nil
}

func isRegistered(t reflect.Type) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := byType[t]
	return ok
}
