package codec_test

import (
	"math"
	"testing"
	"time"

	"github.com/aretw0/leynos/pkg/persistence/codec"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type unregistered struct {
	Name string `json:"name"`
}

func init() {
	codec.Register("codec_test.point", point{})
}

func TestRoundTrip(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"int", 42},
		{"int64 beyond float precision", int64(math.MaxInt64)},
		{"uint8", uint8(7)},
		{"float64", 2.5},
		{"bool", true},
		{"string", "hello"},
		{"time", when},
		{"bytes", []byte("raw\x00bytes")},
		{"string slice", []string{"a", "b"}},
		{"empty slice", []int{}},
		{"nil slice", []string(nil)},
		{"any slice", []any{1, "two", 3.0, nil, []string{"x"}}},
		{"map", map[string]any{
			"hits":  3,
			"tags":  []string{"go"},
			"inner": map[string]any{"n": int64(1), "ok": false},
			"none":  nil,
		}},
		{"typed map", map[string]int{"a": 1}},
		{"rows", []map[string]any{{"id": int64(1), "name": "ana"}}},
		{"registered", point{X: 1, Y: 2}},
		{"registered slice", []point{{1, 2}, {3, 4}}},
		{"registered in map", map[string]any{"p": point{X: 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := codec.Marshal(tt.value)
			require.NoError(t, err)

			got, err := codec.Unmarshal(data)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.value, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownTypesFallBackToJSON(t *testing.T) {
	data, err := codec.Marshal(map[string]any{"u": unregistered{Name: "x"}, "n": 1})
	require.NoError(t, err)

	got, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"u": map[string]any{"name": "x"}, "n": 1}, got)
}

func TestErrors(t *testing.T) {
	_, err := codec.Marshal(make(chan int))
	assert.Error(t, err)

	_, err = codec.Marshal(math.NaN())
	assert.Error(t, err)

	tests := []string{
		`not json`,
		`{"v":1}`,
		`{"t":"mystery","v":1}`,
		`{"t":"int","v":"x"}`,
		`{"t":"[]int","v":[1,"x"]}`,
	}
	for _, in := range tests {
		_, err := codec.Unmarshal([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestRegister(t *testing.T) {
	codec.Register("codec_test.point", point{})

	assert.Panics(t, func() { codec.Register("codec_test.point", unregistered{}) })
	assert.Panics(t, func() { codec.Register("[]bad", point{}) })
	assert.Panics(t, func() { codec.Register("nil", nil) })
}
