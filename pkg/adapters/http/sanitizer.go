package http

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB per parameter value.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "LEYNOS_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	nonWordPattern = regexp.MustCompile(`\W+`)
)

// SanitizeKey reduces a parameter name to word characters.
func SanitizeKey(key string) string {
	return nonWordPattern.ReplaceAllString(key, "")
}

// SanitizeValue cleans one parameter value: the size limit is enforced, UTF-8
// is validated, markup tags are removed and control characters other than
// newline, tab and carriage return are stripped.
func SanitizeValue(input string) (string, error) {
	limit := getMaxInputSize()
	if len(input) > limit {
		// Rejected rather than truncated.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	input = tagPattern.ReplaceAllString(input, "")

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeParams turns form values into request parameters. Single values
// become strings, repeated keys become a list. Keys that are empty once
// sanitized are dropped.
func SanitizeParams(values url.Values) (map[string]any, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(map[string]any, len(values))
	for _, raw := range keys {
		key := SanitizeKey(raw)
		if key == "" {
			continue
		}

		vs := values[raw]
		clean := make([]any, 0, len(vs))
		for _, v := range vs {
			c, err := SanitizeValue(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			clean = append(clean, c)
		}

		switch len(clean) {
		case 0:
		case 1:
			params[key] = clean[0]
		default:
			params[key] = clean
		}
	}
	return params, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
