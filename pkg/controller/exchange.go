package controller

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"golang.org/x/text/language"
)

// Environment carries the request-scoped collaborators handed to every controller.
type Environment struct {
	Request        *domain.Request
	DocumentRoot   string
	AcceptLanguage string
	Languages      []language.Tag
	Location       *time.Location

	Headers   ports.HeaderWriter
	Session   ports.MemoryStore
	Store     ports.MemoryStore
	Templates ports.TemplateEngine // nil unless the template engine is enabled
	Databases ports.Databases      // nil when database connections are disabled

	Identity domain.Identity
	Logger   *slog.Logger
}

// ParseLanguages parses an Accept-Language header, best match first.
// Malformed headers yield no tags.
func ParseLanguages(header string) []language.Tag {
	if header == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	return tags
}

// Exchange is the per-invocation record of one controller run: its inputs, outputs and messages.
type Exchange struct {
	Environment

	in       map[string]any
	out      map[string]any
	messages []domain.Message
	binary   ports.BinaryView
}

// NewExchange builds an exchange over the resolved inputs.
func NewExchange(in map[string]any, env Environment) *Exchange {
	if in == nil {
		in = make(map[string]any)
	}
	if env.Location == nil {
		env.Location = time.UTC
	}
	return &Exchange{
		Environment: env,
		in:          in,
		out:         make(map[string]any),
	}
}

// Input reads a resolved input.
func (x *Exchange) Input(key string) (any, bool) {
	v, ok := x.in[key]
	return v, ok
}

// Get reads a resolved input, nil when absent.
func (x *Exchange) Get(key string) any {
	return x.in[key]
}

// String reads an input as a string. Non-string values are formatted.
func (x *Exchange) String(key string) string {
	switch v := x.in[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool reads an input as a bool; absent or non-bool values are false.
func (x *Exchange) Bool(key string) bool {
	b, _ := x.in[key].(bool)
	return b
}

// Inputs returns a copy of every resolved input.
func (x *Exchange) Inputs() map[string]any {
	out := make(map[string]any, len(x.in))
	for k, v := range x.in {
		out[k] = v
	}
	return out
}

// Set writes one output.
func (x *Exchange) Set(key string, value any) {
	x.out[key] = value
}

// SetAll writes every entry of values as outputs.
func (x *Exchange) SetAll(values map[string]any) {
	for k, v := range values {
		x.out[k] = v
	}
}

// Outputs returns the raw output bag.
func (x *Exchange) Outputs() map[string]any {
	return x.out
}

// AddMessage queues a user-facing message.
func (x *Exchange) AddMessage(t domain.MessageType, text string) {
	x.messages = append(x.messages, domain.NewMessage(t, text))
}

// Messages returns the messages queued by this invocation.
func (x *Exchange) Messages() []domain.Message {
	return x.messages
}

// SetBinaryView hands a file-producing view to the renderer. Nil is ignored
// so later controllers can't clear an earlier view by accident.
func (x *Exchange) SetBinaryView(v ports.BinaryView) {
	if v != nil {
		x.binary = v
	}
}

// BinaryView returns the view set by this invocation, if any.
func (x *Exchange) BinaryView() ports.BinaryView {
	return x.binary
}

// DB returns the request's connection for alias, opening it on first use.
func (x *Exchange) DB(ctx context.Context, alias string) (*sql.Conn, error) {
	if x.Databases == nil {
		return nil, domain.ErrDatabaseDisabled
	}
	return x.Databases.Conn(ctx, alias)
}

// Now returns the current time in the configured location.
func (x *Exchange) Now() time.Time {
	return time.Now().In(x.Location)
}
