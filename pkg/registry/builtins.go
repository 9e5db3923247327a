package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/schema"
)

// Names of the built-in controllers.
const (
	Echo     = "echo"
	Message  = "message"
	Failure  = "fail"
	SQL      = "sql"
	Validate = "validate"
)

// RegisterBuiltins adds the built-in controllers to r.
func RegisterBuiltins(r *Registry) {
	r.Register(Echo, controller.Of(echo{}))
	r.Register(Message, controller.Of(message{}))
	r.Register(Failure, controller.Of(failure{}))
	r.Register(SQL, controller.Of(query{}))
	r.Register(Validate, controller.Of(validate{}))
}

// echo copies its inputs to its outputs.
type echo struct{}

func (echo) Name() string { return Echo }

func (echo) Main(_ context.Context, x *controller.Exchange) (int, error) {
	x.SetAll(x.Inputs())
	return domain.ExitSuccess, nil
}

// message queues the "message" input for the caller, typed by the "type" input
// (notice, success or failure).
type message struct{}

func (message) Name() string { return Message }

func (message) Main(_ context.Context, x *controller.Exchange) (int, error) {
	text := x.String("message")
	if text == "" {
		return domain.ExitInputFailure, nil
	}

	t := domain.MessageNotice
	switch x.String("type") {
	case "success":
		t = domain.MessageSuccess
	case "failure":
		t = domain.MessageFailure
	}
	x.AddMessage(t, text)
	return domain.ExitSuccess, nil
}

// failure ends the slice with the failure code and the "error" input as message.
type failure struct{}

func (failure) Name() string { return Failure }

func (failure) Main(_ context.Context, x *controller.Exchange) (int, error) {
	msg := x.String(domain.KeyError)
	if msg == "" {
		msg = "failure"
	}
	x.Set(domain.KeyError, msg)
	return domain.ExitFailure, nil
}

// query runs the "query" input against the "db" alias with the "args" input as
// parameters and outputs the rows under "rows" (or the key named by "into").
type query struct{}

func (query) Name() string { return SQL }

func (query) Main(ctx context.Context, x *controller.Exchange) (int, error) {
	stmt := x.String("query")
	if stmt == "" {
		return domain.ExitInputFailure, nil
	}
	into := x.String("into")
	if into == "" {
		into = "rows"
	}

	var args []any
	switch v := x.Get("args").(type) {
	case nil:
	case []any:
		args = v
	default:
		args = []any{v}
	}

	conn, err := x.DB(ctx, x.String("db"))
	if err != nil {
		if errors.Is(err, domain.ErrDatabaseDisabled) {
			return 0, err
		}
		x.Set(domain.KeyError, err.Error())
		return domain.ExitDatabaseFailure, nil
	}

	rows, err := conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		x.Set(domain.KeyError, err.Error())
		return domain.ExitDatabaseFailure, nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("read columns: %w", err)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		x.Set(domain.KeyError, err.Error())
		return domain.ExitDatabaseFailure, nil
	}

	x.Set(into, out)
	return domain.ExitSuccess, nil
}

// validate coerces its inputs to the types named by the "schema" input, a map
// of field to type name ("int", "[string]", "bool?"). The typed fields become
// the outputs. On failure the problems are queued as failure messages.
type validate struct{}

func (validate) Name() string { return Validate }

func (validate) Main(_ context.Context, x *controller.Exchange) (int, error) {
	raw, ok := x.Get("schema").(map[string]any)
	if !ok || len(raw) == 0 {
		return 0, fmt.Errorf("validate: static input \"schema\" must be a non-empty map")
	}
	types := make(map[string]string, len(raw))
	for field, v := range raw {
		name, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("validate: type of %q must be a string, got %T", field, v)
		}
		types[field] = name
	}
	s, err := schema.ParseTypeMap(types)
	if err != nil {
		return 0, fmt.Errorf("validate: %w", err)
	}

	typed, err := schema.Coerce(s, x.Inputs())
	if err != nil {
		for _, e := range schema.ValidationErrors(err) {
			x.AddMessage(domain.MessageFailure, e.Error())
		}
		x.Set(domain.KeyError, err.Error())
		return domain.ExitInputFailure, nil
	}
	x.SetAll(typed)
	return domain.ExitSuccess, nil
}
