package ports

import (
	"context"
	"database/sql"
)

// Databases hands out connections by alias. Connections are opened on first use
// and reused for the remainder of the request.
type Databases interface {
	Conn(ctx context.Context, alias string) (*sql.Conn, error)
}
