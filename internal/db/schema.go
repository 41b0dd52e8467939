package db

import (
	"context"
	"strings"

	_ "embed"
)

//go:embed schema.sql
var Schema string

//go:embed schema_postgres.sql
var PostgresSchema string

// SchemaFor returns the reference schema written for the given dialect.
func SchemaFor(dialect Dialect) string {
	if dialect == DialectPostgres {
		return PostgresSchema
	}
	return Schema
}

// EnsureSchema creates any missing tables, it never alters existing ones.
// Statements are executed one at a time since not every driver accepts
// multiple statements per call.
func EnsureSchema(ctx context.Context, conn DBTX, dialect Dialect) error {
	for _, stmt := range strings.Split(SchemaFor(dialect), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := conn.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}
