package testutil

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"apkfetch/internal/components/telemetry"
	"apkfetch/internal/db"
	"apkfetch/pkg/devenv"
)

// Now is the time every FixedClock in tests starts at.
var Now = time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)

type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}

var setupOnce sync.Once

// SetupTelemetry enables debug logs and, if a telemetry.json5 can be found
// above the working directory, exports traces and metrics for the test run.
func SetupTelemetry(t testing.TB, name string) telemetry.API {
	setupOnce.Do(func() {
		telemetry.InitSlog(true)
	})

	otel, err := telemetry.SetupFromEnv(context.Background(), "test:"+name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		otel.Shutdown(context.Background())
	})
	return telemetry.SlogAPI{}
}

type DBParams struct {
	// if unspecified, it will use `:memory:`
	Path string
	// skips creating tables
	NoSchema bool
}

// OpenDB opens a sqlite database that is closed when the test finishes.
func OpenDB(t testing.TB, params DBParams) (*sql.DB, db.Dialect) {
	ctx := context.Background()

	path := ":memory:"
	if params.Path != "" && params.Path != ":memory:" {
		var err error
		path, err = devenv.ResolvePath(params.Path)
		if err != nil {
			t.Fatal(err)
		}
	}

	conn, dialect, err := db.Open(ctx, db.Config{Driver: "sqlite", File: path})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if !params.NoSchema {
		err = db.EnsureSchema(ctx, conn, dialect)
		if err != nil {
			t.Fatal(err)
		}
	}
	return conn, dialect
}
