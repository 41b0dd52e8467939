package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"apkfetch/cmd/apkfetch/commands"
	"apkfetch/internal/components/telemetry"
	"apkfetch/pkg/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	var tel telemetry.API = telemetry.SlogAPI{}

	otel, err := telemetry.SetupFromEnv(ctx, "apkfetch")
	if err == nil {
		defer otel.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx, tel)

		otelApi, err := telemetry.NewOtelAPI(tel)
		if err != nil {
			slog.Warn("failed to create otel telemetry api", "err", err)
		} else {
			tel = otelApi
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx, tel)
	if err != nil {
		otel.Shutdown(context.Background())
		serviceutil.Fatal("apkfetch failed", err)
	}
}
