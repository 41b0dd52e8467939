package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelAPI forwards every report to an inner API and additionally records
// ReportCount as an otel gauge, keyed by the report id.
type OtelAPI struct {
	API
	gauge metric.Int64Gauge
}

func NewOtelAPI(inner API) (OtelAPI, error) {
	gauge, err := otel.Meter("apkfetch").Int64Gauge(
		"report_count",
		metric.WithDescription("counts reported through telemetry.API"),
	)
	if err != nil {
		return OtelAPI{}, err
	}
	return OtelAPI{API: inner, gauge: gauge}, nil
}

func (o OtelAPI) ReportCount(id string, count int64) {
	o.API.ReportCount(id, count)
	o.gauge.Record(
		context.Background(),
		count,
		metric.WithAttributes(attribute.String("id", id)),
	)
}
