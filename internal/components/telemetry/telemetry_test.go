package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedReport struct {
	kind   string
	id     string
	params []any
}

type recordingAPI struct {
	reports *[]recordedReport
}

func (r recordingAPI) ReportBroken(id string, params ...any) {
	*r.reports = append(*r.reports, recordedReport{kind: "broken", id: id, params: params})
}

func (r recordingAPI) ReportWarning(id string, params ...any) {
	*r.reports = append(*r.reports, recordedReport{kind: "warning", id: id, params: params})
}

func (r recordingAPI) ReportDebug(msg string, params ...any) {
	*r.reports = append(*r.reports, recordedReport{kind: "debug", id: msg, params: params})
}

func (r recordingAPI) ReportCount(id string, count int64) {
	*r.reports = append(*r.reports, recordedReport{kind: "count", id: id, params: []any{count}})
}

func TestScopedAPI(t *testing.T) {
	var reports []recordedReport
	inner := recordingAPI{reports: &reports}

	scoped := NewScopedAPI("storefront", NewScopedAPI("apkfetch", inner))
	scoped.ReportBroken("client.fetch-page", "a", 1)
	scoped.ReportWarning("client.dev-email")
	scoped.ReportDebug("fetched page")
	scoped.ReportCount("ingest.packages", 3)

	require.Equal(t, []recordedReport{
		{kind: "broken", id: "apkfetch: storefront: client.fetch-page", params: []any{"a", 1}},
		{kind: "warning", id: "apkfetch: storefront: client.dev-email"},
		{kind: "debug", id: "apkfetch: storefront: fetched page"},
		{kind: "count", id: "apkfetch: storefront: ingest.packages", params: []any{int64(3)}},
	}, reports)
}
