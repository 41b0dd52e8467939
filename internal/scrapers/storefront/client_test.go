package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"apkfetch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestStorefront(t testing.TB) *httptest.Server {
	fixture := readFixture(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("hl") != "en" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Query().Get("id") {
		case "com.rovio.angrybirds":
			w.Header().Set("content-type", "text/html; charset=utf-8")
			w.Write([]byte(fixture))
		case "com.example.broken":
			w.Write([]byte(`<html><body><div class="id-app-title">Broken</div></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientPage(t *testing.T) {
	server := newTestStorefront(t)
	client := NewClient(Options{BaseUrl: server.URL + "/store/apps/details"}, telemetry.SlogAPI{})

	require.Equal(
		t,
		server.URL+"/store/apps/details?id=com.rovio.angrybirds&hl=en",
		client.PageUrl("com.rovio.angrybirds"),
	)

	page, err := client.Page(context.Background(), "com.rovio.angrybirds")
	require.NoError(t, err)
	require.Equal(t, "Angry Birds", page.Name)
	require.Equal(t, "6720847872553662727", page.DevId)
	require.Equal(t, []string{"Arcade", "Action & Adventure"}, page.Categories)
}

func TestClientStatusError(t *testing.T) {
	server := newTestStorefront(t)
	client := NewClient(Options{BaseUrl: server.URL}, telemetry.SlogAPI{})

	_, err := client.Page(context.Background(), "com.example.missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClientStructureMismatch(t *testing.T) {
	server := newTestStorefront(t)
	client := NewClient(Options{BaseUrl: server.URL}, telemetry.SlogAPI{})

	_, err := client.Page(context.Background(), "com.example.broken")
	var cardinality *CardinalityError
	require.ErrorAs(t, err, &cardinality)
}
