package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	messages map[string]string
}

func (o memoryOutput) Write(id string, contents string) {
	o.messages[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-served-by", "test")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	output := memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, "storefront", output)

	_, err := client.R().SetBody("ping").Post(server.URL + "/one")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/two")
	require.NoError(t, err)

	require.Len(t, output.messages, 2)
	first := output.messages["storefront-1"]
	require.Contains(t, first, "---- REQUEST ----")
	require.Contains(t, first, "POST "+server.URL+"/one")
	require.Contains(t, first, "X-Served-By: test")
	require.Contains(t, first, "hello")
	require.Contains(t, output.messages["storefront-2"], "GET "+server.URL+"/two")
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := resty.New()
	InstrumentClient(client, "gateway", nil)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, "hello", res.String())
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("gateway-1", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "gateway-1.http"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}
