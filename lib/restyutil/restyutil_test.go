package restyutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientDumpsMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-page", "listing")
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	output := NewMemoryOutput()
	client := resty.New()
	InstrumentClient(client, nil, output)

	_, err := client.R().Get(server.URL + "/tx/0xabc")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/tx/0xdef")
	require.NoError(t, err)

	messages := output.Messages()
	require.Len(t, messages, 2)
	require.Contains(t, messages["1"], "GET "+server.URL+"/tx/0xabc")
	require.Contains(t, messages["1"], "X-Page: listing")
	require.Contains(t, messages["1"], "<html>ok</html>")
	require.Contains(t, messages["2"], "/tx/0xdef")
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.True(t, res.IsError())
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tx_dates.csv"), []byte("0xa,,1\n"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "tx_dates.csv"))
	require.Equal(t, dir, filepath.Dir(output.Dir()))

	output.Write("1", "contents")
	contents, err := os.ReadFile(filepath.Join(output.Dir(), "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(contents))

	// a second run never reuses the first one's directory
	again, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.NotEqual(t, output.Dir(), again.Dir())
	require.FileExists(t, filepath.Join(output.Dir(), "1.txt"))
}
