package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("search", NewScopedAPI("erms", rec))

	tel.ReportBroken("client.bootstrap", "missing field")
	tel.ReportWarning("client.search", 1)
	tel.ReportCount("combinations", 4)

	require.Equal(t, []string{"erms: search: client.bootstrap"}, rec.Broken("bootstrap"))
	require.Len(t, rec.Reports("warning"), 1)
	require.Equal(t, []any{int64(4)}, rec.Reports("count")[0].Params)
	require.Len(t, rec.Reports(""), 3)
}

type memoryOutput struct {
	mutex     sync.Mutex
	exchanges map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.exchanges == nil {
		o.exchanges = map[string]string{}
	}
	o.exchanges[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	rec := &Recorder{}
	output := &memoryOutput{}
	client := resty.New()
	InstrumentResty(client, rec, output)

	_, err := client.R().
		SetFormData(map[string]string{"txtSearch": "શાહ"}).
		Post(server.URL + "/Search/SearchElectorDB")
	require.NoError(t, err)

	require.Len(t, rec.Reports("debug"), 2)
	require.Len(t, output.exchanges, 1)
	for _, contents := range output.exchanges {
		require.Contains(t, contents, "/Search/SearchElectorDB")
		require.Contains(t, contents, "<html>ok</html>")
	}
}

func TestInstrumentRestyError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rec := &Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, rec.Broken("resty.response"), 1)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exchanges")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), nil, 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("1", "GET / HTTP/1.1")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(contents), "GET"))
}

func TestInstrumentRestyEarlyFailureKeepsCallerSpan(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer provider.Shutdown(context.Background())

	rec := &Recorder{}
	client := resty.New()
	client.OnBeforeRequest(func(*resty.Client, *resty.Request) error {
		return errors.New("rate limit wait cancelled")
	})
	InstrumentResty(client, rec, nil)

	ctx, stage := provider.Tracer("test").Start(context.Background(), "client:bootstrap")
	_, err := client.R().SetContext(ctx).Get("http://127.0.0.1:1/")
	require.Error(t, err)
	require.Len(t, rec.Broken("resty.response"), 1)
	require.Empty(t, spans.Ended())

	stage.End()
	require.Len(t, spans.Ended(), 1)
}
