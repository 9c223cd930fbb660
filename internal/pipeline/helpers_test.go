package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/httpc"
)

// invokerFunc adapts a function to the Invoker interface.
type invokerFunc func(ctx context.Context, b Backend) (Result, error)

func (f invokerFunc) Invoke(ctx context.Context, b Backend) (Result, error) { return f(ctx, b) }

func newTestInvoker() *HTTPInvoker {
	h := httpc.Httpc{}
	return NewHTTPInvoker(h.New())
}

// newBodyServer answers every request with status and body.
func newBodyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// closedURL returns the URL of a server that no longer accepts connections.
func closedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func get(url string) Backend {
	return Backend{Method: "GET", URL: url}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// errorLines returns the JSON log lines written at ERROR level.
func (b *syncBuffer) errorLines() []string {
	var out []string
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, `"level":"ERROR"`) {
			out = append(out, line)
		}
	}
	return out
}

func newCapturedLogger() (*common.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return common.NewLoggerWithWriter(buf, common.LogLevelDebug, true), buf
}
