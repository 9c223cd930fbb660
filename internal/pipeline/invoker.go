package pipeline

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/go-resty/resty/v2"
)

// Invoker performs one backend call.
type Invoker interface {
	Invoke(ctx context.Context, b Backend) (Result, error)
}

// HTTPInvoker sends backends through the shared resty client. It never
// retries and never swallows transport errors.
type HTTPInvoker struct {
	builder *RequestBuilder
}

// NewHTTPInvoker returns an invoker bound to client.
func NewHTTPInvoker(client *resty.Client) *HTTPInvoker {
	return &HTTPInvoker{builder: NewRequestBuilder(client)}
}

// Invoke builds the request, sends it and reads the whole response body.
// Any HTTP status counts as a response; only failures to get one are errors.
func (i *HTTPInvoker) Invoke(ctx context.Context, b Backend) (Result, error) {
	logger := common.GetLogger().WithComponent("invoker").WithBackend(b.Method, b.URL)

	req, err := i.builder.Build(ctx, b)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("sending backend request", "headers", common.GetGlobalMasker().MaskHeaders(b.Headers), "has_body", b.Body != nil)

	start := time.Now()
	resp, err := req.Send()
	elapsed := time.Since(start)
	if err != nil {
		observeBackend(req.Method, 0, elapsed)
		return Result{}, &TransportError{Method: string(req.Method), URL: b.URL, Err: err}
	}
	observeBackend(req.Method, resp.StatusCode(), elapsed)

	body := resp.Body()
	logger.Debug("received backend response", "status_code", resp.StatusCode(), "response_size", len(body), "duration", elapsed)
	return Result{
		Content:    string(body),
		StatusCode: resp.StatusCode(),
		Headers:    flattenHeaders(resp.Header()),
	}, nil
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
