package pipeline

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// defaultBodyContentType applies to a body sent without a declared Content-Type,
// whatever the body looks like.
const defaultBodyContentType = "text/plain; charset=utf-8"

// Request is a backend call ready to be handed to the transport.
type Request struct {
	*resty.Request
	Method Method
	URL    string
}

// Send issues the request through the client it was built from.
func (r *Request) Send() (*resty.Response, error) {
	return r.Execute(string(r.Method), r.URL)
}

// RequestBuilder turns Backend descriptors into requests on a shared client.
type RequestBuilder struct {
	client *resty.Client
}

// NewRequestBuilder binds a builder to the shared transport client.
func NewRequestBuilder(client *resty.Client) *RequestBuilder {
	return &RequestBuilder{client: client}
}

// Build copies method, URL, body and headers of b onto a new request. The
// only failure is an unknown method; URL and header legality are left to the
// transport.
func (rb *RequestBuilder) Build(ctx context.Context, b Backend) (*Request, error) {
	m, err := ParseMethod(b.Method)
	if err != nil {
		return nil, err
	}

	req := rb.client.R().SetContext(ctx)
	for k, v := range b.Headers {
		req.SetHeaderVerbatim(k, v)
	}
	if b.Body != nil {
		req.SetBody(*b.Body)
		if !hasHeader(b.Headers, "Content-Type") {
			req.SetHeader("Content-Type", defaultBodyContentType)
		}
	}
	return &Request{Request: req, Method: m, URL: b.URL}, nil
}

func hasHeader(h map[string]string, name string) bool {
	want := http.CanonicalHeaderKey(name)
	for k := range h {
		if http.CanonicalHeaderKey(k) == want {
			return true
		}
	}
	return false
}
