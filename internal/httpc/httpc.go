package httpc

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Httpc describes the shared outbound transport. One client is built per
// process and reused by every backend call.
type Httpc struct {
	TlsConfig *tls.Config
	// Timeout bounds a single backend call. Zero means constants.DefaultClientTimeout;
	// a negative value disables the per-call bound.
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	// Tracing wraps the transport with otelhttp so every call emits a client span.
	Tracing bool
}

// New returns a resty.Client configured according to the receiver's settings.
// Defaults: MinVersion TLS1.2 when a TLS config is given without one.
func (h *Httpc) New() *resty.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.IdleConnTimeout = constants.DefaultIdleConnTimeout
	tr.MaxIdleConnsPerHost = h.MaxIdleConnsPerHost
	if tr.MaxIdleConnsPerHost <= 0 {
		tr.MaxIdleConnsPerHost = constants.DefaultMaxIdleConnsPerHost
	}
	if cfg := h.TlsConfig; cfg != nil {
		cfg = cfg.Clone()
		if cfg.MinVersion == 0 {
			cfg.MinVersion = tls.VersionTLS12
		}
		tr.TLSClientConfig = cfg
	}

	var rt http.RoundTripper = tr
	if h.Tracing {
		rt = otelhttp.NewTransport(tr,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "backend " + r.Method
			}),
		)
	}

	c := resty.NewWithClient(&http.Client{Transport: rt})
	c.SetLogger(restyLogger{l: common.GetLogger().WithComponent("transport")})
	// Backend descriptors may carry a body on any verb, GET included.
	c.SetAllowGetMethodPayload(true)

	switch {
	case h.Timeout > 0:
		c.SetTimeout(h.Timeout)
	case h.Timeout == 0:
		c.SetTimeout(constants.DefaultClientTimeout)
	}
	return c
}

// ParseTLSVersion converts a TLS version string to the corresponding crypto/tls constant.
// Supports various formats: "1.0", "10", "tls1.0", "tls10", etc.
// Returns 0 if the version string is not recognized.
func ParseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

// TLSConfig builds a client TLS config from textual bounds. It returns nil
// when nothing was configured so the transport keeps Go defaults.
func TLSConfig(insecure bool, minVersion, maxVersion string) (*tls.Config, error) {
	if !insecure && strings.TrimSpace(minVersion) == "" && strings.TrimSpace(maxVersion) == "" {
		return nil, nil
	}
	minV := ParseTLSVersion(minVersion)
	if minV == 0 && strings.TrimSpace(minVersion) != "" {
		return nil, fmt.Errorf("unknown min_tls_version: %s", minVersion)
	}
	maxV := ParseTLSVersion(maxVersion)
	if maxV == 0 && strings.TrimSpace(maxVersion) != "" {
		return nil, fmt.Errorf("unknown max_tls_version: %s", maxVersion)
	}
	if minV != 0 && maxV != 0 && minV > maxV {
		return nil, fmt.Errorf("min_tls_version %s is above max_tls_version %s", minVersion, maxVersion)
	}
	// #nosec G402 -- InsecureSkipVerify only when explicitly configured
	return &tls.Config{MinVersion: minV, MaxVersion: maxV, InsecureSkipVerify: insecure}, nil
}

// restyLogger bridges resty's internal logging onto the service logger.
type restyLogger struct {
	l *common.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
