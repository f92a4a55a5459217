package snapcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Retry defaults for HTTPOptions.
const (
	DefaultRetryWait    = 500 * time.Millisecond
	DefaultRetryMaxWait = 5 * time.Second
)

// HTTPOptions configures the REST clients used by the HTTP adapters.
// Zero values mean "use defaults": 30s timeout, no retries.
type HTTPOptions struct {
	Timeout      time.Duration
	Retries      int           // extra attempts on transport errors, 429 and 5xx
	RetryWait    time.Duration // initial backoff (default: 500ms)
	RetryMaxWait time.Duration // backoff cap (default: 5s)
	HTTPClient   *http.Client  // optional base client
	UserAgent    string
}

// NewRESTClient builds a resty client with bounded timeouts and
// retry-with-backoff for transient failures.
func NewRESTClient(opts HTTPOptions) *resty.Client {
	return newClient(opts).AddRetryCondition(isTransient)
}

// NewWriteClient builds a client for calls that must not run twice. It only
// retries when the server refused the request with 429; a timeout or 5xx may
// come after the write was committed.
func NewWriteClient(opts HTTPOptions) *resty.Client {
	return newClient(opts).AddRetryCondition(isRefused)
}

func newClient(opts HTTPOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}
	if opts.RetryMaxWait <= 0 {
		opts.RetryMaxWait = DefaultRetryMaxWait
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetLogger(restLogger{})
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetRetryCount(opts.Retries)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(opts.RetryMaxWait)
	return client
}

// isTransient reports whether a request should be retried.
func isTransient(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return (&UpstreamError{Status: r.StatusCode()}).Temporary()
}

// isRefused reports whether the server turned the request away unprocessed.
func isRefused(r *resty.Response, err error) bool {
	return err == nil && r != nil && r.StatusCode() == http.StatusTooManyRequests
}

// restLogger sends resty's log lines to slog. A nil logger means slog.Default().
type restLogger struct {
	logger *slog.Logger
}

func (l restLogger) log(level slog.Level, format string, v ...any) {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, "snapcatalog: http client", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restLogger) Errorf(format string, v ...any) { l.log(slog.LevelError, format, v...) }
func (l restLogger) Warnf(format string, v ...any)  { l.log(slog.LevelWarn, format, v...) }
func (l restLogger) Debugf(format string, v ...any) { l.log(slog.LevelDebug, format, v...) }

// UpstreamFromResponse converts a non-success response into an *UpstreamError.
func UpstreamFromResponse(service string, r *resty.Response) *UpstreamError {
	msg := strings.TrimSpace(r.String())
	const maxMsg = 512
	if len(msg) > maxMsg {
		msg = msg[:maxMsg]
	}
	if msg == "" {
		msg = http.StatusText(r.StatusCode())
	}
	return &UpstreamError{Service: service, Status: r.StatusCode(), Message: msg}
}
