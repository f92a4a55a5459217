package snapcatalog

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetries(n int) HTTPOptions {
	return HTTPOptions{Retries: n, RetryWait: time.Millisecond, RetryMaxWait: 2 * time.Millisecond}
}

func TestRESTClientRetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"places": [{"displayName": {"text": "Cafe"}, "googleMapsUri": "https://maps.google.com/?cid=7"}]}`))
	}))
	defer srv.Close()

	p := NewGooglePlaces("k", fastRetries(2))
	p.URL = srv.URL
	got, err := p.Search(context.Background(), "Cafe")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || calls.Load() != 3 {
		t.Errorf("candidates = %d, calls = %d; want 1 and 3", len(got), calls.Load())
	}
}

func TestRESTClientGivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGooglePlaces("k", fastRetries(1))
	p.URL = srv.URL
	_, err := p.Search(context.Background(), "Cafe")

	if StatusOf(err) != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want upstream 429", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRESTClientNoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewGooglePlaces("k", fastRetries(3))
	p.URL = srv.URL
	if _, err := p.Search(context.Background(), "Cafe"); StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("error = %v, want upstream 400", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestUpstreamFromResponse(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		http.Error(w, long, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewRESTClient(HTTPOptions{})

	res, err := client.R().Get(srv.URL + "/long")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	ue := UpstreamFromResponse("catalog", res)
	if ue.Status != http.StatusInternalServerError || len(ue.Message) != 512 || !ue.Temporary() {
		t.Errorf("UpstreamError = status %d, message length %d, temporary %v", ue.Status, len(ue.Message), ue.Temporary())
	}

	res, err = client.R().Get(srv.URL + "/empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ue := UpstreamFromResponse("catalog", res); ue.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want status text", ue.Message)
	}
}

func TestUpstreamErrorTemporary(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{0: false, 400: false, 401: false, 429: true, 500: true, 503: true} {
		if got := (&UpstreamError{Status: status}).Temporary(); got != want {
			t.Errorf("Temporary() for %d = %v, want %v", status, got, want)
		}
	}
}

func TestWriteClientRetries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    []int // per call; the last one repeats
		wantCalls int32
	}{
		{"429 is retried", []int{http.StatusTooManyRequests, http.StatusOK}, 2},
		{"5xx is not retried", []int{http.StatusBadGateway}, 1},
		{"success", []int{http.StatusOK}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := int(calls.Add(1))
				w.WriteHeader(tc.status[min(n, len(tc.status))-1])
			}))
			defer srv.Close()

			if _, err := NewWriteClient(fastRetries(2)).R().Post(srv.URL); err != nil {
				t.Fatalf("Post: %v", err)
			}
			if got := calls.Load(); got != tc.wantCalls {
				t.Errorf("calls = %d, want %d", got, tc.wantCalls)
			}
		})
	}
}

func TestWriteClientNoRetryAfterTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	opts := fastRetries(2)
	opts.Timeout = 50 * time.Millisecond
	if _, err := NewWriteClient(opts).R().Post(srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRESTLoggerUsesSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := restLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	l.Warnf("retry %d of %d\n", 1, 2)

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `detail="retry 1 of 2"`) {
		t.Errorf("log output = %q", out)
	}
}
