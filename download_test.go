package snapcatalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newImageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload_Success(t *testing.T) {
	t.Parallel()

	body := makePNG(200, 100, gradientRight)
	srv := newImageServer(t, "image/png", body)

	cfg := &Config{HTTPClient: srv.Client()}
	res, err := cfg.Download(context.Background(), srv.URL+"/shot.png", DownloadOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected result, got nil")
	}
	if res.MIMEType != "image/png" || len(res.Data) != len(body) {
		t.Errorf("got %s, %d bytes; want image/png, %d bytes", res.MIMEType, len(res.Data), len(body))
	}
}

func TestDownload_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    DownloadOpts
		reason  string
	}{
		{
			name: "non-image content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
			reason: `content type "text/html" is not an image`,
		},
		{
			name: "404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			reason: "download status 404",
		},
		{
			name: "smaller than MinBytes",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				_, _ = w.Write([]byte("tiny"))
			},
			opts:   DownloadOpts{MinBytes: 100},
			reason: "4 bytes, want at least 100",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			cfg := &Config{HTTPClient: srv.Client()}
			res, err := cfg.Download(context.Background(), srv.URL+"/x", tc.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}

			_, err = cfg.download(context.Background(), srv.URL+"/x", tc.opts)
			if err == nil || err.Error() != tc.reason {
				t.Errorf("reason = %v, want %q", err, tc.reason)
			}
		})
	}
}

func TestDownload_MaxBytesEnforcement(t *testing.T) {
	t.Parallel()

	const maxBytes = 10
	srv := newImageServer(t, "image/png", []byte(strings.Repeat("X", 100)))

	cfg := &Config{HTTPClient: srv.Client()}
	res, err := cfg.Download(context.Background(), srv.URL+"/big.png", DownloadOpts{MaxBytes: maxBytes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected result, got nil")
	}
	if int64(len(res.Data)) > maxBytes {
		t.Errorf("Data len = %d, want <= %d", len(res.Data), maxBytes)
	}
}

func TestDownload_MIMEParameterStripping(t *testing.T) {
	t.Parallel()

	srv := newImageServer(t, "image/jpeg; charset=utf-8", []byte("FAKEIMAGEDATA"))

	cfg := &Config{HTTPClient: srv.Client()}
	res, err := cfg.Download(context.Background(), srv.URL+"/photo.jpg", DownloadOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.MIMEType != "image/jpeg" {
		t.Errorf("got %+v, want MIMEType image/jpeg", res)
	}
}

func TestDownload_UserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	cfg := &Config{HTTPClient: srv.Client()}
	if _, err := cfg.Download(context.Background(), srv.URL, DownloadOpts{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := <-agents; got != defaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", got, defaultUserAgent)
	}
}

func TestDownload_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{}
	if _, err := cfg.Download(ctx, "http://127.0.0.1:1/x.png", DownloadOpts{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoadURLs_DropsFailures(t *testing.T) {
	t.Parallel()

	good := makePNG(200, 100, gradientRight)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(good)
	}))
	defer srv.Close()

	cfg := &Config{HTTPClient: srv.Client()}
	images, err := cfg.LoadURLs(context.Background(), []string{srv.URL + "/missing.png", srv.URL + "/ok.png"})
	if err != nil {
		t.Fatalf("LoadURLs: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	if images[0].Name != srv.URL+"/ok.png" || images[0].MediaType != "image/png" || images[0].Dropped != "" {
		t.Errorf("usable image = %+v", images[0])
	}
	if images[1].Name != srv.URL+"/missing.png" || images[1].Dropped != "download status 404" {
		t.Errorf("dropped image = %+v", images[1])
	}
}
