package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
	"github.com/anatolykoptev/go-snapcatalog/store/notion"
	"github.com/anatolykoptev/go-snapcatalog/store/sqlite"
	"github.com/anatolykoptev/go-snapcatalog/store/vault"
)

// Runtime is an assembled pipeline plus the resources it owns.
type Runtime struct {
	Config *snapcatalog.Config
	closer func() error
}

// Close releases the catalog store.
func (r *Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// HTTPOptions converts the http section.
func (f File) HTTPOptions() snapcatalog.HTTPOptions {
	return snapcatalog.HTTPOptions{
		Timeout:   time.Duration(f.HTTP.TimeoutSeconds) * time.Second,
		Retries:   f.HTTP.Retries,
		RetryWait: time.Duration(f.HTTP.RetryWaitMillis) * time.Millisecond,
	}
}

// Build assembles the adapters named in f. getenv resolves *_env secrets
// (os.Getenv when nil); it is only called here, never by the pipeline.
func Build(ctx context.Context, f File, getenv func(string) string) (*Runtime, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	httpOpts := f.HTTPOptions()

	cfg := &snapcatalog.Config{
		PlatformKeyword: f.Pipeline.PlatformKeyword,
		LocationTarget:  snapcatalog.LocationTarget(f.Pipeline.LocationTarget),
		StrictParse:     f.Pipeline.StrictParse,
		Dedup:           f.Pipeline.Dedup,
		ImagePattern:    f.Pipeline.ImagePattern,
		MinImageWidth:   f.Pipeline.MinImageWidth,
		DedupImages:     f.Pipeline.DedupImages,
	}
	switch cfg.LocationTarget {
	case "", snapcatalog.TargetMapsList, snapcatalog.TargetCatalog:
	default:
		return nil, fmt.Errorf("pipeline.location_target: unknown target %q", f.Pipeline.LocationTarget)
	}

	vision := snapcatalog.NewOpenAIVision(secret(f.Vision.APIKey, f.Vision.APIKeyEnv, getenv), httpOpts)
	vision.BaseURL = f.Vision.BaseURL
	vision.Model = f.Vision.Model
	vision.MaxTokens = f.Vision.MaxTokens
	vision.Detail = f.Vision.Detail
	cfg.Vision = vision

	if f.Vision.Prompt != "" {
		prompt, err := os.ReadFile(f.Vision.Prompt)
		if err != nil {
			return nil, fmt.Errorf("vision.prompt: %w", err)
		}
		cfg.VisionPrompt = string(prompt)
	}

	search, err := buildSearch(f, httpOpts, getenv)
	if err != nil {
		return nil, err
	}
	cfg.Search = search

	places := snapcatalog.NewGooglePlaces(secret(f.Places.APIKey, f.Places.APIKeyEnv, getenv), httpOpts)
	places.URL = f.Places.URL
	cfg.Places = places

	cfg.MapsList = &snapcatalog.WorkListFile{Dir: f.Maps.WorkListDir, List: f.Maps.List}

	rt := &Runtime{Config: cfg}
	switch f.Catalog.Backend {
	case "notion":
		n := f.Catalog.Notion
		dbID := secret(n.DatabaseID, n.DatabaseIDEnv, getenv)
		if dbID == "" {
			return nil, errors.New("catalog.notion: database id is required")
		}
		store := notion.New(secret(n.Token, n.TokenEnv, getenv), dbID, httpOpts)
		store.BaseURL = n.BaseURL
		cfg.Catalog = store
	case "sqlite":
		store, err := sqlite.Open(ctx, f.Catalog.SQLite)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = store
		rt.closer = store.Close
	case "vault":
		store, err := vault.New(f.Catalog.Vault)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = store
	default:
		return nil, fmt.Errorf("catalog.backend: unknown backend %q", f.Catalog.Backend)
	}

	return rt, nil
}

func buildSearch(f File, opts snapcatalog.HTTPOptions, getenv func(string) string) (snapcatalog.SearchClient, error) {
	var providers snapcatalog.MultiSearch
	for _, name := range f.Search.Providers {
		switch name {
		case "serpapi":
			s := snapcatalog.NewSerpAPISearch(secret(f.Search.SerpAPIKey, f.Search.SerpKeyEnv, getenv), opts)
			s.URL = f.Search.SerpAPIURL
			providers = append(providers, s)
		case "searxng":
			if f.Search.SearXNGURL == "" {
				return nil, errors.New("search.searxng_url is required for the searxng provider")
			}
			providers = append(providers, snapcatalog.NewSearXNGSearch(f.Search.SearXNGURL, opts))
		case "duckduckgo":
			providers = append(providers, snapcatalog.NewDuckDuckGoSearch(opts))
		default:
			return nil, fmt.Errorf("search.providers: unknown provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("search.providers: at least one provider is required")
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return providers, nil
}
