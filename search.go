package snapcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Search endpoints.
const (
	DefaultSerpAPIURL    = "https://serpapi.com/search.json"
	DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
)

// SerpAPISearch resolves queries with SerpAPI's Google engine. Its dedicated
// twitter_results block is the social-profile result.
type SerpAPISearch struct {
	URL    string // default: DefaultSerpAPIURL
	APIKey string

	client *resty.Client
}

// NewSerpAPISearch creates a SerpAPI client.
func NewSerpAPISearch(apiKey string, opts HTTPOptions) *SerpAPISearch {
	return &SerpAPISearch{APIKey: apiKey, client: NewRESTClient(opts)}
}

func (s *SerpAPISearch) Name() string { return "serpapi" }

type serpResp struct {
	Error          string `json:"error"`
	TwitterResults *struct {
		Link string `json:"link"`
	} `json:"twitter_results"`
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
}

func (s *SerpAPISearch) Search(ctx context.Context, query string) (SearchResult, error) {
	if s.URL == "" {
		s.URL = DefaultSerpAPIURL
	}
	if s.client == nil {
		s.client = NewRESTClient(HTTPOptions{})
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":       query,
			"engine":  "google",
			"hl":      "en",
			"gl":      "us",
			"api_key": s.APIKey,
		}).
		Get(s.URL)
	if err != nil {
		return SearchResult{}, fmt.Errorf("serpapi request: %w", err)
	}
	if !res.IsSuccess() {
		return SearchResult{}, UpstreamFromResponse("search", res)
	}

	var body serpResp
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return SearchResult{}, &UpstreamError{Service: "search", Status: res.StatusCode(), Message: "decode response: " + err.Error()}
	}

	// SerpAPI reports "no results" as an error string with 200 OK.
	if body.Error != "" && len(body.OrganicResults) == 0 && body.TwitterResults == nil {
		slog.Debug("snapcatalog: serpapi returned no results", "query", query, "error", body.Error)
		return SearchResult{}, nil
	}

	var out SearchResult
	if body.TwitterResults != nil {
		out.SocialProfile = body.TwitterResults.Link
	}
	for _, r := range body.OrganicResults {
		out.Organic = append(out.Organic, r.Link)
	}
	return out, nil
}

// SearXNGSearch resolves queries with a SearXNG instance's JSON API. The first
// result on a social platform profile page is the social-profile result.
type SearXNGSearch struct {
	URL string // base URL of the instance, e.g. "http://localhost:8888"

	client *resty.Client
}

// NewSearXNGSearch creates a SearXNG client for the instance at baseURL.
func NewSearXNGSearch(baseURL string, opts HTTPOptions) *SearXNGSearch {
	return &SearXNGSearch{URL: baseURL, client: NewRESTClient(opts)}
}

func (s *SearXNGSearch) Name() string { return "searxng" }

type searxngResp struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (s *SearXNGSearch) Search(ctx context.Context, query string) (SearchResult, error) {
	if s.client == nil {
		s.client = NewRESTClient(HTTPOptions{})
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":          query,
			"format":     "json",
			"categories": "general",
			"language":   "en",
		}).
		Get(strings.TrimRight(s.URL, "/") + "/search")
	if err != nil {
		return SearchResult{}, fmt.Errorf("searxng request: %w", err)
	}
	if !res.IsSuccess() {
		return SearchResult{}, UpstreamFromResponse("search", res)
	}

	var body searxngResp
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return SearchResult{}, &UpstreamError{Service: "search", Status: res.StatusCode(), Message: "decode response: " + err.Error()}
	}

	var out SearchResult
	for _, r := range body.Results {
		if r.URL != "" {
			out.Organic = append(out.Organic, r.URL)
		}
	}
	out.SocialProfile = firstSocialProfile(out.Organic)
	return out, nil
}

// DuckDuckGoSearch scrapes the DuckDuckGo HTML endpoint. The first result on a
// social platform profile page is the social-profile result.
type DuckDuckGoSearch struct {
	URL string // default: DefaultDuckDuckGoURL

	client *resty.Client
}

// NewDuckDuckGoSearch creates a DuckDuckGo HTML client.
func NewDuckDuckGoSearch(opts HTTPOptions) *DuckDuckGoSearch {
	return &DuckDuckGoSearch{client: NewRESTClient(opts)}
}

func (s *DuckDuckGoSearch) Name() string { return "duckduckgo" }

func (s *DuckDuckGoSearch) Search(ctx context.Context, query string) (SearchResult, error) {
	if s.URL == "" {
		s.URL = DefaultDuckDuckGoURL
	}
	if s.client == nil {
		s.client = NewRESTClient(HTTPOptions{})
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"q": query, "kl": "us-en"}).
		Post(s.URL)
	if err != nil {
		return SearchResult{}, fmt.Errorf("duckduckgo request: %w", err)
	}
	if !res.IsSuccess() {
		return SearchResult{}, UpstreamFromResponse("search", res)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return SearchResult{}, &UpstreamError{Service: "search", Status: res.StatusCode(), Message: "parse html: " + err.Error()}
	}

	var out SearchResult
	doc.Find("a.result__a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if link := unwrapDDGLink(href); link != "" {
			out.Organic = append(out.Organic, link)
		}
	})
	out.SocialProfile = firstSocialProfile(out.Organic)
	return out, nil
}

// unwrapDDGLink turns DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...")
// into the target URL. Direct links are returned as-is.
func unwrapDDGLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		return u.Query().Get("uddg")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

// NamedSearch is a SearchClient that can identify itself in logs.
type NamedSearch interface {
	SearchClient
	Name() string
}

// MultiSearch tries each provider in order and returns the first non-empty
// result. Provider errors are logged and the next provider is tried. When at
// least one provider answered, an empty result is returned; the last error is
// returned only if every provider failed.
type MultiSearch []NamedSearch

func (m MultiSearch) Search(ctx context.Context, query string) (SearchResult, error) {
	if len(m) == 0 {
		return SearchResult{}, errors.New("no search providers configured")
	}
	var (
		lastErr  error
		answered bool
	)
	for _, p := range m {
		res, err := p.Search(ctx, query)
		if err != nil {
			slog.Warn("snapcatalog: provider search failed", "provider", p.Name(), "error", err.Error())
			lastErr = err
			continue
		}
		if _, ok := res.PickLink(); ok {
			return res, nil
		}
		answered = true
	}
	if !answered {
		return SearchResult{}, lastErr
	}
	return SearchResult{}, nil
}
