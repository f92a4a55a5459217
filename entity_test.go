package snapcatalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		note string
		want string
	}{
		{"Shared on Twitter by @myfriend", "myfriend"},
		{"@first then @second", "first"},
		{"mail me at a@b_c.com", "b_c"},
		{"Shared on Twitter", ""},
		{"@ alone", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ExtractHandle(tc.note); got != tc.want {
			t.Errorf("ExtractHandle(%q) = %q, want %q", tc.note, got, tc.want)
		}
	}
}

func TestBuildEntityQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, note, keyword string
		want                string
	}{
		{"Anthony Bourdain", "Shared on Twitter", "twitter", "Anthony Bourdain twitter"},
		{"Jane Doe", "Shared on Twitter by @myfriend", "twitter", "Jane Doe myfriend twitter"},
		{"OpenAI", "", "linkedin", "OpenAI linkedin"},
		{" Padded ", "", "", "Padded"},
	}
	for _, tc := range tests {
		if got := BuildEntityQuery(tc.name, tc.note, tc.keyword); got != tc.want {
			t.Errorf("BuildEntityQuery(%q, %q, %q) = %q, want %q", tc.name, tc.note, tc.keyword, got, tc.want)
		}
	}
}

func TestStripQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"https://twitter.com/Bourdain?ref_src=twsrc", "https://twitter.com/Bourdain"},
		{"https://x.com/place?utm=1?x=2", "https://x.com/place"},
		{"https://openai.com/", "https://openai.com/"},
		{"?only", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := StripQuery(tc.in); got != tc.want {
			t.Errorf("StripQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPickLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		res    SearchResult
		want   string
		wantOK bool
	}{
		{
			name:   "social profile wins",
			res:    SearchResult{SocialProfile: "https://twitter.com/a", Organic: []string{"https://a.com"}},
			want:   "https://twitter.com/a",
			wantOK: true,
		},
		{
			name:   "first organic",
			res:    SearchResult{Organic: []string{"https://a.com", "https://b.com"}},
			want:   "https://a.com",
			wantOK: true,
		},
		{
			name:   "empty organic entries skipped",
			res:    SearchResult{Organic: []string{"", "https://b.com"}},
			want:   "https://b.com",
			wantOK: true,
		},
		{name: "nothing", res: SearchResult{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tc.res.PickLink()
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("PickLink() = %q, %v; want %q, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestResolveEntity(t *testing.T) {
	t.Parallel()

	search := &mockSearch{results: map[string]SearchResult{
		"Anthony Bourdain twitter": {
			SocialProfile: "https://twitter.com/Bourdain?ref_src=twsrc%5Egoogle",
			Organic:       []string{"https://en.wikipedia.org/wiki/Anthony_Bourdain"},
		},
	}}
	cfg := &Config{Search: search}

	got, err := cfg.ResolveEntity(context.Background(), Subject{Type: Person, Name: "Anthony Bourdain", Note: "Shared on Twitter"})
	if err != nil {
		t.Fatalf("ResolveEntity: %v", err)
	}

	want := ResolvedEntity{
		CanonicalName: "Anthony Bourdain",
		EntityType:    Person,
		Link:          "https://twitter.com/Bourdain",
		Note:          "Shared on Twitter",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveEntity mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Anthony Bourdain twitter"}, search.queries); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveEntityCustomKeyword(t *testing.T) {
	t.Parallel()

	search := &mockSearch{results: map[string]SearchResult{
		"OpenAI linkedin": {Organic: []string{"https://www.linkedin.com/company/openai?trk=x"}},
	}}
	cfg := &Config{Search: search, PlatformKeyword: "linkedin"}

	got, err := cfg.ResolveEntity(context.Background(), Subject{Type: Company, Name: "OpenAI"})
	if err != nil {
		t.Fatalf("ResolveEntity: %v", err)
	}
	if got.Link != "https://www.linkedin.com/company/openai" || got.EntityType != Company {
		t.Errorf("got %+v", got)
	}
}

func TestResolveEntityNoResults(t *testing.T) {
	t.Parallel()

	cfg := &Config{Search: &mockSearch{}}
	_, err := cfg.ResolveEntity(context.Background(), Subject{Type: Person, Name: "Nobody"})

	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *ResolutionError", err)
	}
	if re.Query != "Nobody twitter" {
		t.Errorf("ResolutionError.Query = %q", re.Query)
	}
}

func TestResolveEntitySearchError(t *testing.T) {
	t.Parallel()

	upstream := &UpstreamError{Service: "search", Status: 503, Message: "unavailable"}
	cfg := &Config{Search: &mockSearch{err: upstream}}
	_, err := cfg.ResolveEntity(context.Background(), Subject{Type: Person, Name: "X"})

	if !errors.Is(err, upstream) {
		t.Fatalf("error = %v, want wrapped upstream error", err)
	}
	if IsResolutionError(err) {
		t.Error("search failure must not be a resolution error")
	}
	if StatusOf(err) != 503 {
		t.Errorf("StatusOf = %d, want 503", StatusOf(err))
	}
}

func TestResolveEntityNoClient(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	if _, err := cfg.ResolveEntity(context.Background(), Subject{Type: Person, Name: "X"}); err == nil {
		t.Fatal("expected error without a search client")
	}
}
