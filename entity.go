package snapcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// handleRe matches a social media handle: "@" followed by word characters.
var handleRe = regexp.MustCompile(`@(\w+)`)

// SearchResult is the minimal view of a web search response.
type SearchResult struct {
	SocialProfile string   // dedicated social-profile result link, if any
	Organic       []string // organic result links in rank order
}

// ResolvedEntity is a person or company with a canonical link.
type ResolvedEntity struct {
	CanonicalName string
	EntityType    SubjectType // Person or Company
	Link          string
	Note          string
}

// ExtractHandle returns the first "@handle" in note without the "@",
// or "" when note has none.
func ExtractHandle(note string) string {
	m := handleRe.FindStringSubmatch(note)
	if m == nil {
		return ""
	}
	return m[1]
}

// BuildEntityQuery builds the web search query for a person or company:
// the name, then the handle found in the note (if any), then keyword.
func BuildEntityQuery(name, note, keyword string) string {
	parts := []string{strings.TrimSpace(name)}
	if h := ExtractHandle(note); h != "" {
		parts = append(parts, h)
	}
	if keyword != "" {
		parts = append(parts, keyword)
	}
	return strings.Join(parts, " ")
}

// StripQuery drops everything from the first "?" on.
// "https://x.com/place?utm=1" becomes "https://x.com/place".
func StripQuery(link string) string {
	before, _, _ := strings.Cut(link, "?")
	return before
}

// PickLink applies the result tie-break: the social profile link wins,
// then the first organic result. ok is false when neither is present.
func (r SearchResult) PickLink() (string, bool) {
	if r.SocialProfile != "" {
		return r.SocialProfile, true
	}
	for _, l := range r.Organic {
		if l != "" {
			return l, true
		}
	}
	return "", false
}

// ResolveEntity resolves a person or company subject to a canonical link.
// Search failures are returned as-is; an empty result is a *ResolutionError.
func (cfg *Config) ResolveEntity(ctx context.Context, s Subject) (ResolvedEntity, error) {
	cfg.defaults()

	query := BuildEntityQuery(s.Name, s.Note, cfg.PlatformKeyword)

	ctx, span := tracer.Start(ctx, "ResolveEntity")
	defer span.End()
	span.SetAttributes(
		attribute.String("subject.type", s.Type.String()),
		attribute.String("query", query),
	)

	if cfg.Search == nil {
		return ResolvedEntity{}, fmt.Errorf("resolve %q: no search client configured", s.Name)
	}

	res, err := cfg.Search.Search(ctx, query)
	if err != nil {
		failSpan(span, err)
		return ResolvedEntity{}, fmt.Errorf("search %q: %w", query, err)
	}

	link, ok := res.PickLink()
	if !ok {
		return ResolvedEntity{}, &ResolutionError{Name: s.Name, Query: query, Reason: "no search results"}
	}

	slog.Debug("snapcatalog: entity resolved", "name", s.Name, "query", query, "link", link)

	return ResolvedEntity{
		CanonicalName: s.Name,
		EntityType:    s.Type,
		Link:          StripQuery(link),
		Note:          s.Note,
	}, nil
}
