package snapcatalog

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// Candidate is one places search hit.
type Candidate struct {
	DisplayName string
	MapLink     string
}

// ResolvedLocation is a place with its canonical name and map link.
type ResolvedLocation struct {
	CanonicalName string
	MapLink       string // as returned by the places provider, query string included
	Note          string
}

// ResolveLocation resolves a location subject using the first places candidate.
// The map link is returned exactly as the provider sent it.
func (cfg *Config) ResolveLocation(ctx context.Context, s Subject) (ResolvedLocation, error) {
	ctx, span := tracer.Start(ctx, "ResolveLocation")
	defer span.End()
	span.SetAttributes(attribute.String("query", s.Name))

	if cfg.Places == nil {
		return ResolvedLocation{}, fmt.Errorf("resolve %q: no places client configured", s.Name)
	}

	candidates, err := cfg.Places.Search(ctx, s.Name)
	if err != nil {
		failSpan(span, err)
		return ResolvedLocation{}, fmt.Errorf("places search %q: %w", s.Name, err)
	}
	if len(candidates) == 0 {
		return ResolvedLocation{}, &ResolutionError{Name: s.Name, Query: s.Name, Reason: "no places candidates"}
	}

	first := candidates[0]
	name := first.DisplayName
	if name == "" {
		name = s.Name
	}

	slog.Debug("snapcatalog: location resolved", "name", s.Name, "canonical", name, "link", first.MapLink)

	return ResolvedLocation{
		CanonicalName: name,
		MapLink:       first.MapLink,
		Note:          s.Note,
	}, nil
}
