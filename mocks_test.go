package snapcatalog

import (
	"context"
	"errors"
)

// mockVision is a test double for the VisionClient interface.
type mockVision struct {
	response string
	err      error
	calls    int
	images   int
}

func (m *mockVision) Classify(_ context.Context, _ string, images []Image) (string, error) {
	m.calls++
	m.images = len(images)
	return m.response, m.err
}

// mockSearch returns canned results keyed by query and records every query.
type mockSearch struct {
	results map[string]SearchResult
	err     error
	queries []string
}

func (m *mockSearch) Search(_ context.Context, query string) (SearchResult, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return SearchResult{}, m.err
	}
	return m.results[query], nil
}

// mockPlaces returns canned candidates keyed by query.
type mockPlaces struct {
	results map[string][]Candidate
	err     error
	queries []string
}

func (m *mockPlaces) Search(_ context.Context, query string) ([]Candidate, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query], nil
}

// mockStore records inserts; names in fail are rejected with a 400.
type mockStore struct {
	existing  map[string]struct{}
	fail      map[string]bool
	inserted  []CatalogRecord
	listCalls int
	listErr   error
}

func (m *mockStore) Insert(_ context.Context, rec CatalogRecord) error {
	if m.fail[rec.Name] {
		return &UpstreamError{Service: "catalog", Status: 400, Message: "validation_error"}
	}
	m.inserted = append(m.inserted, rec)
	return nil
}

func (m *mockStore) ListNames(_ context.Context) (map[string]struct{}, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make(map[string]struct{}, len(m.existing))
	for k := range m.existing {
		out[k] = struct{}{}
	}
	return out, nil
}

func (m *mockStore) names() []string {
	out := make([]string, 0, len(m.inserted))
	for _, r := range m.inserted {
		out = append(out, r.Name)
	}
	return out
}

// insertOnlyStore cannot list names.
type insertOnlyStore struct{}

func (insertOnlyStore) Insert(context.Context, CatalogRecord) error { return nil }

// mockMaps records saved batches.
type mockMaps struct {
	batches [][]ResolvedLocation
	err     error
}

func (m *mockMaps) Save(_ context.Context, locations []ResolvedLocation) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]ResolvedLocation(nil), locations...))
	return nil
}

var errBoom = errors.New("boom")
