package snapcatalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestNewRecordDateIsMidnight(t *testing.T) {
	t.Parallel()

	cfg := &Config{Now: func() time.Time { return fixedNow }}
	rec := cfg.NewRecord("OpenAI", Company, "https://openai.com", "AI lab")

	want := CatalogRecord{
		Name:      "OpenAI",
		Type:      Company,
		Note:      "AI lab",
		Link:      "https://openai.com",
		DateAdded: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("NewRecord mismatch (-want +got):\n%s", diff)
	}
	if got := rec.DateAdded.Format(DateLayout); got != "2026-03-14" {
		t.Errorf("DateAdded formatted = %q", got)
	}
}

func TestCatalogWriterDedup(t *testing.T) {
	t.Parallel()

	store := &mockStore{existing: map[string]struct{}{"A": {}}}
	cfg := &Config{Catalog: store, Dedup: true}
	w := newCatalogWriter(cfg)
	ctx := context.Background()

	if err := w.snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// A second snapshot call must not hit the store again.
	if err := w.snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("ListNames calls = %d, want 1", store.listCalls)
	}

	statusA, _ := w.write(ctx, CatalogRecord{Name: "A", Type: Person})
	statusB, err := w.write(ctx, CatalogRecord{Name: "B", Type: Person})
	if err != nil {
		t.Fatalf("write B: %v", err)
	}
	if statusA != statusDuplicate || statusB != statusWritten {
		t.Errorf("statuses = %q, %q; want duplicate, written", statusA, statusB)
	}
	if diff := cmp.Diff([]string{"B"}, store.names()); diff != "" {
		t.Errorf("inserted mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogWriterNoDedup(t *testing.T) {
	t.Parallel()

	store := &mockStore{existing: map[string]struct{}{"A": {}}}
	w := newCatalogWriter(&Config{Catalog: store})
	ctx := context.Background()

	if err := w.snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if store.listCalls != 0 {
		t.Errorf("ListNames called with dedup off")
	}
	if status, _ := w.write(ctx, CatalogRecord{Name: "A"}); status != statusWritten {
		t.Errorf("status = %q, want written", status)
	}
}

func TestCatalogWriterSnapshotErrors(t *testing.T) {
	t.Parallel()

	t.Run("store cannot list", func(t *testing.T) {
		t.Parallel()
		w := newCatalogWriter(&Config{Catalog: insertOnlyStore{}, Dedup: true})
		err := w.snapshot(context.Background())
		if err == nil || !strings.Contains(err.Error(), "cannot list names") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("list fails", func(t *testing.T) {
		t.Parallel()
		w := newCatalogWriter(&Config{Catalog: &mockStore{listErr: errBoom}, Dedup: true})
		if err := w.snapshot(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCatalogWriterInsertFailure(t *testing.T) {
	t.Parallel()

	store := &mockStore{fail: map[string]bool{"Bad": true}}
	w := newCatalogWriter(&Config{Catalog: store})
	ctx := context.Background()

	status, err := w.write(ctx, CatalogRecord{Name: "Bad"})
	if status != statusFailed || StatusOf(err) != 400 {
		t.Errorf("write Bad = %q, %v; want failed with status 400", status, err)
	}
	if status, err := w.write(ctx, CatalogRecord{Name: "Good"}); status != statusWritten || err != nil {
		t.Errorf("write Good = %q, %v", status, err)
	}
}

func TestCatalogWriterNoStore(t *testing.T) {
	t.Parallel()

	w := newCatalogWriter(&Config{})
	if status, err := w.write(context.Background(), CatalogRecord{Name: "A"}); status != statusFailed || err == nil {
		t.Errorf("write = %q, %v; want failed", status, err)
	}
}
