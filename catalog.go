package snapcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// DateLayout is the layout stores use to render CatalogRecord.DateAdded.
const DateLayout = time.DateOnly

// CatalogRecord is one append-only catalog row.
type CatalogRecord struct {
	Name      string
	Type      SubjectType
	Note      string
	Link      string
	DateAdded time.Time // midnight of the day the record was created
}

// catalogWriter writes records for one batch. The existing-name snapshot is
// taken once, on first use, and never refreshed within the batch.
type catalogWriter struct {
	cfg      *Config
	existing map[string]struct{}
	loaded   bool
}

func newCatalogWriter(cfg *Config) *catalogWriter {
	return &catalogWriter{cfg: cfg}
}

// NewRecord builds a catalog record dated today.
func (cfg *Config) NewRecord(name string, typ SubjectType, link, note string) CatalogRecord {
	cfg.defaults()
	now := cfg.Now()
	return CatalogRecord{
		Name:      name,
		Type:      typ,
		Note:      note,
		Link:      link,
		DateAdded: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
}

// snapshot loads the existing names. A store without NameLister in dedup
// mode is a configuration error.
func (w *catalogWriter) snapshot(ctx context.Context) error {
	if w.loaded || !w.cfg.Dedup {
		return nil
	}
	lister, ok := w.cfg.Catalog.(NameLister)
	if !ok {
		return fmt.Errorf("dedup: catalog store %T cannot list names", w.cfg.Catalog)
	}
	names, err := lister.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("dedup: list catalog names: %w", err)
	}
	w.existing = names
	w.loaded = true
	slog.Debug("snapcatalog: catalog snapshot", "names", len(names))
	return nil
}

// write persists rec. It returns the outcome status and the insert error, if
// any. Store failures do not abort the batch; the caller records them.
// snapshot must have been called first when dedup is on.
func (w *catalogWriter) write(ctx context.Context, rec CatalogRecord) (string, error) {
	if w.cfg.Catalog == nil {
		return statusFailed, fmt.Errorf("write %q: no catalog store configured", rec.Name)
	}
	if _, dup := w.existing[rec.Name]; dup {
		slog.Info("snapcatalog: already in catalog, skipping", "name", rec.Name)
		return statusDuplicate, nil
	}

	ctx, span := tracer.Start(ctx, "CatalogInsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("record.name", rec.Name),
		attribute.String("record.type", rec.Type.String()),
	)

	if err := w.cfg.Catalog.Insert(ctx, rec); err != nil {
		failSpan(span, err)
		slog.Warn("snapcatalog: catalog insert failed", "name", rec.Name, "status", StatusOf(err), "error", err.Error())
		return statusFailed, err
	}
	return statusWritten, nil
}

// Record outcome statuses carried by RecordEvent.Status.
const (
	statusWritten    = "written"
	statusDuplicate  = "duplicate"
	statusFailed     = "failed"
	statusUnresolved = "unresolved"
	statusQueued     = "queued"
)
