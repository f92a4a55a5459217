package snapcatalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/anatolykoptev/go-snapcatalog")

// failSpan marks span as failed with err.
func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Groups holds routable subjects partitioned by type, in input order.
type Groups struct {
	Locations []Subject
	People    []Subject
	Companies []Subject
}

// Route partitions subjects by type. Unknown subjects are dropped.
func Route(subjects []Subject) Groups {
	var g Groups
	for _, s := range subjects {
		switch s.Type {
		case Location:
			g.Locations = append(g.Locations, s)
		case Person:
			g.People = append(g.People, s)
		case Company:
			g.Companies = append(g.Companies, s)
		}
	}
	return g
}

// Failure is a record that could not be resolved or written.
type Failure struct {
	Name string
	Type SubjectType
	Err  error
}

// DroppedImage is a loaded file that never reached the vision model.
type DroppedImage struct {
	Name   string
	Reason string
}

// Report summarizes one processed batch.
type Report struct {
	BatchID    string
	Images     int // images sent to the vision model
	Dropped    []DroppedImage
	Subjects   int // parsed subjects, unknown included
	Unknown    int
	Skipped    int // malformed response lines
	Written    []CatalogRecord
	Duplicates []string
	Queued     []ResolvedLocation // handed to the maps list
	Unresolved []Failure
	Failed     []Failure
}

// Run classifies images, parses the response and processes the subjects.
// Images with Dropped set are not sent and are listed in the report.
// Vision, search and places failures abort the batch.
func (cfg *Config) Run(ctx context.Context, images []Image) (*Report, error) {
	cfg.defaults()

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	usable := Usable(images)
	var dropped []DroppedImage
	for _, img := range images {
		if img.Dropped != "" {
			dropped = append(dropped, DroppedImage{Name: img.Name, Reason: img.Dropped})
		}
	}
	if len(usable) == 0 {
		return &Report{Dropped: dropped}, ErrNoImages
	}
	if cfg.Vision == nil {
		return nil, errors.New("snapcatalog: no vision client configured")
	}

	text, err := cfg.classify(ctx, usable)
	if err != nil {
		return nil, err
	}

	subjects, skipped, err := cfg.parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse vision response: %w", err)
	}

	report, err := cfg.Process(ctx, subjects)
	if report != nil {
		report.Images = len(usable)
		report.Dropped = dropped
		report.Skipped = skipped
	}
	return report, err
}

func (cfg *Config) classify(ctx context.Context, images []Image) (string, error) {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()
	span.SetAttributes(attribute.Int("images", len(images)))

	slog.Info("snapcatalog: classifying screenshots", "images", len(images))

	text, err := cfg.Vision.Classify(ctx, cfg.prompt(), images)
	if err != nil {
		failSpan(span, err)
		return "", fmt.Errorf("classify: %w", err)
	}
	slog.Debug("snapcatalog: vision result", "response", text)
	return text, nil
}

// Process routes subjects and runs each group through its resolver and writer:
// locations first, then people, then companies. The returned report is
// non-nil even when an error aborts the batch.
func (cfg *Config) Process(ctx context.Context, subjects []Subject) (*Report, error) {
	cfg.defaults()

	report := &Report{BatchID: uuid.NewString(), Subjects: len(subjects)}
	for _, s := range subjects {
		if s.Type == Unknown {
			report.Unknown++
		}
	}
	switch cfg.LocationTarget {
	case TargetMapsList, TargetCatalog:
	default:
		return report, fmt.Errorf("snapcatalog: unknown location target %q", cfg.LocationTarget)
	}

	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()
	span.SetAttributes(attribute.String("batch.id", report.BatchID))

	groups := Route(subjects)
	w := newCatalogWriter(cfg)

	if cfg.needsCatalog(groups) && cfg.Dedup {
		if err := w.snapshot(ctx); err != nil {
			return report, err
		}
	}

	if err := cfg.processLocations(ctx, groups.Locations, w, report); err != nil {
		failSpan(span, err)
		return report, err
	}
	for _, group := range [][]Subject{groups.People, groups.Companies} {
		if err := cfg.processEntities(ctx, group, w, report); err != nil {
			failSpan(span, err)
			return report, err
		}
	}

	slog.Info("snapcatalog: batch complete",
		"batch", report.BatchID,
		"written", len(report.Written),
		"queued", len(report.Queued),
		"duplicates", len(report.Duplicates),
		"unresolved", len(report.Unresolved),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (cfg *Config) needsCatalog(g Groups) bool {
	if len(g.People) > 0 || len(g.Companies) > 0 {
		return true
	}
	return len(g.Locations) > 0 && cfg.LocationTarget == TargetCatalog
}

func (cfg *Config) processLocations(ctx context.Context, subjects []Subject, w *catalogWriter, report *Report) error {
	if len(subjects) == 0 {
		return nil
	}
	slog.Info("snapcatalog: handling locations", "count", len(subjects), "target", string(cfg.LocationTarget))

	var resolved []ResolvedLocation
	for _, s := range subjects {
		loc, err := cfg.ResolveLocation(ctx, s)
		if err != nil {
			if cfg.unresolved(s, err, report) {
				continue
			}
			return err
		}

		switch cfg.LocationTarget {
		case TargetCatalog:
			cfg.writeRecord(ctx, w, cfg.NewRecord(loc.CanonicalName, Location, loc.MapLink, loc.Note), report)
		case TargetMapsList:
			resolved = append(resolved, loc)
		default:
			return fmt.Errorf("snapcatalog: unknown location target %q", cfg.LocationTarget)
		}
	}

	if len(resolved) == 0 {
		return nil
	}
	if cfg.MapsList == nil {
		return errors.New("snapcatalog: no maps list saver configured")
	}
	if err := cfg.MapsList.Save(ctx, resolved); err != nil {
		return fmt.Errorf("save to maps list: %w", err)
	}
	for _, loc := range resolved {
		cfg.emitRecord(RecordEvent{Name: loc.CanonicalName, Type: Location, Link: loc.MapLink, Status: statusQueued})
	}
	report.Queued = append(report.Queued, resolved...)
	return nil
}

func (cfg *Config) processEntities(ctx context.Context, subjects []Subject, w *catalogWriter, report *Report) error {
	if len(subjects) == 0 {
		return nil
	}
	slog.Info("snapcatalog: handling entities", "type", subjects[0].Type.String(), "count", len(subjects))

	for _, s := range subjects {
		ent, err := cfg.ResolveEntity(ctx, s)
		if err != nil {
			if cfg.unresolved(s, err, report) {
				continue
			}
			return err
		}
		cfg.writeRecord(ctx, w, cfg.NewRecord(ent.CanonicalName, ent.EntityType, ent.Link, ent.Note), report)
	}
	return nil
}

// unresolved records s as unresolved when err is a *ResolutionError and
// reports whether the batch may continue.
func (cfg *Config) unresolved(s Subject, err error, report *Report) bool {
	if !IsResolutionError(err) {
		return false
	}
	slog.Warn("snapcatalog: no match, skipping", "name", s.Name, "type", s.Type.String(), "error", err.Error())
	report.Unresolved = append(report.Unresolved, Failure{Name: s.Name, Type: s.Type, Err: err})
	cfg.emitRecord(RecordEvent{Name: s.Name, Type: s.Type, Status: statusUnresolved, Err: err})
	return true
}

func (cfg *Config) writeRecord(ctx context.Context, w *catalogWriter, rec CatalogRecord, report *Report) {
	status, err := w.write(ctx, rec)
	switch status {
	case statusWritten:
		report.Written = append(report.Written, rec)
	case statusDuplicate:
		report.Duplicates = append(report.Duplicates, rec.Name)
	default:
		report.Failed = append(report.Failed, Failure{Name: rec.Name, Type: rec.Type, Err: err})
	}
	cfg.emitRecord(RecordEvent{Name: rec.Name, Type: rec.Type, Link: rec.Link, Status: status, Err: err})
}
