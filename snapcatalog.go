package snapcatalog

import (
	"context"
	"net/http"
	"time"
)

// Default tuning values applied by Config.defaults.
const (
	DefaultPlatformKeyword = "twitter"
	DefaultTimeout         = 30 * time.Second
	DefaultMinImageWidth   = 64
	DefaultImagePattern    = "**/*.{png,PNG,jpg,JPG,jpeg,JPEG,gif,GIF,webp,WEBP}"
)

// LocationTarget selects where resolved locations are sent.
type LocationTarget string

const (
	TargetMapsList LocationTarget = "maps"    // hand locations to the MapsListSaver
	TargetCatalog  LocationTarget = "catalog" // write locations as catalog rows
)

// VisionClient abstracts multimodal LLM calls that describe the subjects of a batch of screenshots.
type VisionClient interface {
	Classify(ctx context.Context, prompt string, images []Image) (string, error)
}

// SearchClient abstracts web search used to resolve people and companies.
type SearchClient interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

// PlacesClient abstracts a places text search. Candidates are ordered by the
// provider's relevance ranking; the first one is authoritative.
type PlacesClient interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// CatalogStore persists catalog records. A non-success status from the
// backing service is returned as *UpstreamError.
type CatalogStore interface {
	Insert(ctx context.Context, rec CatalogRecord) error
}

// NameLister is implemented by stores that can list existing record names.
// Required when Config.Dedup is set.
type NameLister interface {
	ListNames(ctx context.Context) (map[string]struct{}, error)
}

// MapsListSaver adds resolved locations to an external maps "want to go" list.
// It receives the whole ordered batch at once.
type MapsListSaver interface {
	Save(ctx context.Context, locations []ResolvedLocation) error
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	Vision   VisionClient  // required for Run
	Search   SearchClient  // required when the batch has people or companies
	Places   PlacesClient  // required when the batch has locations
	Catalog  CatalogStore  // required for people, companies and TargetCatalog locations
	MapsList MapsListSaver // required for TargetMapsList locations

	HTTPClient *http.Client // optional: used by Download (nil = http.DefaultClient)

	// VisionPrompt overrides DefaultVisionPrompt.
	VisionPrompt string

	// PlatformKeyword is appended to person/company search queries (default: "twitter").
	PlatformKeyword string

	// LocationTarget selects the destination of resolved locations (default: TargetMapsList).
	LocationTarget LocationTarget

	// StrictParse fails the whole batch on the first malformed response line
	// instead of skipping it.
	StrictParse bool

	// Dedup skips records whose name already exists in the catalog.
	// The existing names are read once per batch.
	Dedup bool

	// ImagePattern is the doublestar glob used by LoadDir (default: DefaultImagePattern).
	ImagePattern string

	// MinImageWidth rejects images narrower than this many pixels (default: 64).
	MinImageWidth int

	// DedupImages also drops screenshots that look like an earlier one in the
	// batch (perceptual hash). Byte-identical copies are always dropped.
	DedupImages bool

	// Now returns the current time (default: time.Now).
	Now func() time.Time

	// Optional callbacks for metrics/logging.
	OnDiagnostic func(Diagnostic)
	OnRecord     func(RecordEvent)
}

// Diagnostic describes a response line that did not produce a routable subject.
type Diagnostic struct {
	Line    int
	Name    string
	RawType string
	Err     error // nil for unknown-type subjects
}

// RecordEvent reports the outcome of one resolved record.
type RecordEvent struct {
	Name   string
	Type   SubjectType
	Link   string
	Status string // "written", "duplicate", "failed", "unresolved", "queued"
	Err    error
}

func (c *Config) defaults() {
	if c.PlatformKeyword == "" {
		c.PlatformKeyword = DefaultPlatformKeyword
	}
	if c.LocationTarget == "" {
		c.LocationTarget = TargetMapsList
	}
	if c.ImagePattern == "" {
		c.ImagePattern = DefaultImagePattern
	}
	if c.MinImageWidth <= 0 {
		c.MinImageWidth = DefaultMinImageWidth
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

func (c *Config) prompt() string {
	if c.VisionPrompt != "" {
		return c.VisionPrompt
	}
	return DefaultVisionPrompt
}

func (c *Config) emitDiagnostic(d Diagnostic) {
	if c.OnDiagnostic != nil {
		c.OnDiagnostic(d)
	}
}

func (c *Config) emitRecord(e RecordEvent) {
	if c.OnRecord != nil {
		c.OnRecord(e)
	}
}
