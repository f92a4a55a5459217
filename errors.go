package snapcatalog

import (
	"errors"
	"fmt"
)

// ErrNoImages is returned by Run when the batch is empty.
var ErrNoImages = errors.New("snapcatalog: no images")

// ParseError reports a response line that cannot be split into a subject.
type ParseError struct {
	Line   int    // 1-based index among non-empty lines
	Text   string // raw line
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %d %q: %s", e.Line, e.Text, e.Reason)
}

// UpstreamError reports a non-success status or an unexpected response shape
// from an external service.
type UpstreamError struct {
	Service string // "vision", "search", "places", "catalog", ...
	Status  int    // HTTP status, 0 when the body was malformed
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s upstream: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s upstream %d: %s", e.Service, e.Status, e.Message)
}

// Temporary reports whether retrying the call may succeed.
func (e *UpstreamError) Temporary() bool {
	return e.Status == 429 || e.Status/100 == 5
}

// ResolutionError reports that a resolver found no usable result for a subject.
type ResolutionError struct {
	Name   string
	Query  string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q (query %q): %s", e.Name, e.Query, e.Reason)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// IsResolutionError reports whether err is, or wraps, a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
