package snapcatalog

import (
	"iter"
	"log/slog"
	"strings"
)

// SubjectType classifies what a screenshot is about.
type SubjectType int

const (
	Unknown SubjectType = iota
	Location
	Person
	Company
)

func (t SubjectType) String() string {
	switch t {
	case Location:
		return "location"
	case Person:
		return "person"
	case Company:
		return "company"
	default:
		return "unknown"
	}
}

// ParseSubjectType maps a raw type token to a SubjectType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseSubjectType(token string) SubjectType {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "location":
		return Location
	case "person":
		return Person
	case "company":
		return Company
	default:
		return Unknown
	}
}

// fieldSep separates the fields of a response line.
const fieldSep = ";"

// Subject is one classified item parsed from a vision response line.
type Subject struct {
	Type    SubjectType
	Name    string
	Note    string
	RawType string // trimmed type token as written by the model
	Line    int    // 1-based index among non-empty lines
}

// Lines yields the non-empty lines of text in order. Trailing CR is removed
// and whitespace-only lines are dropped.
func Lines(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(text) {
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// ParseLine splits one response line into a Subject.
// The note keeps embedded separators: "location;A;x;y" has note "x;y".
func ParseLine(n int, line string) (Subject, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) < 2 {
		return Subject{}, &ParseError{Line: n, Text: line, Reason: "expected at least 2 fields"}
	}

	name := strings.TrimSpace(parts[1])
	if name == "" {
		return Subject{}, &ParseError{Line: n, Text: line, Reason: "empty subject name"}
	}

	return Subject{
		Type:    ParseSubjectType(parts[0]),
		Name:    name,
		Note:    strings.TrimSpace(strings.Join(parts[2:], fieldSep)),
		RawType: strings.TrimSpace(parts[0]),
		Line:    n,
	}, nil
}

// ParseSubjects parses a vision response into subjects, in input order.
// Unknown-type subjects are returned (so callers can count them) and each
// produces one diagnostic. Malformed lines are skipped with a diagnostic,
// or abort parsing with a *ParseError when cfg.StrictParse is set.
func (cfg *Config) ParseSubjects(text string) ([]Subject, error) {
	subjects, _, err := cfg.parse(text)
	return subjects, err
}

// parse is ParseSubjects that also returns the number of skipped lines.
func (cfg *Config) parse(text string) ([]Subject, int, error) {
	var subjects []Subject
	skipped := 0
	n := 0
	for line := range Lines(text) {
		n++
		s, err := ParseLine(n, line)
		if err != nil {
			if cfg.StrictParse {
				return nil, skipped, err
			}
			skipped++
			slog.Warn("snapcatalog: skipping malformed line", "line", n, "error", err.Error())
			cfg.emitDiagnostic(Diagnostic{Line: n, Err: err})
			continue
		}

		if s.Type == Unknown {
			slog.Warn("snapcatalog: unknown subject type", "name", s.Name, "type", s.RawType)
			cfg.emitDiagnostic(Diagnostic{Line: n, Name: s.Name, RawType: s.RawType})
		}
		subjects = append(subjects, s)
	}
	return subjects, skipped, nil
}

// Format renders s back into the response line grammar.
func (s Subject) Format() string {
	return strings.Join([]string{s.Type.String(), s.Name, s.Note}, fieldSep)
}
