// Package vault stores catalog records as markdown notes with YAML
// frontmatter, one file per record.
package vault

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

const separator = "---\n"

// Frontmatter is the YAML header of a catalog note.
type Frontmatter struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Link      string `yaml:"link,omitempty"`
	DateAdded string `yaml:"date_added"`
}

type Store struct {
	Dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("vault path is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Insert writes a new note under <type>/<slug>-<id>.md. Existing notes are
// never overwritten.
func (s *Store) Insert(_ context.Context, rec snapcatalog.CatalogRecord) error {
	id := uuid.NewString()
	fm := Frontmatter{
		ID:        id,
		Name:      rec.Name,
		Type:      rec.Type.String(),
		Link:      rec.Link,
		DateAdded: rec.DateAdded.Format(snapcatalog.DateLayout),
	}
	content, err := Render(fm, rec.Note)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.Dir, fm.Type)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, Slug(rec.Name)+"-"+id[:8]+".md")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write note: %w", err)
	}
	return f.Close()
}

// ListNames reads the frontmatter of every note in the vault.
func (s *Store) ListNames(_ context.Context) (map[string]struct{}, error) {
	notes, err := s.notes()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		names[n.Frontmatter.Name] = struct{}{}
	}
	return names, nil
}

// Records returns every note as a catalog record, ordered by path.
func (s *Store) Records(_ context.Context) ([]snapcatalog.CatalogRecord, error) {
	notes, err := s.notes()
	if err != nil {
		return nil, err
	}
	out := make([]snapcatalog.CatalogRecord, 0, len(notes))
	for _, n := range notes {
		rec := snapcatalog.CatalogRecord{
			Name: n.Frontmatter.Name,
			Type: snapcatalog.ParseSubjectType(n.Frontmatter.Type),
			Link: n.Frontmatter.Link,
			Note: strings.TrimSpace(n.Body),
		}
		if t, err := time.Parse(snapcatalog.DateLayout, n.Frontmatter.DateAdded); err == nil {
			rec.DateAdded = t
		}
		out = append(out, rec)
	}
	return out, nil
}

// Note is a parsed catalog note.
type Note struct {
	Path        string
	Frontmatter Frontmatter
	Body        string
}

func (s *Store) notes() ([]Note, error) {
	fsys := os.DirFS(s.Dir)
	matches, err := doublestar.Glob(fsys, "**/*.md", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob vault: %w", err)
	}

	var out []Note
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m, err)
		}
		fm, body, err := Split(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		if fm.Name == "" {
			continue
		}
		out = append(out, Note{Path: m, Frontmatter: fm, Body: body})
	}
	return out, nil
}

// Render produces a markdown note: frontmatter, blank line, body.
func Render(fm Frontmatter, body string) (string, error) {
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf := bytes.Buffer{}
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	buf.WriteString("\n")
	if body != "" {
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// Split parses a note into frontmatter and body. Notes without frontmatter
// return a zero Frontmatter.
func Split(content string) (Frontmatter, string, error) {
	var fm Frontmatter
	if !strings.HasPrefix(content, separator) {
		return fm, content, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n"+separator)
	if idx < 0 {
		return fm, "", fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return fm, "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	body := strings.TrimPrefix(rest[idx+1+len(separator):], "\n")
	return fm, body, nil
}

// Slug turns a name into a lowercase file-name-safe slug.
// "Mala Project, NYC" becomes "mala-project-nyc".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	const maxSlug = 60
	if r := []rune(slug); len(r) > maxSlug {
		slug = strings.TrimSuffix(string(r[:maxSlug]), "-")
	}
	return slug
}
