package snapcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// WorkItem is one entry of the maps work-list handed to the browser session.
type WorkItem struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
	Link  string `json:"link"`
	Note  string `json:"note,omitempty"`
}

// WorkList is the file written by WorkListFile.
type WorkList struct {
	BatchCreated time.Time  `json:"created"`
	List         string     `json:"list"`
	Items        []WorkItem `json:"items"`
}

// DefaultMapsList is the maps list locations are saved to.
const DefaultMapsList = "Want to go"

// WorkListFile is a MapsListSaver that writes the ordered locations to a JSON
// work-list in Dir, one file per batch. A separate, logged-in browser session
// consumes the file and performs the save clicks.
type WorkListFile struct {
	Dir  string
	List string           // target list name (default: DefaultMapsList)
	Now  func() time.Time // default: time.Now
}

// Save writes locations to a new work-list file. The file is written to a
// temporary name and renamed so consumers never see a partial list.
func (w *WorkListFile) Save(_ context.Context, locations []ResolvedLocation) error {
	if len(locations) == 0 {
		return nil
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	list := w.List
	if list == "" {
		list = DefaultMapsList
	}

	wl := WorkList{BatchCreated: now().UTC(), List: list}
	for i, loc := range locations {
		wl.Items = append(wl.Items, WorkItem{Order: i + 1, Name: loc.CanonicalName, Link: loc.MapLink, Note: loc.Note})
	}

	data, err := json.MarshalIndent(wl, "", "  ")
	if err != nil {
		return fmt.Errorf("encode work-list: %w", err)
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create work-list dir: %w", err)
	}
	name := filepath.Join(w.Dir, "maps-"+wl.BatchCreated.Format("20060102T150405.000000000")+".json")
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write work-list: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("publish work-list: %w", err)
	}

	slog.Info("snapcatalog: maps work-list written", "file", name, "locations", len(locations))
	return nil
}

// ReadWorkList loads a work-list written by WorkListFile.
func ReadWorkList(path string) (*WorkList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wl WorkList
	if err := json.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("decode work-list %s: %w", path, err)
	}
	return &wl, nil
}
