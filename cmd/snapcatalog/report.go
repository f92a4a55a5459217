package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderReport prints one row per record outcome plus a summary footer.
func renderReport(w io.Writer, r *snapcatalog.Report) {
	t := newTable(w)
	t.SetTitle("batch " + r.BatchID)
	t.AppendHeader(table.Row{"Status", "Type", "Name", "Link / Error"})

	for _, rec := range r.Written {
		t.AppendRow(table.Row{"written", rec.Type, rec.Name, rec.Link})
	}
	for _, loc := range r.Queued {
		t.AppendRow(table.Row{"queued", snapcatalog.Location, loc.CanonicalName, loc.MapLink})
	}
	for _, name := range r.Duplicates {
		t.AppendRow(table.Row{"duplicate", "", name, ""})
	}
	for _, f := range r.Unresolved {
		t.AppendRow(table.Row{"unresolved", f.Type, f.Name, errText(f.Err)})
	}
	for _, f := range r.Failed {
		t.AppendRow(table.Row{"failed", f.Type, f.Name, errText(f.Err)})
	}
	for _, d := range r.Dropped {
		t.AppendRow(table.Row{"dropped", "image", d.Name, d.Reason})
	}

	t.AppendFooter(table.Row{"images / subjects", formatPair(r.Images, r.Subjects), "unknown / skipped", formatPair(r.Unknown, r.Skipped)})
	t.Render()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
