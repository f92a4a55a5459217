package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

// recordLister is implemented by the local stores (sqlite, vault).
type recordLister interface {
	Records(ctx context.Context) ([]snapcatalog.CatalogRecord, error)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the records in the configured catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		t := newTable(cmd.OutOrStdout())
		switch store := rt.Config.Catalog.(type) {
		case recordLister:
			records, err := store.Records(cmd.Context())
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"Date", "Type", "Name", "Link"})
			for _, rec := range records {
				t.AppendRow(table.Row{rec.DateAdded.Format(snapcatalog.DateLayout), rec.Type, rec.Name, rec.Link})
			}
		case snapcatalog.NameLister:
			names, err := store.ListNames(cmd.Context())
			if err != nil {
				return err
			}
			sorted := make([]string, 0, len(names))
			for n := range names {
				sorted = append(sorted, n)
			}
			slices.Sort(sorted)
			t.AppendHeader(table.Row{"Name"})
			for _, n := range sorted {
				t.AppendRow(table.Row{n})
			}
		default:
			return fmt.Errorf("catalog store %T cannot list records", rt.Config.Catalog)
		}
		t.Render()
		return nil
	},
}
