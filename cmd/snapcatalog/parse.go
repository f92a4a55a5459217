package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Parse a saved model response and show how it would be routed",
	Long: `parse reads a vision model response ("-" for stdin), parses it into
subjects and prints the routed groups with the search query each person or
company would use. Nothing is sent anywhere.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		f, err := loadFile()
		if err != nil {
			return err
		}

		cfg := &snapcatalog.Config{
			StrictParse:     f.Pipeline.StrictParse,
			PlatformKeyword: f.Pipeline.PlatformKeyword,
		}
		subjects, err := cfg.ParseSubjects(text)
		if err != nil {
			return err
		}
		renderGroups(cmd.OutOrStdout(), cfg, snapcatalog.Route(subjects))
		return nil
	},
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

func renderGroups(w io.Writer, cfg *snapcatalog.Config, g snapcatalog.Groups) {
	keyword := cfg.PlatformKeyword
	if keyword == "" {
		keyword = snapcatalog.DefaultPlatformKeyword
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Line", "Type", "Name", "Note", "Query"})
	for _, s := range g.Locations {
		t.AppendRow(table.Row{s.Line, s.Type, s.Name, s.Note, s.Name})
	}
	for _, group := range [][]snapcatalog.Subject{g.People, g.Companies} {
		for _, s := range group {
			t.AppendRow(table.Row{s.Line, s.Type, s.Name, s.Note, snapcatalog.BuildEntityQuery(s.Name, s.Note, keyword)})
		}
	}
	t.Render()
}

func formatPair(a, b int) string {
	return strconv.Itoa(a) + " / " + strconv.Itoa(b)
}
