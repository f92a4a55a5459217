package main

import (
	"fmt"

	"github.com/spf13/cobra"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

var runURLs []string

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Classify the screenshots in a directory and catalog their subjects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(runURLs) == 0 {
			return fmt.Errorf("give a directory or at least one --url")
		}

		rt, err := loadRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		cfg := rt.Config

		var images []snapcatalog.Image
		if len(args) == 1 {
			loaded, err := cfg.LoadDir(args[0])
			if err != nil {
				return err
			}
			images = append(images, loaded...)
		}
		if len(runURLs) > 0 {
			loaded, err := cfg.LoadURLs(cmd.Context(), runURLs)
			if err != nil {
				return err
			}
			images = append(images, loaded...)
		}

		report, err := cfg.Run(cmd.Context(), images)
		if report != nil {
			renderReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Completed")
		return nil
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runURLs, "url", nil, "Remote screenshot URL (repeatable)")
}
