package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List cached runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cache == nil {
			return fmt.Errorf("no cache configured; set XMLSIFT_CACHE_PATH or --cache")
		}
		runs, err := cache.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(runs)
		}
		header("Cached runs")
		if len(runs) == 0 {
			fmt.Printf("  %s\n\n", gray("No cached runs"))
			return nil
		}
		for _, r := range runs {
			fmt.Printf("  %s %s\n", cyan(r.ID), r.Path)
			fmt.Printf("    %s %s, %d chunks, %s\n", r.DocType, confidenceColor(r.Confidence),
				r.ChunkCount, gray(r.CreatedAt.Format("2006-01-02 15:04:05")))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list (0 for all)")
	rootCmd.AddCommand(runsCmd)
}
