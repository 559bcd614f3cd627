package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/parser"
	"github.com/dgallion1/xmlsift/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:     "batch <file|dir>...",
	Short:   "Process many XML files in parallel",
	Long:    `Process files and directories (recursively, by supported extension) with bounded parallelism. One failing file never stops the others.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireChunking,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no supported files found")
		}

		items := runner.RunBatch(cmd.Context(), paths, runOptions(false))
		failed := 0
		for _, it := range items {
			if it.Err != nil {
				failed++
			}
		}

		if jsonOutput {
			type row struct {
				Path     string `json:"path"`
				DocType  string `json:"doc_type,omitempty"`
				Strategy string `json:"strategy,omitempty"`
				Chunks   int    `json:"chunks"`
				Cached   bool   `json:"cached"`
				Error    string `json:"error,omitempty"`
			}
			rows := make([]row, len(items))
			for i, it := range items {
				rows[i].Path = it.Path
				if it.Err != nil {
					rows[i].Error = it.Err.Error()
					continue
				}
				rows[i].DocType = it.Result.Detection.DocumentType
				rows[i].Strategy = string(it.Result.Strategy)
				rows[i].Chunks = len(it.Result.Chunks)
				rows[i].Cached = it.Result.Cached
			}
			if err := printJSON(map[string]any{"files": rows, "stages": runner.Stats.Snapshot()}); err != nil {
				return err
			}
		} else {
			printBatch(items)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(items))
		}
		return nil
	},
}

func printBatch(items []pipeline.BatchItem) {
	header("Batch")
	for _, it := range items {
		if it.Err != nil {
			fmt.Printf("  %s %s\n    %s\n", red("✗"), it.Path, gray(it.Err.Error()))
			continue
		}
		r := it.Result
		mark := green("✓")
		if r.Cached {
			mark = cyan("↺")
		}
		fmt.Printf("  %s %s\n    %s %s, %d chunks via %s\n", mark, it.Path,
			r.Detection.DocumentType, confidenceColor(r.Detection.Confidence), len(r.Chunks), r.Strategy)
	}

	counts := runner.Jobs.Counts()
	fmt.Printf("\n%s completed=%d cached=%d failed=%d\n", yellow("Jobs:"),
		counts[pipeline.StatusCompleted], counts[pipeline.StatusCached], counts[pipeline.StatusFailed])

	stages := runner.Stats.Snapshot()
	if len(stages) == 0 {
		return
	}
	fmt.Printf("\n%s\n", yellow("Stage latency (ms):"))
	fmt.Printf("  %-8s %6s %8s %8s %8s %8s\n", "stage", "count", "avg", "p50", "p95", "max")
	for _, name := range []string{pipeline.StageParse, pipeline.StageDetect, pipeline.StageAnalyze, pipeline.StageChunk} {
		s, ok := stages[name]
		if !ok {
			continue
		}
		fmt.Printf("  %-8s %6d %8.1f %8.1f %8.1f %8d\n", name, s.Count, s.AvgMs, s.P50Ms, s.P95Ms, s.MaxMs)
	}
	fmt.Println()
}

// collectFiles expands directories into the supported files below them.
func collectFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && parser.IsSupportedExtension(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
