package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

var showContent bool

var chunkCmd = &cobra.Command{
	Use:     "chunk <file>",
	Short:   "Split an XML file into token-bounded chunks",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireChunking,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.Run(cmd.Context(), args[0], runOptions(false))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}

		header("Chunks")
		cached := ""
		if res.Cached {
			cached = gray(" (cached)")
		}
		fmt.Printf("  File:     %s%s\n", res.Path, cached)
		fmt.Printf("  Type:     %s\n", green(res.Detection.DocumentType))
		fmt.Printf("  Strategy: %s\n", res.Strategy)
		fmt.Printf("  Chunks:   %d (avg %.0f tokens)\n\n", len(res.Chunks), avgTokens(res.Chunks))

		for _, c := range res.Chunks {
			flag := ""
			if c.Oversized() {
				flag = red(" oversized")
			}
			if cat, ok := c.Metadata["category"].(string); ok {
				flag += " " + gray(cat)
			}
			start := ""
			if len(c.Paths) > 0 {
				start = c.Paths[0]
			}
			fmt.Printf("  %s %5d tokens %3d elements  %s%s\n",
				cyan(c.ID), c.TokenEstimate, len(c.IncludedElements()), start, flag)
			if showContent {
				fmt.Println(indent(c.Content, "      "))
			}
		}
		fmt.Println()
		printWarnings(res.Warnings)
		return nil
	},
}

func avgTokens(chunks []doctree.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += c.TokenEstimate
	}
	return float64(total) / float64(len(chunks))
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func init() {
	chunkCmd.Flags().BoolVar(&showContent, "show-content", false, "print chunk content")
	rootCmd.AddCommand(chunkCmd)
}
