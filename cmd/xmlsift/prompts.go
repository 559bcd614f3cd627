package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/prompt"
)

var promptLimit int

var promptsCmd = &cobra.Command{
	Use:     "prompts <file>",
	Short:   "Generate LLM prompts for a document and its chunks",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireChunking,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.Run(cmd.Context(), args[0], runOptions(false))
		if err != nil {
			return err
		}

		prompts := map[string]string{
			"schema_analysis": prompt.BuildSchemaPrompt(res.Document, res.Detection, res.Analysis),
		}
		order := []string{"schema_analysis"}
		title := filepath.Base(res.Path)
		for i, c := range res.Chunks {
			if promptLimit > 0 && i >= promptLimit {
				break
			}
			prompts[c.ID] = prompt.BuildChunkPrompt(title, res.Detection, c)
			order = append(order, c.ID)
		}

		if jsonOutput {
			return printJSON(prompts)
		}
		for _, k := range order {
			header(k)
			fmt.Println(prompts[k])
		}
		return nil
	},
}

func init() {
	promptsCmd.Flags().IntVar(&promptLimit, "limit", 5, "maximum chunk prompts (0 for all)")
	rootCmd.AddCommand(promptsCmd)
}
