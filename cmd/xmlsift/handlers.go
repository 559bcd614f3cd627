package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/chunker"
)

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List registered handlers in priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		type row struct {
			Name     string           `json:"name"`
			TypeName string           `json:"type_name"`
			Category string           `json:"category"`
			Strategy chunker.Strategy `json:"auto_strategy"`
			Fallback bool             `json:"fallback,omitempty"`
		}
		var rows []row
		for _, h := range registry.Handlers() {
			rows = append(rows, row{h.Name(), h.TypeName(), h.Category(), chunker.ResolveAuto(h.Name()), false})
		}
		fb := registry.Fallback()
		rows = append(rows, row{fb.Name(), fb.TypeName(), fb.Category(), chunker.ResolveAuto(fb.Name()), true})

		if jsonOutput {
			return printJSON(rows)
		}
		header("Handlers")
		for i, r := range rows {
			name := green(fmt.Sprintf("%-10s", r.Name))
			if r.Fallback {
				name = gray(fmt.Sprintf("%-10s", r.Name))
			}
			fmt.Printf("  %2d. %s %-28s %-10s %s\n", i+1, name, r.TypeName, r.Category, r.Strategy)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(handlersCmd)
}
