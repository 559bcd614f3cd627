package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Detect and analyze an XML file",
	Long:  `Run detection and the matching handler's analysis. Handler failures fall back to the generic analysis and are reported as warnings.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.Run(cmd.Context(), args[0], runOptions(true))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}

		a := res.Analysis
		header("Analysis")
		fmt.Printf("  File:       %s\n", res.Path)
		fmt.Printf("  Type:       %s (%s)\n", green(res.Detection.DocumentType), res.Detection.TypeName)
		fmt.Printf("  Confidence: %s\n", confidenceColor(res.Detection.Confidence))
		st := res.Document.Stats
		fmt.Printf("  Elements:   %d total, %d unique, depth %d\n\n", st.ElementCount, st.UniqueTags, st.MaxDepth)

		if len(a.KeyFindings) > 0 {
			fmt.Printf("%s\n", yellow("Key findings:"))
			for _, k := range sortedKeys(a.KeyFindings) {
				v, _ := json.Marshal(a.KeyFindings[k])
				s := string(v)
				if len(s) > 160 {
					s = s[:157] + "..."
				}
				fmt.Printf("  %s: %s\n", k, s)
			}
			fmt.Println()
		}
		if len(a.DataInventory) > 0 {
			fmt.Printf("%s\n", yellow("Inventory:"))
			for _, k := range sortedKeys(a.DataInventory) {
				fmt.Printf("  %-24s %d\n", k, a.DataInventory[k])
			}
			fmt.Println()
		}
		if len(a.QualityMetrics) > 0 {
			fmt.Printf("%s\n", yellow("Quality:"))
			for _, k := range sortedKeys(a.QualityMetrics) {
				fmt.Printf("  %-24s %s\n", k, confidenceColor(a.QualityMetrics[k]))
			}
			fmt.Println()
		}
		if p := a.Processing; p != nil {
			fmt.Printf("%s\n", yellow("Suggested processing:"))
			fmt.Printf("  Approach:     %s\n", p.Approach)
			fmt.Printf("  Key elements: %s\n", strings.Join(p.KeyElements, ", "))
			fmt.Printf("  Pattern:      %s\n\n", p.ExtractionPattern)
		}
		for _, r := range a.Recommendations {
			fmt.Printf("  %s %s\n", cyan("→"), r)
		}
		printWarnings(res.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
