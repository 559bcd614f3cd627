package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/parser"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Detect the document type of an XML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parser.ParseFile(args[0], cfg.MaxFileBytes)
		if err != nil {
			return err
		}
		det := runner.Detector.Detect(doc)

		if jsonOutput {
			return printJSON(struct {
				Path      string                  `json:"path"`
				Root      string                  `json:"root"`
				Detection handler.DetectionResult `json:"detection"`
			}{args[0], doc.Root.Tag, det})
		}

		header("Detection")
		fmt.Printf("  File:       %s\n", args[0])
		fmt.Printf("  Root:       %s\n", doc.Root.Tag)
		fmt.Printf("  Type:       %s (%s)\n", green(det.DocumentType), det.TypeName)
		fmt.Printf("  Confidence: %s\n", confidenceColor(det.Confidence))
		if len(det.Candidates) > 1 {
			fmt.Printf("\n%s\n", yellow("Candidates:"))
			for _, c := range det.Candidates {
				fmt.Printf("  %-12s %s\n", c.Handler, confidenceColor(c.Confidence))
			}
		}
		fmt.Println()
		printWarnings(det.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
