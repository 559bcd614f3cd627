package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/dgallion1/xmlsift/internal/handler"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func header(title string) {
	fmt.Printf("\n%s\n\n", cyan("=== "+title+" ==="))
}

// confidenceColor shades a confidence value: green when confident, gray at zero.
func confidenceColor(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.8:
		return green(s)
	case c > 0:
		return yellow(s)
	}
	return gray(s)
}

func printWarnings(warnings []handler.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("%s\n", yellow("Warnings:"))
	for _, w := range warnings {
		fmt.Printf("  %s %s\n", yellow("⚠"), w.String())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
