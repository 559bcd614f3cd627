package formats

import (
	"fmt"
	"sort"
	"strings"
)

// Settings holds handler thresholds and confidence values keyed
// "<handler>.<signal>". Unset keys use DefaultSettings.
type Settings map[string]float64

// DefaultSettings returns the built-in handler configuration.
func DefaultSettings() Settings {
	return Settings{
		"scap.namespace": 0.5,
		"scap.root":      0.3,
		"scap.xccdf":     0.2,
		"scap.threshold": 0.5,

		"xccdf.namespace": 1.0,
		"xccdf.root":      0.6,

		"oval.namespace": 1.0,
		"oval.root":      0.7,

		"maven_pom.namespace": 0.95,
		"maven_pom.structure": 0.8,

		"ant_build.targets": 0.85,

		"log4j.v1": 1.0,
		"log4j.v2": 0.9,

		"spring.namespace": 1.0,
		"spring.root":      0.7,

		"soap.namespace": 1.0,
		"soap.root":      0.6,

		"wsdl.namespace": 1.0,
		"wsdl.root":      0.6,

		"xsd.namespace": 1.0,
		"xsd.root":      0.6,

		"svg.namespace": 1.0,
		"svg.root":      0.8,

		"kml.namespace": 1.0,
		"kml.root":      0.8,

		"sitemap.namespace": 1.0,
		"sitemap.root":      0.8,

		"feed.rss":  1.0,
		"feed.atom": 1.0,
		"feed.rdf":  0.9,

		"docbook.namespace": 1.0,
		"docbook.root":      0.8,

		"records.repeated":    0.6,
		"records.min_records": 10,
		"records.dominance":   0.8,
	}
}

// Merge returns a copy of s with overrides applied. Unknown keys are an error
// so that typos in configuration files surface early.
func (s Settings) Merge(overrides map[string]float64) (Settings, error) {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	var unknown []string
	for k, v := range overrides {
		if _, ok := out[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		out[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown handler settings: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func (s Settings) get(key string) float64 {
	if v, ok := s[key]; ok {
		return v
	}
	return DefaultSettings()[key]
}
