package chunker

// autoStrategies maps document types to their default strategy. Types not
// listed, including "generic", resolve to Hierarchical.
var autoStrategies = map[string]Strategy{
	"generic":   Hierarchical,
	"scap":      ContentAware,
	"xccdf":     Hierarchical,
	"oval":      Hierarchical,
	"maven_pom": Hierarchical,
	"ant_build": Hierarchical,
	"log4j":     Hierarchical,
	"spring":    Hierarchical,
	"soap":      ContentAware,
	"wsdl":      Hierarchical,
	"xsd":       Hierarchical,
	"svg":       ContentAware,
	"kml":       ContentAware,
	"sitemap":   SlidingWindow,
	"feed":      SlidingWindow,
	"docbook":   Hierarchical,
	"records":   SlidingWindow,
}

// ResolveAuto returns the default strategy for a document type. It depends on
// the type name only.
func ResolveAuto(docType string) Strategy {
	if s, ok := autoStrategies[docType]; ok {
		return s
	}
	return Hierarchical
}

// AutoTable returns a copy of the document type to strategy table.
func AutoTable() map[string]Strategy {
	out := make(map[string]Strategy, len(autoStrategies))
	for k, v := range autoStrategies {
		out[k] = v
	}
	return out
}
