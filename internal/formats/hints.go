package formats

import (
	"github.com/dgallion1/xmlsift/internal/handler"
)

var processingHints = map[string]handler.ProcessingHint{
	"scap": {
		Approach:          "Security-focused analysis",
		KeyElements:       []string{"rule", "check", "test", "result"},
		ExtractionPattern: "Extract compliance status and security findings",
	},
	"xccdf": {
		Approach:          "Checklist processing",
		KeyElements:       []string{"Rule", "select", "check"},
		ExtractionPattern: "Extract security configuration requirements",
	},
	"oval": {
		Approach:          "Vulnerability assessment",
		KeyElements:       []string{"definition", "test", "object", "state"},
		ExtractionPattern: "Extract vulnerability definitions and test criteria",
	},
	"maven_pom": {
		Approach:          "Dependency graph extraction",
		KeyElements:       []string{"dependency", "plugin", "module", "properties"},
		ExtractionPattern: "Extract coordinates, dependency versions and build plugins",
	},
	"ant_build": {
		Approach:          "Build target analysis",
		KeyElements:       []string{"target", "property", "taskdef"},
		ExtractionPattern: "Extract targets with their dependencies and properties",
	},
	"log4j": {
		Approach:          "Logging configuration review",
		KeyElements:       []string{"appender", "logger", "root"},
		ExtractionPattern: "Extract appenders, logger levels and output destinations",
	},
	"spring": {
		Approach:          "Bean wiring analysis",
		KeyElements:       []string{"bean", "property", "import"},
		ExtractionPattern: "Extract bean definitions, scopes and injected properties",
	},
	"soap": {
		Approach:          "Message inspection",
		KeyElements:       []string{"Header", "Body", "Fault"},
		ExtractionPattern: "Extract the operation payload and any fault details",
	},
	"wsdl": {
		Approach:          "Service contract extraction",
		KeyElements:       []string{"service", "portType", "operation", "message"},
		ExtractionPattern: "Extract operations with their input and output messages",
	},
	"xsd": {
		Approach:          "Schema model extraction",
		KeyElements:       []string{"element", "complexType", "simpleType"},
		ExtractionPattern: "Extract types, elements and their constraints",
	},
	"svg": {
		Approach:          "Graphics inventory",
		KeyElements:       []string{"g", "path", "text", "use"},
		ExtractionPattern: "Extract drawable elements, text labels and embedded scripts",
	},
	"kml": {
		Approach:          "Geospatial feature extraction",
		KeyElements:       []string{"Placemark", "Point", "LineString", "Polygon"},
		ExtractionPattern: "Extract placemarks with names and coordinates",
	},
	"sitemap": {
		Approach:          "URL inventory",
		KeyElements:       []string{"url", "loc", "lastmod"},
		ExtractionPattern: "Extract URLs with modification dates and priorities",
	},
	"feed": {
		Approach:          "Syndication item extraction",
		KeyElements:       []string{"item", "entry", "title", "link"},
		ExtractionPattern: "Extract items with titles, links and publication dates",
	},
	"docbook": {
		Approach:          "Document section processing",
		KeyElements:       []string{"chapter", "section", "para", "programlisting"},
		ExtractionPattern: "Extract sections as text with code listings kept whole",
	},
	"records": {
		Approach:          "Tabular record extraction",
		ExtractionPattern: "Extract each repeated record as one row of fields",
	},
}

// ProcessingHint returns the handler's processing suggestion. Handlers
// without an entry get the general one.
func (b base) ProcessingHint() handler.ProcessingHint {
	return processingHints[b.name]
}
