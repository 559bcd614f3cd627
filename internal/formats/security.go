package formats

import (
	"fmt"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// SCAP handles SCAP result collections and data streams.
type SCAP struct{ base }

// NewSCAP returns the SCAP report handler configured by s.
func NewSCAP(s Settings) *SCAP {
	return &SCAP{base{name: "scap", typeName: "SCAP Security Report", category: "security", settings: s}}
}

// Probe scores namespace, root and embedded XCCDF signals and claims the
// document once the sum passes scap.threshold.
func (h *SCAP) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	score := 0.0
	if inNamespace(root, ns, "scap.nist.gov") {
		score += h.settings.get("scap.namespace")
	}
	switch root.Local {
	case "asset-report-collection", "data-stream-collection":
		score += h.settings.get("scap.root")
	}
	if inNamespace(root, ns, "xccdf") {
		score += h.settings.get("scap.xccdf")
	}
	if score > h.settings.get("scap.threshold") {
		return true, clamp01(score), nil
	}
	return false, 0, nil
}

// Analyze reports rule results, pass/fail counts and the compliance ratio.
func (h *SCAP) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	byResult := make(map[string]int)
	bySeverity := make(map[string]int)
	var failed []string
	highFailures := 0
	for _, rr := range root.FindAll("rule-result") {
		result := rr.ChildText("result")
		if result == "" {
			result = "unknown"
		}
		byResult[result]++
		sev := rr.AttrOr("severity", "unknown")
		bySeverity[sev]++
		if result == "fail" {
			failed = append(failed, rr.AttrOr("idref", ""))
			if sev == "high" {
				highFailures++
			}
		}
	}

	assets := len(root.FindAll("asset"))
	components := len(root.FindAll("component"))
	benchmarks := len(root.FindAll("Benchmark"))
	evaluated := byResult["pass"] + byResult["fail"]

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"root":              root.Local,
			"results_by_status": byResult,
			"severity":          bySeverity,
			"failed_rules":      limit(failed, 20),
			"assets":            assets,
			"components":        components,
			"benchmarks":        benchmarks,
		},
		DataInventory: map[string]int{
			"rule_results": len(root.FindAll("rule-result")),
			"assets":       assets,
			"components":   components,
		},
		AIUseCases: []string{
			"Security compliance reporting",
			"Vulnerability prioritization",
			"Remediation planning",
			"Risk scoring",
		},
		QualityMetrics: map[string]float64{
			"compliance_rate": ratio(byResult["pass"], evaluated),
			"coverage":        ratioOr(evaluated, evaluated+byResult["notchecked"]+byResult["error"]+byResult["unknown"], 0),
		},
	}
	if highFailures > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Remediate %d high-severity failures first", highFailures))
	}
	if byResult["error"] > 0 {
		a.Recommendations = append(a.Recommendations, "Investigate rules that errored during evaluation")
	}
	if len(failed) > 0 {
		a.Recommendations = append(a.Recommendations, "Track failed rules in a remediation plan")
	}
	return a, nil
}

// XCCDF handles XCCDF benchmarks.
type XCCDF struct{ base }

// NewXCCDF returns the XCCDF benchmark handler configured by s.
func NewXCCDF(s Settings) *XCCDF {
	return &XCCDF{base{name: "xccdf", typeName: "XCCDF Benchmark", category: "security", settings: s}}
}

func (h *XCCDF) AtomicElements() map[string]bool {
	return set("Rule", "Value", "Profile")
}

// Probe claims <Benchmark> roots.
func (h *XCCDF) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if root.Local != "Benchmark" {
		return false, 0, nil
	}
	if inNamespace(root, ns, "xccdf") {
		return true, h.settings.get("xccdf.namespace"), nil
	}
	return true, h.settings.get("xccdf.root"), nil
}

// Analyze reports profiles, groups and rules by severity.
func (h *XCCDF) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	rules := root.FindAll("Rule")
	bySeverity := make(map[string]int)
	described, fixable := 0, 0
	for _, r := range rules {
		bySeverity[r.AttrOr("severity", "unknown")]++
		if r.Child("description") != nil {
			described++
		}
		if r.Child("fix") != nil || r.Child("fixtext") != nil {
			fixable++
		}
	}

	var profiles []map[string]string
	for _, p := range root.ChildrenNamed("Profile") {
		profiles = append(profiles, map[string]string{"id": p.AttrOr("id", ""), "title": p.ChildText("title")})
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"benchmark_id":      root.AttrOr("id", ""),
			"title":             root.ChildText("title"),
			"version":           root.ChildText("version"),
			"profiles":          profiles,
			"groups":            len(root.FindAll("Group")),
			"rules":             len(rules),
			"rules_by_severity": bySeverity,
		},
		DataInventory: map[string]int{
			"rules":    len(rules),
			"groups":   len(root.FindAll("Group")),
			"profiles": len(profiles),
			"values":   len(root.FindAll("Value")),
		},
		AIUseCases: []string{
			"Compliance checklist generation",
			"Control mapping across frameworks",
			"Remediation script drafting",
		},
		QualityMetrics: map[string]float64{
			"documentation_coverage": ratioOr(described, len(rules), 1),
			"fix_coverage":           ratioOr(fixable, len(rules), 1),
		},
	}
	if described < len(rules) {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Add descriptions to %d rules", len(rules)-described))
	}
	if fixable < len(rules) {
		a.Recommendations = append(a.Recommendations, "Provide fix text for rules without remediation guidance")
	}
	return a, nil
}

// OVAL handles OVAL definition documents.
type OVAL struct{ base }

// NewOVAL returns the OVAL definitions handler configured by s.
func NewOVAL(s Settings) *OVAL {
	return &OVAL{base{name: "oval", typeName: "OVAL Definitions", category: "security", settings: s}}
}

// AtomicElements keeps each definition whole.
func (h *OVAL) AtomicElements() map[string]bool {
	return set("definition")
}

// Probe claims <oval_definitions> roots.
func (h *OVAL) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if root.Local != "oval_definitions" {
		return false, 0, nil
	}
	if inNamespace(root, ns, "oval.mitre.org") {
		return true, h.settings.get("oval.namespace"), nil
	}
	return true, h.settings.get("oval.root"), nil
}

// Analyze reports definitions by class and their referenced CVEs.
func (h *OVAL) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	defs := childrenOf(root, "definitions", "definition")
	byClass := make(map[string]int)
	referenced := 0
	var cves []string
	for _, d := range defs {
		byClass[d.AttrOr("class", "unknown")]++
		refs := d.FindAll("reference")
		if len(refs) > 0 {
			referenced++
		}
		for _, r := range refs {
			if id := r.AttrOr("ref_id", ""); strings.HasPrefix(id, "CVE-") {
				cves = append(cves, id)
			}
		}
	}

	count := func(container string) int {
		if c := root.Child(container); c != nil {
			return len(c.Children)
		}
		return 0
	}
	gen := map[string]string{}
	if g := root.Child("generator"); g != nil {
		gen["product"] = g.ChildText("product_name")
		gen["version"] = g.ChildText("product_version")
		gen["schema_version"] = g.ChildText("schema_version")
		gen["timestamp"] = g.ChildText("timestamp")
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"generator":            gen,
			"definitions_by_class": byClass,
			"cves":                 limit(cves, 50),
		},
		DataInventory: map[string]int{
			"definitions": len(defs),
			"tests":       count("tests"),
			"objects":     count("objects"),
			"states":      count("states"),
			"variables":   count("variables"),
		},
		AIUseCases: []string{
			"Vulnerability definition summarization",
			"Patch applicability assessment",
		},
		QualityMetrics: map[string]float64{
			"reference_coverage": ratioOr(referenced, len(defs), 1),
		},
	}
	if referenced < len(defs) {
		a.Recommendations = append(a.Recommendations, "Add external references to definitions that lack them")
	}
	return a, nil
}
