package formats

import (
	"fmt"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Log4j handles Log4j 1.x and 2.x configuration files.
type Log4j struct{ base }

// NewLog4j returns the Log4j configuration handler configured by s.
func NewLog4j(s Settings) *Log4j {
	return &Log4j{base{name: "log4j", typeName: "Log4j Configuration", category: "config", settings: s}}
}

// AtomicElements keeps appenders and loggers whole.
func (h *Log4j) AtomicElements() map[string]bool {
	return set("appender", "logger", "category", "root", "Logger", "Root", "AsyncLogger")
}

// Probe recognizes both the 1.x log4j:configuration root and the 2.x Configuration root.
func (h *Log4j) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if root.Tag == "log4j:configuration" || (root.Local == "configuration" && inNamespace(root, ns, "jakarta.apache.org/log4j")) {
		return true, h.settings.get("log4j.v1"), nil
	}
	if root.Local == "Configuration" && (root.Child("Appenders") != nil || root.Child("Loggers") != nil) {
		return true, h.settings.get("log4j.v2"), nil
	}
	return false, 0, nil
}

var riskyAppenders = []string{"SocketAppender", "JMSAppender", "SMTPAppender", "Socket", "JMS", "SMTP"}

// Analyze reports appenders, loggers and risky settings such as JNDI lookups.
func (h *Log4j) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	version := "1.x"
	if root.Local == "Configuration" {
		version = "2.x"
	}

	var appenders []map[string]string
	var loggers []map[string]string
	rootLevel := ""

	if version == "1.x" {
		for _, ap := range root.ChildrenNamed("appender") {
			appenders = append(appenders, map[string]string{"name": ap.AttrOr("name", ""), "type": ap.AttrOr("class", "")})
		}
		for _, l := range append(root.ChildrenNamed("logger"), root.ChildrenNamed("category")...) {
			level := ""
			if lv := l.Child("level"); lv != nil {
				level = lv.AttrOr("value", "")
			}
			loggers = append(loggers, map[string]string{"name": l.AttrOr("name", ""), "level": level})
		}
		if r := root.Child("root"); r != nil {
			if lv := r.Child("level"); lv != nil {
				rootLevel = lv.AttrOr("value", "")
			} else if lv := r.Child("priority"); lv != nil {
				rootLevel = lv.AttrOr("value", "")
			}
		}
	} else {
		if aps := root.Child("Appenders"); aps != nil {
			for _, ap := range aps.Children {
				appenders = append(appenders, map[string]string{"name": ap.AttrOr("name", ""), "type": ap.Tag})
			}
		}
		if ls := root.Child("Loggers"); ls != nil {
			for _, l := range ls.Children {
				if l.Local == "Root" || l.Local == "AsyncRoot" {
					rootLevel = l.AttrOr("level", "")
					continue
				}
				loggers = append(loggers, map[string]string{"name": l.AttrOr("name", ""), "level": l.AttrOr("level", "")})
			}
		}
	}

	var issues []string
	root.Walk(func(e *doctree.Element) bool {
		for _, at := range e.Attrs {
			if strings.Contains(strings.ToLower(at.Value), "${jndi:") {
				issues = append(issues, fmt.Sprintf("JNDI lookup in %s@%s", e.Path, at.Name))
			}
		}
		if strings.Contains(strings.ToLower(e.Text), "${jndi:") {
			issues = append(issues, fmt.Sprintf("JNDI lookup in %s", e.Path))
		}
		return true
	})
	for _, ap := range appenders {
		for _, risky := range riskyAppenders {
			if strings.HasSuffix(ap["type"], risky) {
				issues = append(issues, fmt.Sprintf("network appender %q (%s)", ap["name"], ap["type"]))
				break
			}
		}
	}

	debugLoggers := 0
	for _, l := range loggers {
		switch strings.ToUpper(l["level"]) {
		case "DEBUG", "TRACE", "ALL":
			debugLoggers++
		}
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"version":         version,
			"appenders":       appenders,
			"loggers":         loggers,
			"root_level":      rootLevel,
			"security_issues": issues,
		},
		DataInventory: map[string]int{
			"appenders": len(appenders),
			"loggers":   len(loggers),
		},
		AIUseCases: []string{
			"Logging configuration audit",
			"Log4Shell exposure detection",
			"Log routing documentation",
		},
		QualityMetrics: map[string]float64{
			"security_score":    clamp01(1 - 0.5*float64(len(issues))),
			"verbosity_control": clamp01(1 - ratioOr(debugLoggers, len(loggers), 0)),
		},
	}
	if len(issues) > 0 {
		a.Recommendations = append(a.Recommendations, "Remove JNDI lookups and review network appenders")
	}
	if version == "1.x" {
		a.Recommendations = append(a.Recommendations, "Log4j 1.x is end of life; migrate to Log4j 2")
	}
	if debugLoggers > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Lower the level of %d DEBUG/TRACE loggers in production", debugLoggers))
	}
	return a, nil
}

// Spring handles Spring XML bean definitions.
type Spring struct{ base }

// NewSpring returns the Spring bean configuration handler configured by s.
func NewSpring(s Settings) *Spring {
	return &Spring{base{name: "spring", typeName: "Spring Configuration", category: "config", settings: s}}
}

// AtomicElements keeps each bean definition whole.
func (h *Spring) AtomicElements() map[string]bool {
	return set("bean")
}

// Probe claims documents in the Spring beans namespace, or with a bare <beans> root.
func (h *Spring) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if inNamespace(root, ns, "springframework.org/schema/beans") {
		return true, h.settings.get("spring.namespace"), nil
	}
	if root.Local == "beans" {
		return true, h.settings.get("spring.root"), nil
	}
	return false, 0, nil
}

// Analyze reports bean definitions by scope, imports, profiles and hardcoded secrets.
func (h *Spring) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	beans := root.FindAll("bean")
	byScope := make(map[string]int)
	var list []map[string]string
	anonymous := 0
	for _, b := range beans {
		scope := b.AttrOr("scope", "singleton")
		byScope[scope]++
		id := b.AttrOr("id", b.AttrOr("name", ""))
		if id == "" {
			anonymous++
		}
		list = append(list, map[string]string{"id": id, "class": b.AttrOr("class", ""), "scope": scope})
	}

	var scans []string
	for _, cs := range root.FindAll("component-scan") {
		scans = append(scans, cs.AttrOr("base-package", ""))
	}
	var imports []string
	for _, im := range root.ChildrenNamed("import") {
		imports = append(imports, im.AttrOr("resource", ""))
	}
	var profiles []string
	for _, nested := range root.ChildrenNamed("beans") {
		if p, ok := nested.Attr("profile"); ok {
			profiles = append(profiles, p)
		}
	}
	hardcoded := 0
	for _, p := range root.FindAll("property") {
		name := strings.ToLower(p.AttrOr("name", ""))
		if (strings.Contains(name, "password") || strings.Contains(name, "secret")) && !strings.HasPrefix(p.AttrOr("value", "${"), "${") {
			hardcoded++
		}
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"beans":                list,
			"beans_by_scope":       byScope,
			"component_scan":       scans,
			"imports":              imports,
			"profiles":             profiles,
			"hardcoded_secrets":    hardcoded,
			"property_placeholder": len(root.FindAll("property-placeholder")) > 0,
		},
		DataInventory: map[string]int{
			"beans":   len(beans),
			"imports": len(imports),
		},
		AIUseCases: []string{
			"Dependency injection graph mapping",
			"Migration to annotation-based configuration",
		},
		QualityMetrics: map[string]float64{
			"bean_identification": ratioOr(len(beans)-anonymous, len(beans), 1),
			"secret_hygiene":      clamp01(1 - 0.25*float64(hardcoded)),
		},
	}
	if hardcoded > 0 {
		a.Recommendations = append(a.Recommendations, "Move credentials to externalized properties")
	}
	if anonymous > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Give ids to %d anonymous beans", anonymous))
	}
	return a, nil
}
