package formats

import (
	"fmt"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/payload"
)

const (
	soap11Namespace = "schemas.xmlsoap.org/soap/envelope"
	soap12Namespace = "www.w3.org/2003/05/soap-envelope"
)

// SOAP handles SOAP envelopes.
type SOAP struct{ base }

// NewSOAP returns the SOAP envelope handler configured by s.
func NewSOAP(s Settings) *SOAP {
	return &SOAP{base{name: "soap", typeName: "SOAP Envelope", category: "webservice", settings: s}}
}

// Probe claims <Envelope> roots; a SOAP 1.1 or 1.2 namespace raises confidence.
func (h *SOAP) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	if root.Local != "Envelope" {
		return false, 0, nil
	}
	if strings.Contains(root.Space, soap11Namespace) || strings.Contains(root.Space, soap12Namespace) {
		return true, h.settings.get("soap.namespace"), nil
	}
	return true, h.settings.get("soap.root"), nil
}

// ContentCategory marks inline binary and XOP references as attachments and
// header blocks as metadata.
func (h *SOAP) ContentCategory(e *doctree.Element) (doctree.ContentCategory, bool) {
	if e.Local == "Include" && strings.Contains(e.Space, "xop") {
		return doctree.CategoryAttachment, true
	}
	if e.IsLeaf() && payload.LooksBase64(e.Text) {
		return doctree.CategoryAttachment, true
	}
	if e.IsLeaf() && strings.Contains(e.Path, "Header[") {
		return doctree.CategoryMetadata, true
	}
	return "", false
}

// Analyze reports the body operation, headers and any fault.
func (h *SOAP) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	version := "unknown"
	switch {
	case strings.Contains(root.Space, soap11Namespace):
		version = "1.1"
	case strings.Contains(root.Space, soap12Namespace):
		version = "1.2"
	}

	var headers []string
	if hd := root.Child("Header"); hd != nil {
		for _, c := range hd.Children {
			headers = append(headers, c.Tag)
		}
	}

	findings := map[string]any{"soap_version": version, "header_blocks": headers}
	body := root.Child("Body")
	operation := ""
	if body != nil && len(body.Children) > 0 {
		op := body.Children[0]
		operation = op.Local
		findings["operation"] = operation
		findings["operation_namespace"] = op.Space
		if op.Local == "Fault" {
			fault := map[string]string{
				"code":   op.ChildText("faultcode"),
				"string": op.ChildText("faultstring"),
			}
			if c := op.Child("Code"); c != nil {
				fault["code"] = c.ChildText("Value")
			}
			if r := op.Child("Reason"); r != nil {
				fault["string"] = r.ChildText("Text")
			}
			findings["fault"] = fault
		}
	}

	attachments, attachmentBytes := 0, 0
	root.Walk(func(e *doctree.Element) bool {
		if c, ok := h.ContentCategory(e); ok && c == doctree.CategoryAttachment {
			attachments++
			attachmentBytes += len(e.Text)
		}
		return true
	})
	findings["attachments"] = attachments
	findings["attachment_bytes"] = attachmentBytes

	secured := false
	for _, hname := range headers {
		if strings.HasSuffix(hname, "Security") {
			secured = true
		}
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings:  findings,
		DataInventory: map[string]int{
			"header_blocks": len(headers),
			"attachments":   attachments,
		},
		AIUseCases: []string{
			"Service message tracing",
			"API contract reconstruction from traffic",
			"Fault triage",
		},
		QualityMetrics: map[string]float64{
			"well_formed_envelope": ratio(presentCount(root, "Body"), 1),
		},
	}
	if _, isFault := findings["fault"]; isFault {
		a.Recommendations = append(a.Recommendations, "Message carries a SOAP fault; inspect the fault detail")
	}
	if !secured {
		a.Recommendations = append(a.Recommendations, "No WS-Security header present")
	}
	if attachmentBytes > 1<<20 {
		a.Recommendations = append(a.Recommendations, "Large inline attachments; consider MTOM/XOP")
	}
	return a, nil
}

// WSDL handles WSDL 1.1 and 2.0 service descriptions.
type WSDL struct{ base }

// NewWSDL returns the WSDL handler configured by s.
func NewWSDL(s Settings) *WSDL {
	return &WSDL{base{name: "wsdl", typeName: "WSDL Service", category: "webservice", settings: s}}
}

func (h *WSDL) AtomicElements() map[string]bool {
	return set("operation", "message", "port", "endpoint")
}

// Probe recognizes WSDL 1.1 definitions and WSDL 2.0 descriptions.
func (h *WSDL) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	switch {
	case root.Local == "definitions" && strings.Contains(root.Space, "schemas.xmlsoap.org/wsdl"):
		return true, h.settings.get("wsdl.namespace"), nil
	case root.Local == "description" && strings.Contains(root.Space, "www.w3.org/ns/wsdl"):
		return true, h.settings.get("wsdl.namespace"), nil
	case root.Local == "definitions" && (root.Child("portType") != nil || root.Child("service") != nil):
		return true, h.settings.get("wsdl.root"), nil
	}
	return false, 0, nil
}

// Analyze reports services, port types and operations.
func (h *WSDL) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	var services []map[string]any
	for _, s := range root.ChildrenNamed("service") {
		var endpoints []string
		for _, p := range append(s.ChildrenNamed("port"), s.ChildrenNamed("endpoint")...) {
			addr := p.AttrOr("address", "")
			if a := p.Child("address"); a != nil {
				addr = a.AttrOr("location", addr)
			}
			endpoints = append(endpoints, addr)
		}
		services = append(services, map[string]any{"name": s.AttrOr("name", ""), "endpoints": endpoints})
	}

	interfaces := append(root.ChildrenNamed("portType"), root.ChildrenNamed("interface")...)
	var operations []string
	undocumented := 0
	for _, it := range interfaces {
		for _, op := range it.ChildrenNamed("operation") {
			operations = append(operations, it.AttrOr("name", "")+"."+op.AttrOr("name", ""))
			if op.Child("documentation") == nil {
				undocumented++
			}
		}
	}

	insecure := 0
	for _, s := range services {
		for _, ep := range s["endpoints"].([]string) {
			if strings.HasPrefix(ep, "http://") {
				insecure++
			}
		}
	}

	schemas := 0
	if t := root.Child("types"); t != nil {
		schemas = len(t.ChildrenNamed("schema"))
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"target_namespace": root.AttrOr("targetNamespace", ""),
			"services":         services,
			"operations":       operations,
			"bindings":         len(root.ChildrenNamed("binding")),
			"messages":         len(root.ChildrenNamed("message")),
			"schemas":          schemas,
		},
		DataInventory: map[string]int{
			"services":   len(services),
			"operations": len(operations),
			"messages":   len(root.ChildrenNamed("message")),
		},
		AIUseCases: []string{
			"Client SDK generation",
			"API documentation drafting",
			"REST migration planning",
		},
		QualityMetrics: map[string]float64{
			"documentation": ratioOr(len(operations)-undocumented, len(operations), 1),
		},
	}
	if undocumented > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Document %d operations", undocumented))
	}
	if insecure > 0 {
		a.Recommendations = append(a.Recommendations, "Serve endpoints over HTTPS")
	}
	return a, nil
}

// XSD handles W3C XML Schema documents.
type XSD struct{ base }

// NewXSD returns the XML Schema handler configured by s.
func NewXSD(s Settings) *XSD {
	return &XSD{base{name: "xsd", typeName: "XML Schema", category: "schema", settings: s}}
}

func (h *XSD) AtomicElements() map[string]bool {
	return set("simpleType", "annotation", "attribute", "enumeration")
}

// Probe claims <schema> roots.
func (h *XSD) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	if root.Local != "schema" {
		return false, 0, nil
	}
	if root.Space == "http://www.w3.org/2001/XMLSchema" {
		return true, h.settings.get("xsd.namespace"), nil
	}
	return true, h.settings.get("xsd.root"), nil
}

// Analyze reports the target namespace and declared elements and types.
func (h *XSD) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	elements := root.ChildrenNamed("element")
	complexTypes := root.ChildrenNamed("complexType")
	simpleTypes := root.ChildrenNamed("simpleType")
	top := len(elements) + len(complexTypes) + len(simpleTypes)

	documented := 0
	for _, group := range [][]*doctree.Element{elements, complexTypes, simpleTypes} {
		for _, e := range group {
			if e.Child("annotation") != nil {
				documented++
			}
		}
	}

	var deps []string
	for _, local := range []string{"import", "include", "redefine"} {
		for _, e := range root.ChildrenNamed(local) {
			deps = append(deps, e.AttrOr("schemaLocation", e.AttrOr("namespace", "")))
		}
	}

	var roots []string
	for _, e := range elements {
		roots = append(roots, e.AttrOr("name", ""))
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"target_namespace":     root.AttrOr("targetNamespace", ""),
			"element_form_default": root.AttrOr("elementFormDefault", "unqualified"),
			"global_elements":      roots,
			"complex_types":        len(complexTypes),
			"simple_types":         len(simpleTypes),
			"external_schemas":     deps,
		},
		DataInventory: map[string]int{
			"global_elements": len(elements),
			"complex_types":   len(complexTypes),
			"simple_types":    len(simpleTypes),
			"enumerations":    len(root.FindAll("enumeration")),
		},
		AIUseCases: []string{
			"Data model documentation",
			"Sample instance generation",
			"Schema evolution review",
		},
		QualityMetrics: map[string]float64{
			"documentation": ratioOr(documented, top, 1),
		},
	}
	if documented < top {
		a.Recommendations = append(a.Recommendations, "Add xs:annotation documentation to global declarations")
	}
	if root.AttrOr("targetNamespace", "") == "" {
		a.Recommendations = append(a.Recommendations, "Declare a targetNamespace")
	}
	return a, nil
}
