package formats

import (
	"strconv"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// SVG handles SVG images.
type SVG struct{ base }

// NewSVG returns the SVG handler configured by s.
func NewSVG(s Settings) *SVG {
	return &SVG{base{name: "svg", typeName: "SVG Image", category: "graphics", settings: s}}
}

// Probe claims <svg> roots; the SVG namespace raises confidence.
func (h *SVG) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	if root.Local != "svg" {
		return false, 0, nil
	}
	if root.Space == "http://www.w3.org/2000/svg" {
		return true, h.settings.get("svg.namespace"), nil
	}
	return true, h.settings.get("svg.root"), nil
}

var svgShapes = set("path", "rect", "circle", "ellipse", "line", "polyline", "polygon", "use")

// ContentCategory separates embedded images, readable text and drawing
// primitives.
func (h *SVG) ContentCategory(e *doctree.Element) (doctree.ContentCategory, bool) {
	switch {
	case e.Local == "image":
		if href, ok := e.Attr("href"); ok && strings.HasPrefix(href, "data:") {
			return doctree.CategoryAttachment, true
		}
		return doctree.CategoryMetadata, true
	case e.Local == "script" || e.Local == "style" || e.Local == "foreignObject":
		return doctree.CategoryMarkup, true
	case e.Local == "title" || e.Local == "desc" || e.Local == "text" || e.Local == "tspan":
		return doctree.CategoryNarrative, true
	case svgShapes[e.Local]:
		return doctree.CategoryMetadata, true
	}
	return "", false
}

// Analyze reports dimensions, shape counts and embedded images.
func (h *SVG) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	counts := countLocal(root)
	shapes := make(map[string]int)
	for k := range svgShapes {
		if counts[k] > 0 {
			shapes[k] = counts[k]
		}
	}

	embedded := 0
	for _, img := range root.FindAll("image") {
		if href, _ := img.Attr("href"); strings.HasPrefix(href, "data:") {
			embedded++
		}
	}
	var texts []string
	for _, t := range root.FindAll("text") {
		if c := t.TextContent(); c != "" {
			texts = append(texts, c)
		}
	}
	hasTitle := root.Child("title") != nil
	hasDesc := root.Child("desc") != nil
	scripts := counts["script"]

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"width":           root.AttrOr("width", ""),
			"height":          root.AttrOr("height", ""),
			"view_box":        root.AttrOr("viewBox", ""),
			"shapes":          shapes,
			"embedded_images": embedded,
			"text_content":    limit(texts, 20),
			"scripts":         scripts,
		},
		DataInventory: map[string]int{
			"groups":          counts["g"],
			"embedded_images": embedded,
			"text_elements":   len(texts),
		},
		AIUseCases: []string{
			"Alt text generation",
			"Diagram text extraction",
			"Icon classification",
		},
		QualityMetrics: map[string]float64{
			"accessibility": ratio(btoi(hasTitle)+btoi(hasDesc), 2),
			"safety":        clamp01(1 - 0.5*float64(scripts)),
		},
	}
	if !hasTitle {
		a.Recommendations = append(a.Recommendations, "Add a <title> for accessibility")
	}
	if scripts > 0 {
		a.Recommendations = append(a.Recommendations, "Remove embedded scripts before publishing")
	}
	return a, nil
}

// KML handles KML geographic data.
type KML struct{ base }

// NewKML returns the KML handler configured by s.
func NewKML(s Settings) *KML {
	return &KML{base{name: "kml", typeName: "KML Geographic Data", category: "geo", settings: s}}
}

// AtomicElements keeps each Placemark whole.
func (h *KML) AtomicElements() map[string]bool {
	return set("Placemark", "Style", "StyleMap")
}

// Probe claims <kml> roots; the OGC or Google namespace raises confidence.
func (h *KML) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	if root.Local != "kml" {
		return false, 0, nil
	}
	if strings.Contains(root.Space, "opengis.net/kml") || strings.Contains(root.Space, "earth.google.com/kml") {
		return true, h.settings.get("kml.namespace"), nil
	}
	return true, h.settings.get("kml.root"), nil
}

// Analyze reports placemarks, geometry types and the bounding box.
func (h *KML) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	placemarks := root.FindAll("Placemark")
	geometry := make(map[string]int)
	var names []string
	named := 0
	for _, p := range placemarks {
		if n := p.ChildText("name"); n != "" {
			named++
			names = append(names, n)
		}
		for _, g := range []string{"Point", "LineString", "LinearRing", "Polygon", "MultiGeometry"} {
			if p.Child(g) != nil {
				geometry[g]++
			}
		}
	}

	box := boundingBox(root)
	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"document_name":  textAt(root, "Document", "name"),
			"placemarks":     len(placemarks),
			"geometry_types": geometry,
			"names":          limit(names, 20),
			"bounding_box":   box,
		},
		DataInventory: map[string]int{
			"placemarks": len(placemarks),
			"folders":    len(root.FindAll("Folder")),
			"styles":     len(root.FindAll("Style")),
		},
		AIUseCases: []string{
			"Location summarization",
			"Route description generation",
		},
		QualityMetrics: map[string]float64{
			"naming": ratioOr(named, len(placemarks), 1),
		},
	}
	if named < len(placemarks) {
		a.Recommendations = append(a.Recommendations, "Name every placemark")
	}
	return a, nil
}

// boundingBox scans coordinate tuples (lon,lat[,alt]) and returns the extent,
// or nil when no coordinates are present.
func boundingBox(root *doctree.Element) map[string]float64 {
	var minLon, minLat, maxLon, maxLat float64
	seen := false
	for _, c := range root.FindAll("coordinates") {
		for _, tuple := range strings.Fields(c.Text) {
			parts := strings.Split(tuple, ",")
			if len(parts) < 2 {
				continue
			}
			lon, err1 := strconv.ParseFloat(parts[0], 64)
			lat, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			if !seen {
				minLon, maxLon, minLat, maxLat = lon, lon, lat, lat
				seen = true
				continue
			}
			minLon, maxLon = min(minLon, lon), max(maxLon, lon)
			minLat, maxLat = min(minLat, lat), max(maxLat, lat)
		}
	}
	if !seen {
		return nil
	}
	return map[string]float64{"min_lon": minLon, "min_lat": minLat, "max_lon": maxLon, "max_lat": maxLat}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
