package formats

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/payload"
)

// Sitemap handles sitemaps.org URL sets and sitemap indexes.
type Sitemap struct{ base }

// NewSitemap returns the XML sitemap handler configured by s.
func NewSitemap(s Settings) *Sitemap {
	return &Sitemap{base{name: "sitemap", typeName: "XML Sitemap", category: "feed", settings: s}}
}

func (h *Sitemap) AtomicElements() map[string]bool {
	return set("url", "sitemap")
}

// Probe claims urlset and sitemapindex roots.
func (h *Sitemap) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if root.Local != "urlset" && root.Local != "sitemapindex" {
		return false, 0, nil
	}
	if inNamespace(root, ns, "sitemaps.org/schemas/sitemap") {
		return true, h.settings.get("sitemap.namespace"), nil
	}
	return true, h.settings.get("sitemap.root"), nil
}

// Analyze reports URL counts, hosts and change frequencies.
func (h *Sitemap) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	entries := append(root.ChildrenNamed("url"), root.ChildrenNamed("sitemap")...)
	hosts := make(map[string]int)
	changefreq := make(map[string]int)
	var lastmods []string
	var prioritySum float64
	priorities := 0
	for _, e := range entries {
		if u, err := url.Parse(e.ChildText("loc")); err == nil && u.Host != "" {
			hosts[u.Host]++
		}
		if lm := e.ChildText("lastmod"); lm != "" {
			lastmods = append(lastmods, lm)
		}
		if cf := e.ChildText("changefreq"); cf != "" {
			changefreq[cf]++
		}
		if p, err := strconv.ParseFloat(e.ChildText("priority"), 64); err == nil {
			prioritySum += p
			priorities++
		}
	}
	sort.Strings(lastmods)

	findings := map[string]any{
		"kind":       root.Local,
		"entries":    len(entries),
		"hosts":      hosts,
		"changefreq": changefreq,
	}
	if len(lastmods) > 0 {
		findings["lastmod_range"] = []string{lastmods[0], lastmods[len(lastmods)-1]}
	}
	if priorities > 0 {
		findings["average_priority"] = prioritySum / float64(priorities)
	}

	a := &handler.Analysis{
		DocumentType:  h.name,
		KeyFindings:   findings,
		DataInventory: map[string]int{"entries": len(entries), "hosts": len(hosts)},
		AIUseCases: []string{
			"Site structure mapping",
			"Crawl prioritization",
			"Content freshness monitoring",
		},
		QualityMetrics: map[string]float64{
			"lastmod_coverage": ratioOr(len(lastmods), len(entries), 1),
		},
	}
	if len(entries) > 50000 {
		a.Recommendations = append(a.Recommendations, "Split sitemaps above 50,000 URLs")
	}
	if len(lastmods) < len(entries) {
		a.Recommendations = append(a.Recommendations, "Add lastmod to every entry")
	}
	return a, nil
}

// Feed handles RSS 2.0, RSS 1.0 (RDF) and Atom feeds.
type Feed struct{ base }

// NewFeed returns the RSS/Atom feed handler configured by s.
func NewFeed(s Settings) *Feed {
	return &Feed{base{name: "feed", typeName: "RSS/Atom Feed", category: "feed", settings: s}}
}

// AtomicElements keeps each item or entry whole.
func (h *Feed) AtomicElements() map[string]bool {
	return set("item", "entry")
}

// Probe recognizes RSS 2.0, Atom and RSS 1.0 (RDF) roots.
func (h *Feed) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	switch {
	case root.Local == "rss":
		return true, h.settings.get("feed.rss"), nil
	case root.Local == "feed" && inNamespace(root, ns, "www.w3.org/2005/Atom"):
		return true, h.settings.get("feed.atom"), nil
	case root.Local == "RDF" && inNamespace(root, ns, "purl.org/rss/1.0"):
		return true, h.settings.get("feed.rdf"), nil
	}
	return false, 0, nil
}

// ContentCategory treats item bodies as markup when they carry HTML.
func (h *Feed) ContentCategory(e *doctree.Element) (doctree.ContentCategory, bool) {
	switch e.Local {
	case "description", "content", "encoded", "summary":
		if t, _ := e.Attr("type"); t == "html" || t == "xhtml" || payload.LooksLikeHTML(e.Text) {
			return doctree.CategoryMarkup, true
		}
		return doctree.CategoryNarrative, true
	}
	return "", false
}

// Analyze reports the channel metadata, items, authors and categories.
func (h *Feed) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	format := "atom"
	channel := root
	var items []*doctree.Element
	switch root.Local {
	case "rss":
		format = "rss " + root.AttrOr("version", "2.0")
		if c := root.Child("channel"); c != nil {
			channel = c
			items = c.ChildrenNamed("item")
		}
	case "RDF":
		format = "rss 1.0"
		if c := root.Child("channel"); c != nil {
			channel = c
		}
		items = root.ChildrenNamed("item")
	default:
		items = root.ChildrenNamed("entry")
	}

	authors := make(map[string]int)
	categories := make(map[string]int)
	var dates []string
	described := 0
	for _, it := range items {
		for _, local := range []string{"author", "creator"} {
			if a := it.Child(local); a != nil {
				name := a.Text
				if name == "" {
					name = a.ChildText("name")
				}
				if name != "" {
					authors[name]++
				}
			}
		}
		for _, c := range it.ChildrenNamed("category") {
			label := c.Text
			if label == "" {
				label = c.AttrOr("term", "")
			}
			if label != "" {
				categories[label]++
			}
		}
		for _, local := range []string{"pubDate", "published", "updated", "date"} {
			if d := it.ChildText(local); d != "" {
				dates = append(dates, d)
				break
			}
		}
		if presentCount(it, "description", "summary", "content", "encoded") > 0 {
			described++
		}
	}

	findings := map[string]any{
		"format":     format,
		"title":      channel.ChildText("title"),
		"link":       channel.ChildText("link"),
		"items":      len(items),
		"authors":    authors,
		"categories": categories,
	}
	if len(dates) > 0 {
		findings["first_date"] = dates[0]
		findings["last_date"] = dates[len(dates)-1]
	}

	a := &handler.Analysis{
		DocumentType:  h.name,
		KeyFindings:   findings,
		DataInventory: map[string]int{"items": len(items), "authors": len(authors), "categories": len(categories)},
		AIUseCases: []string{
			"Content summarization",
			"Topic clustering",
			"Trend detection",
		},
		QualityMetrics: map[string]float64{
			"description_coverage": ratioOr(described, len(items), 1),
			"dating":               ratioOr(len(dates), len(items), 1),
		},
	}
	if described < len(items) {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("%d items have no description or content", len(items)-described))
	}
	if strings.HasPrefix(format, "rss") && channel.Child("language") == nil {
		a.Recommendations = append(a.Recommendations, "Declare the channel language")
	}
	return a, nil
}
