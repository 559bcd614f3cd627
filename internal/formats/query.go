package formats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// inNamespace reports whether the root element or any declared namespace URI
// contains fragment.
func inNamespace(root *doctree.Element, namespaces map[string]string, fragment string) bool {
	if strings.Contains(root.Space, fragment) {
		return true
	}
	for _, uri := range namespaces {
		if strings.Contains(uri, fragment) {
			return true
		}
	}
	return false
}

// childrenOf returns the children named item under the first child named
// container, e.g. childrenOf(root, "dependencies", "dependency").
func childrenOf(e *doctree.Element, container, item string) []*doctree.Element {
	c := e.Child(container)
	if c == nil {
		return nil
	}
	return c.ChildrenNamed(item)
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// ratioOr is ratio with an explicit value for an empty denominator.
func ratioOr(n, d int, empty float64) float64 {
	if d <= 0 {
		return empty
	}
	return float64(n) / float64(d)
}

// textAt returns the text at a chain of local names, or "".
func textAt(e *doctree.Element, locals ...string) string {
	if n := e.Lookup(locals...); n != nil {
		return n.Text
	}
	return ""
}

// presentCount counts how many of the named children exist under e.
func presentCount(e *doctree.Element, locals ...string) int {
	n := 0
	for _, l := range locals {
		if e.Child(l) != nil {
			n++
		}
	}
	return n
}

func limit[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// countLocal tallies descendant local names.
func countLocal(root *doctree.Element) map[string]int {
	counts := make(map[string]int)
	root.Walk(func(e *doctree.Element) bool {
		counts[e.Local]++
		return true
	})
	return counts
}

// sortedKeys returns map keys in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// base carries the identity shared by every handler.
type base struct {
	name     string
	typeName string
	category string
	settings Settings
}

func (b base) Name() string     { return b.name }
func (b base) TypeName() string { return b.typeName }
func (b base) Category() string { return b.category }

// Signature lists the handler's effective settings as sorted key=value pairs.
func (b base) Signature() string {
	prefix := b.name + "."
	var keys []string
	for k := range DefaultSettings() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", strings.TrimPrefix(k, prefix), b.settings.get(k))
	}
	return strings.Join(parts, ";")
}
