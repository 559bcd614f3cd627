package formats

import (
	"fmt"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// MavenPOM handles Maven project object models.
type MavenPOM struct{ base }

// NewMavenPOM returns the Maven POM handler configured by s.
func NewMavenPOM(s Settings) *MavenPOM {
	return &MavenPOM{base{name: "maven_pom", typeName: "Maven POM", category: "build", settings: s}}
}

// AtomicElements keeps dependency, plugin and similar declarations whole.
func (h *MavenPOM) AtomicElements() map[string]bool {
	return set("dependency", "plugin", "exclusion", "repository", "developer", "license")
}

// Probe claims <project> roots in the POM namespace, or with groupId and artifactId coordinates.
func (h *MavenPOM) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if root.Local != "project" {
		return false, 0, nil
	}
	if inNamespace(root, ns, "maven.apache.org/POM") {
		return true, h.settings.get("maven_pom.namespace"), nil
	}
	if root.Child("groupId") != nil && root.Child("artifactId") != nil {
		return true, h.settings.get("maven_pom.structure"), nil
	}
	if p := root.Child("parent"); p != nil && p.Child("groupId") != nil && root.Child("artifactId") != nil {
		return true, h.settings.get("maven_pom.structure"), nil
	}
	return false, 0, nil
}

type mavenDependency struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version,omitempty"`
	Scope      string `json:"scope"`
	Optional   bool   `json:"optional,omitempty"`
}

func (d mavenDependency) key() string { return d.GroupID + ":" + d.ArtifactID }

// Analyze reports project coordinates, dependencies, plugins and repositories.
func (h *MavenPOM) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	parent := root.Child("parent")
	inherit := func(local string) string {
		if v := root.ChildText(local); v != "" {
			return v
		}
		if parent != nil {
			return parent.ChildText(local)
		}
		return ""
	}

	info := map[string]any{
		"group_id":    inherit("groupId"),
		"artifact_id": root.ChildText("artifactId"),
		"version":     inherit("version"),
		"packaging":   "jar",
		"name":        root.ChildText("name"),
		"description": root.ChildText("description"),
	}
	if p := root.ChildText("packaging"); p != "" {
		info["packaging"] = p
	}
	if parent != nil {
		info["parent"] = fmt.Sprintf("%s:%s:%s", parent.ChildText("groupId"), parent.ChildText("artifactId"), parent.ChildText("version"))
	}

	managed := make(map[string]bool)
	if dm := root.Child("dependencyManagement"); dm != nil {
		for _, d := range childrenOf(dm, "dependencies", "dependency") {
			managed[d.ChildText("groupId")+":"+d.ChildText("artifactId")] = true
		}
	}

	var deps []mavenDependency
	byScope := make(map[string]int)
	var unversioned, snapshots []string
	for _, d := range childrenOf(root, "dependencies", "dependency") {
		dep := mavenDependency{
			GroupID:    d.ChildText("groupId"),
			ArtifactID: d.ChildText("artifactId"),
			Version:    d.ChildText("version"),
			Scope:      d.ChildText("scope"),
			Optional:   d.ChildText("optional") == "true",
		}
		if dep.Scope == "" {
			dep.Scope = "compile"
		}
		byScope[dep.Scope]++
		if dep.Version == "" && !managed[dep.key()] && parent == nil {
			unversioned = append(unversioned, dep.key())
		}
		if strings.HasSuffix(dep.Version, "-SNAPSHOT") {
			snapshots = append(snapshots, dep.key())
		}
		deps = append(deps, dep)
	}

	var plugins []map[string]string
	var unpinnedPlugins []string
	if build := root.Child("build"); build != nil {
		all := childrenOf(build, "plugins", "plugin")
		if pm := build.Child("pluginManagement"); pm != nil {
			all = append(all, childrenOf(pm, "plugins", "plugin")...)
		}
		for _, p := range all {
			group := p.ChildText("groupId")
			if group == "" {
				group = "org.apache.maven.plugins"
			}
			entry := map[string]string{"group_id": group, "artifact_id": p.ChildText("artifactId"), "version": p.ChildText("version")}
			if entry["version"] == "" {
				unpinnedPlugins = append(unpinnedPlugins, entry["artifact_id"])
			}
			plugins = append(plugins, entry)
		}
	}

	var repos []map[string]string
	var insecure []string
	for _, r := range childrenOf(root, "repositories", "repository") {
		url := r.ChildText("url")
		repos = append(repos, map[string]string{"id": r.ChildText("id"), "url": url})
		if strings.HasPrefix(url, "http://") {
			insecure = append(insecure, url)
		}
	}

	props := make(map[string]string)
	if p := root.Child("properties"); p != nil {
		for _, c := range p.Children {
			props[c.Tag] = c.Text
		}
	}
	var modules []string
	for _, m := range childrenOf(root, "modules", "module") {
		modules = append(modules, m.Text)
	}

	resolved := len(deps) - len(unversioned)
	issues := len(snapshots) + len(unpinnedPlugins) + len(insecure)
	checked := len(deps) + len(plugins) + len(repos)

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"project_info": info,
			"dependencies": map[string]any{
				"total":       len(deps),
				"by_scope":    byScope,
				"unversioned": unversioned,
				"snapshots":   snapshots,
				"managed":     len(managed),
			},
			"plugins":      map[string]any{"total": len(plugins), "unpinned": unpinnedPlugins},
			"repositories": map[string]any{"total": len(repos), "insecure": insecure},
			"properties":   len(props),
			"modules":      modules,
		},
		DataInventory: map[string]int{
			"dependencies": len(deps),
			"plugins":      len(plugins),
			"repositories": len(repos),
			"properties":   len(props),
			"modules":      len(modules),
		},
		StructuredData: map[string]any{
			"dependencies": deps,
			"plugins":      plugins,
			"properties":   props,
		},
		AIUseCases: []string{
			"Dependency vulnerability analysis",
			"License compliance checking",
			"Dependency update recommendations",
			"Build configuration optimization",
		},
		QualityMetrics: map[string]float64{
			"completeness":          ratio(presentCount(root, "name", "description", "url", "licenses", "developers", "scm"), 6),
			"dependency_management": ratioOr(resolved, len(deps), 1),
			"best_practices":        clamp01(1 - ratioOr(issues, checked, 0)),
		},
	}

	if len(snapshots) > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Replace %d SNAPSHOT dependencies with released versions", len(snapshots)))
	}
	if len(unversioned) > 0 {
		a.Recommendations = append(a.Recommendations, "Declare versions for dependencies or manage them in dependencyManagement")
	}
	if len(unpinnedPlugins) > 0 {
		a.Recommendations = append(a.Recommendations, "Pin plugin versions for reproducible builds")
	}
	if len(insecure) > 0 {
		a.Recommendations = append(a.Recommendations, "Use HTTPS for repository URLs")
	}
	if root.Child("licenses") == nil {
		a.Recommendations = append(a.Recommendations, "Add license information")
	}
	return a, nil
}

// AntBuild handles Apache Ant build files.
type AntBuild struct{ base }

// NewAntBuild returns the Ant build file handler configured by s.
func NewAntBuild(s Settings) *AntBuild {
	return &AntBuild{base{name: "ant_build", typeName: "Ant Build", category: "build", settings: s}}
}

// AtomicElements keeps each target whole.
func (h *AntBuild) AtomicElements() map[string]bool {
	return set("target", "macrodef")
}

// Probe claims <project> roots that declare at least one target.
func (h *AntBuild) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	if root.Local != "project" || root.Child("target") == nil {
		return false, 0, nil
	}
	return true, h.settings.get("ant_build.targets"), nil
}

// Analyze reports targets, their dependencies and the default target.
func (h *AntBuild) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	targets := root.ChildrenNamed("target")
	names := make(map[string]bool, len(targets))
	for _, t := range targets {
		names[t.AttrOr("name", "")] = true
	}

	var list []map[string]any
	var undefined []string
	undocumented := 0
	for _, t := range targets {
		var deps []string
		if d, ok := t.Attr("depends"); ok {
			for _, dep := range strings.Split(d, ",") {
				dep = strings.TrimSpace(dep)
				if dep == "" {
					continue
				}
				deps = append(deps, dep)
				if !names[dep] {
					undefined = append(undefined, dep)
				}
			}
		}
		if _, ok := t.Attr("description"); !ok {
			undocumented++
		}
		list = append(list, map[string]any{"name": t.AttrOr("name", ""), "depends": deps, "tasks": len(t.Children)})
	}

	defaultTarget := root.AttrOr("default", "")
	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"project":           root.AttrOr("name", ""),
			"default_target":    defaultTarget,
			"targets":           list,
			"undefined_depends": undefined,
			"properties":        len(root.ChildrenNamed("property")),
			"taskdefs":          len(root.ChildrenNamed("taskdef")),
		},
		DataInventory: map[string]int{
			"targets":    len(targets),
			"properties": len(root.ChildrenNamed("property")),
		},
		AIUseCases: []string{
			"Build graph visualization",
			"Migration planning to newer build tools",
		},
		QualityMetrics: map[string]float64{
			"documentation":   ratioOr(len(targets)-undocumented, len(targets), 1),
			"graph_integrity": clamp01(1 - ratioOr(len(undefined), len(targets), 0)),
		},
	}
	if defaultTarget != "" && !names[defaultTarget] {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("Default target %q is not defined", defaultTarget))
	}
	if len(undefined) > 0 {
		a.Recommendations = append(a.Recommendations, "Define or remove targets referenced in depends")
	}
	if undocumented > 0 {
		a.Recommendations = append(a.Recommendations, "Add descriptions to public targets")
	}
	return a, nil
}
