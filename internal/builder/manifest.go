package builder

import (
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Manifest is the subset of package.json the pipeline cares about.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Workspaces      workspaceGlobs    `json:"workspaces"`
}

// workspaceGlobs accepts both shapes package.json allows: a plain
// array of globs, or an object with a "packages" array (yarn).
type workspaceGlobs []string

func (w *workspaceGlobs) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*w = list
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*w = obj.Packages
	return nil
}

// pnpmWorkspace models pnpm-workspace.yaml.
type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// WorkspacePackage is one member of a monorepo workspace.
type WorkspacePackage struct {
	Name     string
	Dir      string
	Manifest *Manifest
	// EntryPoint is the package-relative path of its main module, or
	// "" when no recognized entry exists (shared libraries).
	EntryPoint string
}

// ParseManifest decodes a package.json document. Malformed JSON is a
// warning, not a failure: the pipeline continues with no manifest.
func ParseManifest(data []byte, blog *Log) *Manifest {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		blog.Warnf("failed to parse package.json: %v", err)
		return nil
	}
	return &m
}

// LoadRootManifest reads the project root package.json from the file
// set, if present.
func LoadRootManifest(files FileSet, blog *Log) *Manifest {
	data, ok := files["package.json"]
	if !ok {
		blog.Warnf("no root package.json found")
		return nil
	}
	return ParseManifest(data, blog)
}

// workspacePatterns collects workspace globs from the root manifest
// and, for pnpm projects, from pnpm-workspace.yaml.
func workspacePatterns(files FileSet, root *Manifest, blog *Log) []string {
	var patterns []string
	if root != nil {
		patterns = append(patterns, root.Workspaces...)
	}
	if data, ok := files["pnpm-workspace.yaml"]; ok {
		var pw pnpmWorkspace
		if err := yaml.Unmarshal(data, &pw); err != nil {
			blog.Warnf("failed to parse pnpm-workspace.yaml: %v", err)
		} else {
			patterns = append(patterns, pw.Packages...)
		}
	}
	return patterns
}

// DiscoverWorkspaces finds every workspace member package: a non-root
// package.json whose directory matches one of the declared workspace
// globs ("packages/*" matches one path segment, "apps/**" any number).
// Members with a recognized entry point sort first so the pipeline can
// fall back to the first application package when the root has no
// entry; ties break by directory path.
func DiscoverWorkspaces(files FileSet, root *Manifest, blog *Log) []WorkspacePackage {
	patterns := workspacePatterns(files, root, blog)
	if len(patterns) == 0 {
		return nil
	}

	var members []WorkspacePackage
	for p, data := range files {
		if p == "package.json" || !strings.HasSuffix(p, "/package.json") {
			continue
		}
		dir := path.Dir(p)
		if !matchesWorkspaceGlob(patterns, dir) {
			continue
		}
		m := ParseManifest(data, blog)
		if m == nil {
			continue
		}
		name := m.Name
		if name == "" {
			name = path.Base(dir)
		}
		members = append(members, WorkspacePackage{
			Name:       name,
			Dir:        dir,
			Manifest:   m,
			EntryPoint: findEntryIn(files, dir),
		})
	}

	sort.Slice(members, func(i, j int) bool {
		if (members[i].EntryPoint != "") != (members[j].EntryPoint != "") {
			return members[i].EntryPoint != ""
		}
		return members[i].Dir < members[j].Dir
	})

	if len(members) > 0 {
		blog.Infof("discovered %d workspace package(s)", len(members))
	}
	return members
}

func matchesWorkspaceGlob(patterns []string, dir string) bool {
	for _, pat := range patterns {
		pat = strings.TrimSuffix(strings.TrimPrefix(pat, "./"), "/")
		if pat == "" {
			continue
		}
		if ok, err := doublestar.Match(pat, dir); err == nil && ok {
			return true
		}
	}
	return false
}

// entryCandidates lists module paths probed, in order, when locating
// an application entry point.
var entryCandidates = []string{
	"src/main.tsx", "src/main.ts", "src/main.jsx", "src/main.js",
	"src/index.tsx", "src/index.ts", "src/index.jsx", "src/index.js",
	"main.tsx", "main.ts", "main.jsx", "main.js",
	"index.tsx", "index.ts", "index.jsx", "index.js",
}

// findEntryIn probes the standard entry candidates under dir ("" for
// the project root) and returns the first that exists.
func findEntryIn(files FileSet, dir string) string {
	for _, cand := range entryCandidates {
		p := cand
		if dir != "" && dir != "." {
			p = dir + "/" + cand
		}
		if _, ok := files[p]; ok {
			return p
		}
	}
	return ""
}

// DependencyTable maps external package names to cleaned versions used
// when rewriting bare imports to CDN URLs.
type DependencyTable map[string]string

// BuildDependencyTable merges dependency declarations from the root
// manifest and every workspace member into one lookup table. Within a
// manifest, devDependencies are applied before dependencies so runtime
// declarations win; across manifests, later entries overwrite earlier
// ones. "workspace:" specifiers resolve to the sibling package's own
// declared version when it has one.
func BuildDependencyTable(root *Manifest, workspaces []WorkspacePackage) DependencyTable {
	byName := make(map[string]*Manifest, len(workspaces))
	for _, ws := range workspaces {
		byName[ws.Name] = ws.Manifest
	}

	table := make(DependencyTable)
	merge := func(deps map[string]string) {
		for name, spec := range deps {
			table[name] = cleanVersionSpec(name, spec, byName)
		}
	}
	if root != nil {
		merge(root.DevDependencies)
		merge(root.Dependencies)
	}
	for _, ws := range workspaces {
		merge(ws.Manifest.DevDependencies)
		merge(ws.Manifest.Dependencies)
	}
	return table
}

// Version returns the cleaned version for a package, or "latest" when
// the package was never declared.
func (t DependencyTable) Version(pkg string) string {
	if v, ok := t[pkg]; ok && v != "" {
		return v
	}
	return "latest"
}

func cleanVersionSpec(name, spec string, workspaces map[string]*Manifest) string {
	if strings.HasPrefix(strings.TrimSpace(spec), "workspace:") {
		if m, ok := workspaces[name]; ok && m.Version != "" {
			return m.Version
		}
		return "latest"
	}
	return CleanVersion(spec)
}

// CleanVersion reduces an npm version range to a bare version usable
// in a CDN URL: leading range operators are stripped and compound
// ranges are cut at the first space. Wildcards and empty specifiers
// become "latest". No semver resolution happens here; "^18.2.0" simply
// becomes "18.2.0".
func CleanVersion(spec string) string {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "workspace:") {
		return "latest"
	}
	spec = strings.TrimLeft(spec, "^~><= \t")
	if i := strings.IndexAny(spec, " \t"); i >= 0 {
		spec = spec[:i]
	}
	if spec == "" || spec == "*" || spec == "x" {
		return "latest"
	}
	return spec
}
