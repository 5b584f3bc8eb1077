package builder

import (
	"path"
	"strings"
)

// scriptExtensions are the module extensions the bundler understands,
// in probe-priority order (typed before untyped).
var scriptExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// probeSuffixes is the full candidate order tried when resolving a
// local module path: the literal path first, then extensions, then
// directory index modules.
var probeSuffixes = []string{
	"", ".tsx", ".ts", ".jsx", ".js",
	"/index.tsx", "/index.ts", "/index.jsx", "/index.js",
}

// IsScriptPath reports whether a file path names a bundleable module.
func IsScriptPath(p string) bool {
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// IsStylePath reports whether a file path names a stylesheet.
func IsStylePath(p string) bool {
	return strings.HasSuffix(p, ".css")
}

// BuildSourceTable extracts the bundleable modules from a file set,
// decoded as UTF-8 text.
func BuildSourceTable(files FileSet) map[string]string {
	sources := make(map[string]string)
	for p, data := range files {
		if IsScriptPath(p) {
			sources[p] = string(data)
		}
	}
	return sources
}

// Resolution is the outcome of resolving one import specifier.
type Resolution struct {
	// Path is the project-relative module path for local resolutions.
	// When the path is absent from the source table the bundler
	// substitutes an empty module.
	Path string
	// External marks a bare specifier served from the CDN.
	External bool
	// Package, Version and URL are set for external resolutions.
	Package string
	Version string
	URL     string
}

// Resolver maps import specifiers to local modules, workspace
// packages or CDN URLs.
type Resolver struct {
	sources     map[string]string
	workspaces  []WorkspacePackage
	deps        DependencyTable
	cdnBase     string
	aliasPrefix string
	sourceRoot  string
}

// NewResolver builds a resolver over the given source table. cdnBase,
// aliasPrefix and sourceRoot take the usual defaults when empty
// ("https://esm.sh", "@/", "src").
func NewResolver(sources map[string]string, workspaces []WorkspacePackage, deps DependencyTable, cdnBase, aliasPrefix, sourceRoot string) *Resolver {
	if cdnBase == "" {
		cdnBase = "https://esm.sh"
	}
	if aliasPrefix == "" {
		aliasPrefix = "@/"
	}
	if sourceRoot == "" {
		sourceRoot = "src"
	}
	return &Resolver{
		sources:     sources,
		workspaces:  workspaces,
		deps:        deps,
		cdnBase:     strings.TrimSuffix(cdnBase, "/"),
		aliasPrefix: aliasPrefix,
		sourceRoot:  sourceRoot,
	}
}

// Resolve maps one import specifier, as written in the module at
// importer, to a resolution. Priority: relative paths, then the source
// alias, then workspace package names, then external CDN packages.
// Local resolutions probe the literal path, typed and untyped
// extensions, and index modules, in that order.
func (r *Resolver) Resolve(spec, importer string) Resolution {
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		p := resolveRelative(importer, spec)
		return r.local(p)
	case strings.HasPrefix(spec, r.aliasPrefix):
		p := r.sourceRoot + "/" + strings.TrimPrefix(spec, r.aliasPrefix)
		return r.local(normalizePath(p))
	case strings.HasPrefix(spec, "/"):
		return r.local(normalizePath(spec))
	}

	if res, ok := r.workspace(spec); ok {
		return res
	}
	return r.external(spec)
}

// local probes the source table and returns the first hit, or the
// normalized path itself when nothing matches.
func (r *Resolver) local(p string) Resolution {
	for _, suffix := range probeSuffixes {
		cand := p + suffix
		if _, ok := r.sources[cand]; ok {
			return Resolution{Path: cand}
		}
	}
	return Resolution{Path: p}
}

// workspace resolves specifiers naming a workspace package, either
// exactly ("@acme/ui" to its entry point) or with a subpath
// ("@acme/ui/button" probed inside the package directory).
func (r *Resolver) workspace(spec string) (Resolution, bool) {
	for _, ws := range r.workspaces {
		if spec == ws.Name {
			if ws.EntryPoint != "" {
				return Resolution{Path: ws.EntryPoint}, true
			}
			return r.local(ws.Dir + "/index"), true
		}
		if strings.HasPrefix(spec, ws.Name+"/") {
			sub := strings.TrimPrefix(spec, ws.Name+"/")
			return r.local(normalizePath(ws.Dir + "/" + sub)), true
		}
	}
	return Resolution{}, false
}

// external turns a bare specifier into a CDN resolution. The package
// name is the first segment, or the first two for scoped packages;
// any remaining subpath survives after the pinned version.
func (r *Resolver) external(spec string) Resolution {
	pkg := spec
	subpath := ""
	segments := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(segments) > 2 {
			pkg = segments[0] + "/" + segments[1]
			subpath = strings.Join(segments[2:], "/")
		}
	} else if len(segments) > 1 {
		pkg = segments[0]
		subpath = strings.Join(segments[1:], "/")
	}

	version := r.deps.Version(pkg)
	url := r.cdnBase + "/" + pkg + "@" + version
	if subpath != "" {
		url += "/" + subpath
	}
	return Resolution{External: true, Package: pkg, Version: version, URL: url}
}

// resolveRelative joins a relative specifier against the importing
// module's directory and normalizes the result to a project-relative
// path. Traversal above the project root clamps to the root.
func resolveRelative(importer, spec string) string {
	base := path.Dir(importer)
	if base == "." {
		base = ""
	}
	return normalizePath(path.Join(base, spec))
}

func normalizePath(p string) string {
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	for strings.HasPrefix(p, "../") {
		p = p[len("../"):]
	}
	if p == ".." || p == "." {
		return ""
	}
	return p
}
