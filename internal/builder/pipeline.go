package builder

import (
	"context"
	"fmt"
	"strings"
)

// Options tune the pipeline. Zero values fall back to the defaults
// baked into NewResolver.
type Options struct {
	CDNBase     string
	AliasPrefix string
	SourceRoot  string
}

// Stats summarizes a completed build for the invocation response.
type Stats struct {
	FileCount       int    `json:"fileCount"`
	SourceCount     int    `json:"sourceCount"`
	CSSFileCount    int    `json:"cssFileCount"`
	DependencyCount int    `json:"dependencyCount"`
	ModuleCount     int    `json:"moduleCount"`
	ExternalCount   int    `json:"externalCount"`
	BundleSize      int    `json:"bundleSize"`
	CSSSize         int    `json:"cssSize"`
	ZipSize         int    `json:"zipSize"`
	Workspace       string `json:"workspace,omitempty"`
}

// Result is the outcome of one pipeline run. On failure the Result is
// still returned alongside the error so callers can surface Log.
type Result struct {
	Files       FileSet
	OutputZip   []byte
	PreviewHTML string
	Bundle      string
	CSS         string
	Stats       Stats
	Log         *Log
}

// Pipeline converts an uploaded project archive into a deployable
// static bundle: read the ZIP, discover the project shape, bundle the
// entry module graph, generate utility CSS, and pack the output.
type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes the full build. The context is checked between stages
// so a cancelled job stops promptly rather than mid-archive.
func (p *Pipeline) Run(ctx context.Context, zipData []byte) (*Result, error) {
	blog := NewLog()
	res := &Result{Log: blog}

	blog.Infof("reading project archive (%d bytes)", len(zipData))
	files := ReadArchive(zipData, blog)
	blog.Infof("extracted %d file(s) from archive", len(files))
	res.Files = files
	if err := ctx.Err(); err != nil {
		return res, err
	}

	manifest := LoadRootManifest(files, blog)
	workspaces := DiscoverWorkspaces(files, manifest, blog)
	deps := BuildDependencyTable(manifest, workspaces)
	blog.Infof("project %q: %d dependencies, %d workspace package(s)", projectName(manifest, nil), len(deps), len(workspaces))

	entry := findEntryIn(files, "")
	var active *WorkspacePackage
	if entry == "" {
		for i := range workspaces {
			if workspaces[i].EntryPoint != "" {
				active = &workspaces[i]
				entry = active.EntryPoint
				blog.Infof("using workspace package %q", active.Name)
				break
			}
		}
	}
	if entry == "" {
		blog.Errorf("no entry module in archive")
		return res, fmt.Errorf("entry point not found (expected src/main.tsx or equivalent)")
	}
	blog.Infof("entry point: %s", entry)

	sources := BuildSourceTable(files)
	resolver := NewResolver(sources, workspaces, deps, p.opts.CDNBase, p.opts.AliasPrefix, p.opts.SourceRoot)
	bundler := NewBundler(resolver, sources, blog)
	bundle, err := bundler.Bundle(entry)
	if err != nil {
		blog.Errorf("bundling failed: %v", err)
		return res, fmt.Errorf("failed to bundle: %w", err)
	}
	res.Bundle = bundle
	if err := ctx.Err(); err != nil {
		return res, err
	}

	classes := ExtractClasses(bundle)
	varBlocks := ExtractCSSVariableBlocks(files)
	css := GenerateCSS(classes, varBlocks)
	blog.Infof("generated stylesheet from %d class candidate(s), %d custom-property block(s)", len(classes), len(varBlocks))
	res.CSS = css
	if err := ctx.Err(); err != nil {
		return res, err
	}

	title := projectName(manifest, active)
	output := make(FileSet)
	copyPublicAssets(files, "", output, blog)
	if active != nil {
		copyPublicAssets(files, active.Dir, output, blog)
	}
	output["index.html"] = []byte(RenderIndexHTML(title))
	output["bundle.js"] = []byte(bundle)
	output["styles.css"] = []byte(css)

	zipData = WriteArchive(output)
	blog.Infof("output archive: %d file(s), %d bytes", len(output), len(zipData))

	res.OutputZip = zipData
	res.PreviewHTML = RenderInlineHTML(title, css, bundle)
	res.Stats = Stats{
		FileCount:       len(files),
		SourceCount:     len(sources),
		CSSFileCount:    countStyles(files),
		DependencyCount: len(deps),
		ModuleCount:     bundler.ModuleCount(),
		ExternalCount:   len(bundler.Externals()),
		BundleSize:      len(bundle),
		CSSSize:         len(css),
		ZipSize:         len(zipData),
	}
	if active != nil {
		res.Stats.Workspace = active.Name
	}
	return res, nil
}

func projectName(root *Manifest, ws *WorkspacePackage) string {
	if ws != nil && ws.Manifest != nil && ws.Manifest.Name != "" {
		return ws.Manifest.Name
	}
	if root != nil && root.Name != "" {
		return root.Name
	}
	return "app"
}

// copyPublicAssets lifts public/ files into the output root, the way
// static hosting expects them. Generated files are written afterwards
// and win any name collision.
func copyPublicAssets(files FileSet, dir string, output FileSet, blog *Log) {
	prefix := "public/"
	if dir != "" {
		prefix = dir + "/public/"
	}
	n := 0
	for path, data := range files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(path, prefix)
		if rel == "" {
			continue
		}
		output[rel] = data
		n++
	}
	if n > 0 {
		blog.Infof("copied %d public asset(s) from %s", n, prefix)
	}
}

func countStyles(files FileSet) int {
	n := 0
	for path := range files {
		if IsStylePath(path) {
			n++
		}
	}
	return n
}
