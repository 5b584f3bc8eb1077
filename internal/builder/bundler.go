package builder

import (
	"fmt"
	"strconv"
	"strings"
)

// runtimePrelude is the tiny module system embedded at the top of
// every bundle. Factories register under their project-relative path;
// __require instantiates lazily and caches the module object before
// running its factory, so import cycles observe the partially
// initialized exports instead of recursing forever.
const runtimePrelude = `const __modules = Object.create(null);
const __cache = Object.create(null);
function __register(id, factory) {
  __modules[id] = factory;
}
function __require(id) {
  const cached = __cache[id];
  if (cached) {
    return cached.exports;
  }
  const module = { exports: {} };
  __cache[id] = module;
  const factory = __modules[id];
  if (factory) {
    factory(module.exports, __require);
  }
  return module.exports;
}
function __reexport(target, source) {
  for (const key of Object.keys(source)) {
    if (key !== "default" && !(key in target)) {
      target[key] = source[key];
    }
  }
}
`

// externalModule is one hoisted CDN import, shared by every module
// that references the same URL.
type externalModule struct {
	Ident     string
	Specifier string
	URL       string
}

// Bundler walks the import graph depth-first from the entry module and
// produces a single self-contained script. Each local module becomes a
// scoped factory in a registry; external packages become namespace
// imports hoisted once per URL at the top of the bundle. JSX is left
// untouched for the downstream evaluation environment.
type Bundler struct {
	resolver *Resolver
	sources  map[string]string
	blog     *Log

	visited    map[string]bool
	order      []string
	bodies     map[string]string
	externals  []externalModule
	extByURL   map[string]int
	identUsed  map[string]bool
}

// NewBundler builds a bundler over the given source table.
func NewBundler(resolver *Resolver, sources map[string]string, blog *Log) *Bundler {
	return &Bundler{
		resolver:  resolver,
		sources:   sources,
		blog:      blog,
		visited:   make(map[string]bool),
		bodies:    make(map[string]string),
		extByURL:  make(map[string]int),
		identUsed: make(map[string]bool),
	}
}

// Bundle traverses the graph from entry and emits the bundle text.
func (b *Bundler) Bundle(entry string) (string, error) {
	if _, ok := b.sources[entry]; !ok {
		return "", fmt.Errorf("entry point %s not found", entry)
	}
	b.visit(entry)
	b.blog.Infof("bundled %d module(s), %d external package(s)", len(b.order), len(b.externals))
	return b.emit(entry), nil
}

// Externals returns the hoisted CDN imports in first-use order.
func (b *Bundler) Externals() []externalModule {
	return b.externals
}

// ModuleCount reports how many project modules were registered.
func (b *Bundler) ModuleCount() int {
	return len(b.order)
}

// visit processes one module and, through its import rewrites, every
// module it depends on. Dependencies finish before the dependent is
// appended, so registration order is post-order; re-entry on a cycle
// is cut off by the visited set.
func (b *Bundler) visit(path string) {
	if b.visited[path] {
		return
	}
	b.visited[path] = true

	src, ok := b.sources[path]
	if !ok {
		b.blog.Warnf("module %s not found, substituting empty module", path)
		b.order = append(b.order, path)
		b.bodies[path] = ""
		return
	}
	body := b.rewrite(path, StripTypes(src))
	b.order = append(b.order, path)
	b.bodies[path] = body
}

// rewrite replaces import and export statements in a stripped module
// with registry operations and collects export assignments.
func (b *Bundler) rewrite(path, src string) string {
	var out strings.Builder
	out.Grow(len(src))
	var tail []string
	w := newWalker(src)

	for !w.done() {
		if isIdentStart(src[w.i]) {
			switch wordAt(src, w.i) {
			case "import":
				if clause, end, ok := parseImport(src, w.i); ok {
					out.WriteString(b.rewriteImport(path, clause))
					w.jumpTo(end, ';')
					continue
				}
			case "export":
				if text, end, ok := b.rewriteExport(path, src, w.i, &tail); ok {
					out.WriteString(text)
					w.jumpTo(end, ';')
					continue
				}
			}
		}
		s, e := w.advance()
		out.WriteString(src[s:e])
	}

	if len(tail) > 0 {
		out.WriteString("\n")
		out.WriteString(strings.Join(tail, "\n"))
		out.WriteString("\n")
	}
	return out.String()
}

// rewriteImport turns one import statement into require bindings.
// Stylesheet imports vanish; their content feeds the CSS generator
// instead. Unresolvable local paths still get required so the registry
// serves an empty module rather than crashing the bundle.
func (b *Bundler) rewriteImport(importer string, c importClause) string {
	if c.TypeOnly {
		return ""
	}
	if IsStylePath(c.Specifier) {
		return ""
	}
	res := b.resolver.Resolve(c.Specifier, importer)
	if res.External {
		return b.bindExternal(c, res)
	}
	b.visit(res.Path)
	return bindLocal(c, res.Path)
}

func bindLocal(c importClause, path string) string {
	req := "__require(" + strconv.Quote(path) + ")"
	if c.Bare || (c.Default == "" && c.Namespace == "" && len(c.Named) == 0) {
		return req + ";"
	}
	if c.Namespace != "" {
		s := "const " + c.Namespace + " = " + req + ";"
		if c.Default != "" {
			s += " const " + c.Default + " = " + c.Namespace + ".default;"
		}
		return s
	}
	fields := make([]string, 0, len(c.Named)+1)
	if c.Default != "" {
		fields = append(fields, "default: "+c.Default)
	}
	for _, sp := range c.Named {
		if sp.TypeOnly {
			continue
		}
		if sp.Alias != "" && sp.Alias != sp.Name {
			fields = append(fields, sp.Name+": "+sp.Alias)
		} else {
			fields = append(fields, sp.Name)
		}
	}
	if len(fields) == 0 {
		return req + ";"
	}
	return "const { " + strings.Join(fields, ", ") + " } = " + req + ";"
}

// bindExternal binds import names against the hoisted namespace for
// the package. Default imports interop via `.default ?? namespace`
// since CDN modules differ in how they expose CommonJS defaults.
func (b *Bundler) bindExternal(c importClause, res Resolution) string {
	ident := b.externalFor(c.Specifier, res)
	if c.Bare || (c.Default == "" && c.Namespace == "" && len(c.Named) == 0) {
		// the hoisted import itself carries the side effect
		return ""
	}
	if c.Namespace != "" {
		s := "const " + c.Namespace + " = " + ident + ";"
		if c.Default != "" {
			s += " const " + c.Default + " = " + ident + ".default ?? " + ident + ";"
		}
		return s
	}
	var parts []string
	if c.Default != "" {
		parts = append(parts, "const "+c.Default+" = "+ident+".default ?? "+ident+";")
	}
	fields := make([]string, 0, len(c.Named))
	for _, sp := range c.Named {
		if sp.TypeOnly {
			continue
		}
		if sp.Alias != "" && sp.Alias != sp.Name {
			fields = append(fields, sp.Name+": "+sp.Alias)
		} else {
			fields = append(fields, sp.Name)
		}
	}
	if len(fields) > 0 {
		parts = append(parts, "const { "+strings.Join(fields, ", ")+" } = "+ident+";")
	}
	return strings.Join(parts, " ")
}

// externalFor returns the hoisted identifier for a CDN URL,
// registering it on first use.
func (b *Bundler) externalFor(spec string, res Resolution) string {
	if idx, ok := b.extByURL[res.URL]; ok {
		return b.externals[idx].Ident
	}
	ident := sanitizeIdent(spec)
	for n := 2; b.identUsed[ident]; n++ {
		ident = sanitizeIdent(spec) + "_" + strconv.Itoa(n)
	}
	b.identUsed[ident] = true
	b.extByURL[res.URL] = len(b.externals)
	b.externals = append(b.externals, externalModule{
		Ident:     ident,
		Specifier: spec,
		URL:       res.URL,
	})
	b.blog.Infof("external %s -> %s", spec, res.URL)
	return ident
}

// sanitizeIdent derives a JS identifier from a package specifier:
// "@radix-ui/react-dialog" becomes "__pkg__radix_ui_react_dialog".
func sanitizeIdent(spec string) string {
	var sb strings.Builder
	sb.WriteString("__pkg_")
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		if c < 0x80 && isIdentPart(c) {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// rewriteExport translates one export statement. Declarations stay in
// place with the `export` keyword removed and their bindings assigned
// onto __exports at the end of the module body; re-export clauses
// resolve through the registry or the hoisted externals.
func (b *Bundler) rewriteExport(path, src string, i int, tail *[]string) (string, int, bool) {
	j := skipSpace(src, i+len("export"))
	if j >= len(src) {
		return "", 0, false
	}

	switch word := wordAt(src, j); word {
	case "default":
		k := skipSpace(src, identEnd(src, j))
		kw := wordAt(src, k)
		if kw == "function" || kw == "class" {
			nameAt := skipSpace(src, identEnd(src, k))
			if kw == "function" && nameAt < len(src) && src[nameAt] == '*' {
				nameAt = skipSpace(src, nameAt+1)
			}
			if name := wordAt(src, nameAt); name != "" {
				*tail = append(*tail, "__exports.default = "+name+";")
				return "", k, true
			}
		}
		return "__exports.default = ", k, true

	case "function":
		nameAt := skipSpace(src, identEnd(src, j))
		if nameAt < len(src) && src[nameAt] == '*' {
			nameAt = skipSpace(src, nameAt+1)
		}
		if name := wordAt(src, nameAt); name != "" {
			*tail = append(*tail, "__exports."+name+" = "+name+";")
		}
		return "", j, true

	case "class":
		if name := wordAt(src, skipSpace(src, identEnd(src, j))); name != "" {
			*tail = append(*tail, "__exports."+name+" = "+name+";")
		}
		return "", j, true

	case "const", "let", "var":
		for _, name := range declaredNames(src, identEnd(src, j)) {
			*tail = append(*tail, "__exports."+name+" = "+name+";")
		}
		return "", j, true
	}

	switch src[j] {
	case '{':
		return b.rewriteExportBraces(path, src, i, j, tail)
	case '*':
		return b.rewriteExportStar(path, src, i, j)
	}

	// Anything else (enums, namespaces) is unsupported; dropping just
	// the keyword keeps the remaining statement syntactically alive.
	b.blog.Warnf("unsupported export form in %s, keeping declaration without export", path)
	return "", j, true
}

// rewriteExportBraces handles `export { a, b as c }` with an optional
// `from` clause. Clauses over local bindings assign at the end of the
// module body so a clause preceding its declarations still works;
// re-exports from another module resolve in place.
func (b *Bundler) rewriteExportBraces(path, src string, i, j int, tail *[]string) (string, int, bool) {
	specs, e, ok := parseBindingSpecs(src, j)
	if !ok {
		return "", 0, false
	}
	from := ""
	k := skipSpace(src, e)
	if wordAt(src, k) == "from" {
		k = skipSpace(src, identEnd(src, k))
		if k >= len(src) || (src[k] != '"' && src[k] != '\'') {
			return "", 0, false
		}
		e2 := stringEnd(src, k)
		from = unquote(src[k:e2])
		e = e2
	}
	e = consumeSemi(src, e)

	exported := func(sp importSpec) string {
		if sp.Alias != "" {
			return sp.Alias
		}
		return sp.Name
	}

	var lines []string
	if from == "" {
		for _, sp := range specs {
			if sp.TypeOnly {
				continue
			}
			*tail = append(*tail, "__exports."+exported(sp)+" = "+sp.Name+";")
		}
		return "", e, true
	}

	res := b.resolver.Resolve(from, path)
	if res.External {
		ident := b.externalFor(from, res)
		for _, sp := range specs {
			if sp.TypeOnly {
				continue
			}
			expr := ident + "." + sp.Name
			if sp.Name == "default" {
				expr = ident + ".default ?? " + ident
			}
			lines = append(lines, "__exports."+exported(sp)+" = "+expr+";")
		}
		return strings.Join(lines, " "), e, true
	}

	b.visit(res.Path)
	req := "__require(" + strconv.Quote(res.Path) + ")"
	for _, sp := range specs {
		if sp.TypeOnly {
			continue
		}
		lines = append(lines, "__exports."+exported(sp)+" = "+req+"."+sp.Name+";")
	}
	return strings.Join(lines, " "), e, true
}

// rewriteExportStar handles `export * from "..."` and
// `export * as ns from "..."`.
func (b *Bundler) rewriteExportStar(path, src string, i, j int) (string, int, bool) {
	ns := ""
	e := j + 1
	k := skipSpace(src, e)
	if wordAt(src, k) == "as" {
		k = skipSpace(src, identEnd(src, k))
		if k >= len(src) || !isIdentStart(src[k]) {
			return "", 0, false
		}
		ns = wordAt(src, k)
		k = skipSpace(src, identEnd(src, k))
	}
	if wordAt(src, k) != "from" {
		return "", 0, false
	}
	k = skipSpace(src, identEnd(src, k))
	if k >= len(src) || (src[k] != '"' && src[k] != '\'') {
		return "", 0, false
	}
	e2 := stringEnd(src, k)
	from := unquote(src[k:e2])
	e = consumeSemi(src, e2)

	res := b.resolver.Resolve(from, path)
	if res.External {
		ident := b.externalFor(from, res)
		if ns != "" {
			return "__exports." + ns + " = " + ident + ";", e, true
		}
		return "__reexport(__exports, " + ident + ");", e, true
	}
	b.visit(res.Path)
	req := "__require(" + strconv.Quote(res.Path) + ")"
	if ns != "" {
		return "__exports." + ns + " = " + req + ";", e, true
	}
	return "__reexport(__exports, " + req + ");", e, true
}

// emit renders hoisted externals, the runtime, every registered module
// in dependency order, and the entry invocation.
func (b *Bundler) emit(entry string) string {
	var out strings.Builder
	for _, ext := range b.externals {
		out.WriteString("import * as " + ext.Ident + " from " + strconv.Quote(ext.URL) + ";\n")
	}
	if len(b.externals) > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(runtimePrelude)
	for _, p := range b.order {
		out.WriteString("\n// --- module: " + p + " ---\n")
		out.WriteString("__register(" + strconv.Quote(p) + ", function (__exports, __require) {\n")
		body := b.bodies[p]
		out.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			out.WriteByte('\n')
		}
		out.WriteString("});\n")
	}
	out.WriteString("\n__require(" + strconv.Quote(entry) + ");\n")
	return out.String()
}

// declaredNames extracts every binding introduced by a const/let/var
// statement, including names inside destructuring patterns.
func declaredNames(src string, i int) []string {
	var names []string
	j := i
	for {
		j = skipSpace(src, j)
		if j >= len(src) {
			break
		}
		switch {
		case isIdentStart(src[j]):
			e := identEnd(src, j)
			names = append(names, src[j:e])
			j = e
		case src[j] == '{' || src[j] == '[':
			e := bracketEnd(src, j)
			names = append(names, patternNames(src[j:e])...)
			j = e
		default:
			return names
		}
		j = skipDeclaratorInit(src, j)
		k := skipSpace(src, j)
		if k < len(src) && src[k] == ',' {
			j = k + 1
			continue
		}
		break
	}
	return names
}

// skipDeclaratorInit consumes an `= expr` initializer up to the next
// top-level comma or end of statement.
func skipDeclaratorInit(src string, i int) int {
	k := skipSpace(src, i)
	if k >= len(src) || src[k] != '=' {
		return i
	}
	if k+1 < len(src) && (src[k+1] == '=' || src[k+1] == '>') {
		return i
	}
	w := &walker{src: src, i: k + 1, prev: '='}
	for !w.done() {
		c := src[w.i]
		if w.depth == 0 {
			switch c {
			case ',', ';':
				return w.i
			case '\n':
				if !continuesLine(w.prev) {
					return w.i
				}
			}
		}
		w.advance()
	}
	return len(src)
}

// patternNames extracts bound names from a destructuring pattern
// (including the surrounding braces or brackets).
func patternNames(group string) []string {
	if len(group) < 2 {
		return nil
	}
	inner := group[1 : len(group)-1]
	isObj := group[0] == '{'
	var names []string
	w := newWalker(inner)
	itemStart := 0
	flush := func(end int) {
		if item := strings.TrimSpace(inner[itemStart:end]); item != "" {
			names = append(names, patternItemNames(item, isObj)...)
		}
	}
	for !w.done() {
		if inner[w.i] == ',' && w.depth == 0 {
			s, _ := w.advance()
			flush(s)
			itemStart = w.i
			continue
		}
		w.advance()
	}
	flush(len(inner))
	return names
}

func patternItemNames(item string, isObj bool) []string {
	if eq := topLevelByte(item, '='); eq >= 0 {
		item = strings.TrimSpace(item[:eq])
	}
	if isObj {
		if colon := topLevelByte(item, ':'); colon >= 0 {
			item = strings.TrimSpace(item[colon+1:])
		}
	}
	item = strings.TrimSpace(strings.TrimPrefix(item, "..."))
	if item == "" {
		return nil
	}
	if item[0] == '{' || item[0] == '[' {
		return patternNames(item)
	}
	if isIdentStart(item[0]) {
		return []string{wordAt(item, 0)}
	}
	return nil
}

// topLevelByte finds the first occurrence of c at bracket depth zero,
// outside literals. Two-byte operators (==, =>) don't count for '='.
func topLevelByte(s string, c byte) int {
	w := newWalker(s)
	for !w.done() {
		i := w.i
		ch := s[i]
		if ch == c && w.depth == 0 {
			if c == '=' && i+1 < len(s) && (s[i+1] == '=' || s[i+1] == '>') {
				w.advance()
				continue
			}
			return i
		}
		w.advance()
	}
	return -1
}
