package builder

import (
	"regexp"
	"sort"
	"strings"
)

// Utility CSS generation works from a fixed table: the bundle text is
// scanned for class-name candidates, candidates are resolved against
// the table (peeling variant prefixes first), and one rule per
// recognized class is emitted in discovery order. Unknown candidates
// are dropped silently, so the heuristics below can afford to
// over-collect.

var utilityTable = buildUtilityTable()

var responsiveBreakpoints = map[string]string{
	"sm": "640px", "md": "768px", "lg": "1024px", "xl": "1280px", "2xl": "1536px",
}

var pseudoVariants = map[string]string{
	"hover":         ":hover",
	"focus":         ":focus",
	"focus-visible": ":focus-visible",
	"focus-within":  ":focus-within",
	"active":        ":active",
	"disabled":      ":disabled",
	"visited":       ":visited",
	"first":         ":first-child",
	"last":          ":last-child",
	"odd":           ":nth-child(odd)",
	"even":          ":nth-child(even)",
}

var (
	classAttrDoubleRe = regexp.MustCompile(`className\s*=\s*\{?\s*"([^"]*)"`)
	classAttrSingleRe = regexp.MustCompile(`className\s*=\s*\{?\s*'([^']*)'`)
	templateLiteralRe = regexp.MustCompile("`[^`]*`")
	bareDoubleRe      = regexp.MustCompile(`"([a-z][a-zA-Z0-9/:._\[\]-]*)"`)
	bareSingleRe      = regexp.MustCompile(`'([a-z][a-zA-Z0-9/:._\[\]-]*)'`)
)

// ExtractClasses scans bundled JavaScript for class-name candidates.
// Three heuristics feed the list: className attribute string values,
// whitespace-split tokens inside template literals (skipping anything
// interpolated), and bare quoted tokens that look like utilities
// (contain a hyphen or colon). The result is deduplicated and keeps
// first-use order.
func ExtractClasses(source string) []string {
	seen := make(map[string]bool)
	var out []string
	keep := func(token string) {
		if token == "" || seen[token] {
			return
		}
		seen[token] = true
		out = append(out, token)
	}

	for _, re := range []*regexp.Regexp{classAttrDoubleRe, classAttrSingleRe} {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			for _, token := range strings.Fields(m[1]) {
				keep(token)
			}
		}
	}

	for _, lit := range templateLiteralRe.FindAllString(source, -1) {
		for _, token := range strings.Fields(lit[1 : len(lit)-1]) {
			if token[0] < 'a' || token[0] > 'z' {
				continue
			}
			if strings.Contains(token, "${") {
				continue
			}
			keep(token)
		}
	}

	for _, re := range []*regexp.Regexp{bareDoubleRe, bareSingleRe} {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			if strings.ContainsAny(m[1], "-:") {
				keep(m[1])
			}
		}
	}
	return out
}

// ExtractCSSVariableBlocks pulls :root and .dark declaration blocks
// that define custom properties out of the project's own stylesheets,
// so design-system tokens like --primary survive into the generated
// CSS. Files are visited in sorted path order.
func ExtractCSSVariableBlocks(files FileSet) []string {
	var paths []string
	for p := range files {
		if IsStylePath(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	seen := make(map[string]bool)
	var blocks []string
	for _, p := range paths {
		src := string(files[p])
		for _, sel := range []string{":root", ".dark"} {
			from := 0
			for {
				i := strings.Index(src[from:], sel)
				if i < 0 {
					break
				}
				i += from
				from = i + len(sel)
				if i+len(sel) < len(src) && isIdentPart(src[i+len(sel)]) {
					continue
				}
				open := strings.IndexByte(src[i:], '{')
				if open < 0 {
					break
				}
				head := src[i : i+open]
				if strings.ContainsAny(head, ";}") {
					continue
				}
				end := blockEnd(src, i+open)
				if end < 0 {
					break
				}
				block := src[i : end+1]
				if strings.Contains(block, "--") && !seen[block] {
					seen[block] = true
					blocks = append(blocks, block)
				}
				from = end + 1
			}
		}
	}
	return blocks
}

// blockEnd returns the index of the brace matching the one at open.
func blockEnd(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// GenerateCSS renders the final stylesheet: base reset, extracted
// custom-property blocks, keyframes for any used animations, then one
// rule per recognized class in discovery order.
func GenerateCSS(classes []string, varBlocks []string) string {
	var b strings.Builder
	b.WriteString(baseStyles)
	for _, block := range varBlocks {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(block))
		b.WriteString("\n")
	}

	seenClass := make(map[string]bool)
	seenFrames := make(map[string]bool)
	var rules, frames []string
	for _, class := range classes {
		if seenClass[class] {
			continue
		}
		seenClass[class] = true
		rule, keyframes, ok := resolveClass(class)
		if !ok {
			continue
		}
		rules = append(rules, rule)
		if keyframes != "" && !seenFrames[keyframes] {
			seenFrames[keyframes] = true
			frames = append(frames, keyframes)
		}
	}

	for _, kf := range frames {
		b.WriteString("\n")
		b.WriteString(kf)
		b.WriteString("\n")
	}
	if len(rules) > 0 {
		b.WriteString("\n")
	}
	for _, rule := range rules {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	return b.String()
}

// resolveClass peels variant prefixes off a candidate, looks the base
// utility up in the table, and renders the full rule. Responsive
// prefixes wrap the rule in min-width media queries; pseudo prefixes
// extend the selector; dark: and group-hover: prepend an ancestor
// selector. Unknown candidates return ok=false.
func resolveClass(class string) (rule string, keyframes string, ok bool) {
	rest := class
	var medias []string
	var pseudos, ancestor string

peel:
	for {
		i := strings.IndexByte(rest, ':')
		if i <= 0 {
			break
		}
		switch v := rest[:i]; {
		case responsiveBreakpoints[v] != "":
			medias = append(medias, responsiveBreakpoints[v])
		case pseudoVariants[v] != "":
			pseudos += pseudoVariants[v]
		case v == "dark":
			ancestor = ".dark " + ancestor
		case v == "group-hover":
			ancestor = ".group:hover " + ancestor
		default:
			break peel
		}
		rest = rest[i+1:]
	}

	u, found := utilityTable[rest]
	if !found {
		return "", "", false
	}
	selector := ancestor + "." + escapeClass(class) + pseudos + u.Suffix
	rule = selector + " { " + u.Body + " }"
	for i := len(medias) - 1; i >= 0; i-- {
		rule = "@media (min-width: " + medias[i] + ") { " + rule + " }"
	}
	return rule, u.Keyframes, true
}

// escapeClass renders a class name as a CSS selector identifier,
// backslash-escaping variant colons and arbitrary-value punctuation. A
// leading digit (the 2xl: prefix) needs the hex-escape form.
func escapeClass(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case i == 0 && c >= '0' && c <= '9':
			b.WriteString("\\3")
			b.WriteByte(c)
			b.WriteByte(' ')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String()
}

// baseStyles is the reset prepended to every generated stylesheet. The
// body picks up the design-system background/foreground tokens when a
// project defines them, with neutral fallbacks when it does not.
const baseStyles = `*, ::before, ::after { box-sizing: border-box; border-width: 0; border-style: solid; border-color: currentColor; }
html { line-height: 1.5; -webkit-text-size-adjust: 100%; font-family: ui-sans-serif, system-ui, -apple-system, sans-serif; }
body { margin: 0; line-height: inherit; min-height: 100vh; background-color: hsl(var(--background, 0 0% 100%)); color: hsl(var(--foreground, 222.2 84% 4.9%)); }
h1, h2, h3, h4, h5, h6 { font-size: inherit; font-weight: inherit; margin: 0; }
p, figure, blockquote, dl, dd { margin: 0; }
ul, ol { list-style: none; margin: 0; padding: 0; }
img, svg, video, canvas { display: block; max-width: 100%; }
button, input, optgroup, select, textarea { font: inherit; color: inherit; margin: 0; padding: 0; background-color: transparent; }
button, [role="button"] { cursor: pointer; }
a { color: inherit; text-decoration: inherit; }
`
