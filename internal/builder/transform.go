package builder

import "strings"

// StripTypes removes TypeScript-only syntax from a module so the
// remaining text is plain JavaScript: type-only imports and exports,
// interface and type alias declarations, variable/parameter/return
// annotations, generic parameter lists on function and class
// declarations, `as`/`satisfies` assertions and non-null postfix
// marks. The stripper scans token-aware rather than pattern-matching,
// so strings, comments, templates and JSX pass through untouched.
//
// It is not a type checker and does not attempt full TS coverage:
// enums, class member annotations and angle-bracket assertions are
// left as-is.
func StripTypes(src string) string {
	var out strings.Builder
	out.Grow(len(src))
	w := newWalker(src)
	varStmt := false // inside a top-level const/let/var statement
	eqSeen := false

	for !w.done() {
		i := w.i
		c := src[i]

		if isIdentStart(c) {
			word := wordAt(src, i)
			stmtPos := w.stmtStart
			switch word {
			case "import":
				if clause, end, ok := parseImport(src, i); ok {
					out.WriteString(renderImportStripped(clause))
					w.jumpTo(end, ';')
					continue
				}
			case "export":
				if end, ok := typeOnlyExportEnd(src, i); ok {
					w.jumpTo(end, ';')
					continue
				}
				if text, end, ok := rewriteExportClause(src, i); ok {
					out.WriteString(text)
					w.jumpTo(end, ';')
					continue
				}
			case "interface":
				if w.prev != '.' {
					if end, ok := interfaceEnd(src, i); ok {
						w.jumpTo(end, ';')
						continue
					}
				}
			case "type":
				if stmtPos {
					if end, ok := typeAliasEnd(src, i); ok {
						w.jumpTo(end, ';')
						continue
					}
				}
			case "declare":
				if stmtPos {
					if end, ok := declareEnd(src, i); ok {
						w.jumpTo(end, ';')
						continue
					}
				}
			case "function":
				text, end := rewriteFunctionHead(src, i)
				out.WriteString(text)
				w.jumpTo(end, ')')
				continue
			case "class":
				text, end := rewriteClassHead(src, i)
				out.WriteString(text)
				w.jumpTo(end, ')')
				continue
			case "catch":
				if text, end, ok := rewriteCatchHead(src, i); ok {
					out.WriteString(text)
					w.jumpTo(end, ')')
					continue
				}
			case "const", "let", "var":
				if stmtPos && w.depth == 0 {
					varStmt = true
					eqSeen = false
				}
			case "as", "satisfies":
				if prevAssertionOperand(w.prev) {
					j := identEnd(src, i)
					k := skipSpace(src, j)
					// `as={...}` and `as=".."` are JSX attributes.
					if k < len(src) && src[k] != '=' && src[k] != '{' {
						if t := skipTypeExpr(src, j); t > j {
							w.jumpTo(t, ')')
							continue
						}
					}
				}
			}
			s, e := w.advance()
			out.WriteString(src[s:e])
			continue
		}

		switch c {
		case '(':
			if text, end, ok := rewriteArrowHead(src, i); ok {
				out.WriteString(text)
				w.jumpTo(end, ')')
				continue
			}
		case '!':
			// non-null assertion: `x!` but not `x != y`
			if prevExprEnd(w.prev) && w.peek(1) != '=' {
				w.advance()
				continue
			}
		case ':':
			if varStmt && w.depth == 0 && !eqSeen && prevDeclaratorEnd(w.prev) {
				if t := skipTypeExpr(src, i+1); t > i+1 {
					w.jumpTo(t, ')')
					continue
				}
			}
		case '=':
			if varStmt && w.depth == 0 && w.peek(1) != '=' && w.peek(1) != '>' {
				eqSeen = true
			}
		case ',':
			if varStmt && w.depth == 0 {
				eqSeen = false
			}
		case ';':
			varStmt = false
		case '\n':
			if varStmt && !continuesLine(w.prev) {
				varStmt = false
			}
		}
		s, e := w.advance()
		out.WriteString(src[s:e])
	}
	return out.String()
}

func prevExprEnd(c byte) bool {
	return isIdentPart(c) || c == ')' || c == ']' || c == '"'
}

// prevAssertionOperand additionally accepts '}': object literals
// commonly precede `as const` and `satisfies`. The non-null check must
// not, or a negation opening the statement after a block would be
// eaten.
func prevAssertionOperand(c byte) bool {
	return prevExprEnd(c) || c == '}'
}

func prevDeclaratorEnd(c byte) bool {
	return isIdentPart(c) || c == '}' || c == ']'
}

// renderImportStripped re-emits an import without its type-only
// parts. A statement reduced to nothing keeps its side effect.
func renderImportStripped(c importClause) string {
	if c.TypeOnly {
		return ""
	}
	if c.Bare {
		return renderImport(c)
	}
	kept := make([]importSpec, 0, len(c.Named))
	for _, s := range c.Named {
		if !s.TypeOnly {
			kept = append(kept, s)
		}
	}
	hadValues := c.Default != "" || c.Namespace != "" || len(kept) > 0
	c.Named = kept
	if !hadValues {
		return "import \"" + c.Specifier + "\";"
	}
	return renderImport(c)
}

// typeOnlyExportEnd recognizes `export type ...`, `export interface`
// and `export declare` statements, which are erased entirely.
func typeOnlyExportEnd(src string, i int) (int, bool) {
	j := skipSpace(src, i+len("export"))
	switch wordAt(src, j) {
	case "type":
		k := skipSpace(src, identEnd(src, j))
		if k < len(src) && src[k] == '{' {
			e := bracketEnd(src, k)
			e2 := skipSpace(src, e)
			if wordAt(src, e2) == "from" {
				e2 = skipSpace(src, identEnd(src, e2))
				if e2 < len(src) && (src[e2] == '"' || src[e2] == '\'') {
					e = stringEnd(src, e2)
				}
			}
			return consumeSemi(src, e), true
		}
		if end, ok := typeAliasEnd(src, j); ok {
			return end, true
		}
	case "interface":
		if end, ok := interfaceEnd(src, j); ok {
			return end, true
		}
	case "declare":
		if end, ok := declareEnd(src, j); ok {
			return end, true
		}
	}
	return 0, false
}

// rewriteExportClause copies `export { ... } [from "..."]` and
// `export * [as ns] from "..."` statements through while dropping
// inline `type` specifiers. Consuming the whole statement keeps the
// `as` keywords inside from being mistaken for assertions.
func rewriteExportClause(src string, i int) (string, int, bool) {
	j := skipSpace(src, i+len("export"))
	if j >= len(src) {
		return "", 0, false
	}

	if src[j] == '{' {
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
			e = stringEnd(src, k)
			from = unquote(src[k:e])
		}
		e = consumeSemi(src, e)

		kept := make([]importSpec, 0, len(specs))
		for _, s := range specs {
			if !s.TypeOnly {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return "", e, true
		}
		items := make([]string, 0, len(kept))
		for _, s := range kept {
			if s.Alias != "" && s.Alias != s.Name {
				items = append(items, s.Name+" as "+s.Alias)
			} else {
				items = append(items, s.Name)
			}
		}
		text := "export { " + strings.Join(items, ", ") + " }"
		if from != "" {
			text += " from \"" + from + "\""
		}
		return text + ";", e, true
	}

	if src[j] == '*' {
		e := j + 1
		k := skipSpace(src, e)
		if wordAt(src, k) == "as" {
			k = skipSpace(src, identEnd(src, k))
			if k >= len(src) || !isIdentStart(src[k]) {
				return "", 0, false
			}
			e = identEnd(src, k)
			k = skipSpace(src, e)
		}
		if wordAt(src, k) != "from" {
			return "", 0, false
		}
		k = skipSpace(src, identEnd(src, k))
		if k >= len(src) || (src[k] != '"' && src[k] != '\'') {
			return "", 0, false
		}
		e = consumeSemi(src, stringEnd(src, k))
		return src[i:e], e, true
	}

	return "", 0, false
}

// interfaceEnd returns the index past an interface declaration
// beginning at i, including its body.
func interfaceEnd(src string, i int) (int, bool) {
	j := skipSpace(src, i+len("interface"))
	if j >= len(src) || !isIdentStart(src[j]) {
		return 0, false
	}
	j = identEnd(src, j)
	k := skipSpace(src, j)
	if k < len(src) && src[k] == '<' {
		k = skipSpace(src, angleEnd(src, k))
	}
	if wordAt(src, k) == "extends" {
		j = identEnd(src, k)
		for {
			j = skipTypeExpr(src, j)
			k = skipSpace(src, j)
			if k < len(src) && src[k] == ',' {
				j = k + 1
				continue
			}
			break
		}
		k = skipSpace(src, j)
	}
	if k >= len(src) || src[k] != '{' {
		return 0, false
	}
	return bracketEnd(src, k), true
}

// typeAliasEnd returns the index past a `type X = ...` declaration
// beginning at i.
func typeAliasEnd(src string, i int) (int, bool) {
	j := skipSpace(src, i+len("type"))
	if j >= len(src) || !isIdentStart(src[j]) {
		return 0, false
	}
	j = identEnd(src, j)
	k := skipSpace(src, j)
	if k < len(src) && src[k] == '<' {
		k = skipSpace(src, angleEnd(src, k))
	}
	if k >= len(src) || src[k] != '=' {
		return 0, false
	}
	if k+1 < len(src) && (src[k+1] == '=' || src[k+1] == '>') {
		return 0, false
	}
	j = skipTypeExpr(src, k+1)
	if j == k+1 {
		return 0, false
	}
	return consumeSemi(src, j), true
}

// declareEnd consumes an ambient `declare ...` statement: either a
// braced block (declare global, declare module) or a single statement
// ending at a semicolon or unambiguous newline.
func declareEnd(src string, i int) (int, bool) {
	j := skipSpace(src, i+len("declare"))
	if j >= len(src) || !isIdentStart(src[j]) {
		return 0, false
	}
	w := &walker{src: src, i: j}
	for !w.done() {
		c := src[w.i]
		if w.depth == 0 {
			switch c {
			case '{':
				return bracketEnd(src, w.i), true
			case ';':
				return w.i + 1, true
			case '\n':
				if !continuesLine(w.prev) {
					return w.i, true
				}
			}
		}
		w.advance()
	}
	return len(src), true
}

// rewriteFunctionHead re-emits a function declaration head with its
// generic parameter list, parameter annotations and return type
// removed. The span ends before the body brace so bracket depth stays
// balanced for the caller.
func rewriteFunctionHead(src string, i int) (string, int) {
	var out strings.Builder
	j := i + len("function")
	out.WriteString("function")
	k := skipSpace(src, j)
	out.WriteString(src[j:k])
	j = k
	if j < len(src) && src[j] == '*' {
		out.WriteByte('*')
		j++
		k = skipSpace(src, j)
		out.WriteString(src[j:k])
		j = k
	}
	if j < len(src) && isIdentStart(src[j]) {
		e := identEnd(src, j)
		out.WriteString(src[j:e])
		j = e
	}
	k = skipSpace(src, j)
	if k < len(src) && src[k] == '<' {
		out.WriteString(src[j:k])
		j = angleEnd(src, k)
	}
	k = skipSpace(src, j)
	if k < len(src) && src[k] == '(' {
		out.WriteString(src[j:k])
		e := bracketEnd(src, k)
		out.WriteString(rewriteParams(src[k:e]))
		j = e
	}
	k = skipSpace(src, j)
	if k < len(src) && src[k] == ':' {
		if t := skipTypeExpr(src, k+1); t > k+1 {
			j = t
		}
	}
	return out.String(), j
}

// rewriteClassHead re-emits a class declaration head up to (not
// including) the body brace, dropping generic parameters, type
// arguments on the superclass and any implements clause.
func rewriteClassHead(src string, i int) (string, int) {
	var out strings.Builder
	j := i
	for j < len(src) {
		if k := skipSpace(src, j); k > j {
			out.WriteString(src[j:k])
			j = k
		}
		if j >= len(src) {
			break
		}
		c := src[j]
		switch {
		case c == '{':
			return out.String(), j
		case c == '<':
			j = angleEnd(src, j)
		case c == '(':
			e := bracketEnd(src, j)
			out.WriteString(src[j:e])
			j = e
		case c == '.':
			out.WriteByte('.')
			j++
		case isIdentStart(c):
			e := identEnd(src, j)
			word := src[j:e]
			if word == "implements" {
				j = e
				for {
					j = skipTypeExpr(src, j)
					k := skipSpace(src, j)
					if k < len(src) && src[k] == ',' {
						j = k + 1
						continue
					}
					break
				}
				continue
			}
			out.WriteString(word)
			j = e
		default:
			return out.String(), j
		}
	}
	return out.String(), j
}

// rewriteCatchHead strips the type annotation from a catch binding.
func rewriteCatchHead(src string, i int) (string, int, bool) {
	j := identEnd(src, i)
	k := skipSpace(src, j)
	if k >= len(src) || src[k] != '(' {
		return "", 0, false
	}
	e := bracketEnd(src, k)
	return "catch" + src[j:k] + rewriteParams(src[k:e]), e, true
}

// rewriteArrowHead recognizes `(params) =>` and `(params): Ret =>`
// heads and re-emits them with annotations removed; the consumed span
// ends just before the arrow token. ok is false when the paren group
// is not an arrow parameter list.
func rewriteArrowHead(src string, i int) (string, int, bool) {
	p := bracketEnd(src, i)
	if p >= len(src) {
		return "", 0, false
	}
	k := skipSpace(src, p)
	if k+1 < len(src) && src[k] == '=' && src[k+1] == '>' {
		return rewriteParams(src[i:p]) + src[p:k], k, true
	}
	if k < len(src) && src[k] == ':' {
		if t := skipTypeExpr(src, k+1); t > k+1 {
			k2 := skipSpace(src, t)
			if k2+1 < len(src) && src[k2] == '=' && src[k2+1] == '>' {
				return rewriteParams(src[i:p]) + src[p:k], k2, true
			}
		}
	}
	return "", 0, false
}

// rewriteParams strips TypeScript syntax inside a parenthesized
// parameter list: annotations, optional markers, access modifiers and
// `this` parameters. Nested arrow heads in default values are
// rewritten recursively.
func rewriteParams(group string) string {
	if len(group) < 2 {
		return group
	}
	inner := group[1 : len(group)-1]
	var out strings.Builder
	out.WriteByte('(')
	w := newWalker(inner)
	eqSeen := false
	paramStart := true
	for !w.done() {
		c := inner[w.i]
		if c == '(' {
			if text, end, ok := rewriteArrowHead(inner, w.i); ok {
				out.WriteString(text)
				w.jumpTo(end, ')')
				continue
			}
		}
		if w.depth == 0 {
			switch {
			case c == '?':
				k := skipSpace(inner, w.i+1)
				if k >= len(inner) || inner[k] == ':' || inner[k] == ',' {
					w.advance()
					continue
				}
			case c == ':' && !eqSeen:
				if t := skipTypeExpr(inner, w.i+1); t > w.i+1 {
					w.jumpTo(t, ')')
					continue
				}
			case c == '=':
				if w.peek(1) != '>' && w.peek(1) != '=' {
					eqSeen = true
				}
			case isIdentStart(c) && paramStart:
				word := wordAt(inner, w.i)
				if word == "public" || word == "private" || word == "protected" || word == "readonly" {
					k := skipSpace(inner, identEnd(inner, w.i))
					if k < len(inner) && (isIdentStart(inner[k]) || inner[k] == '{' || inner[k] == '[' || inner[k] == '.') {
						w.jumpTo(identEnd(inner, w.i), ',')
						continue
					}
				}
				if word == "this" {
					k := skipSpace(inner, identEnd(inner, w.i))
					if k < len(inner) && inner[k] == ':' {
						t := skipTypeExpr(inner, k+1)
						k2 := skipSpace(inner, t)
						if k2 < len(inner) && inner[k2] == ',' {
							k2++
						}
						w.jumpTo(k2, ',')
						continue
					}
				}
				paramStart = false
			}
		}
		s, e := w.advance()
		out.WriteString(inner[s:e])
		if e-s == 1 && inner[s] == ',' && w.depth == 0 {
			paramStart = true
			eqSeen = false
		}
	}
	out.WriteByte(')')
	return out.String()
}

// typePrefixWords introduce a type operand rather than standing alone.
var typePrefixWords = map[string]bool{
	"typeof": true, "keyof": true, "readonly": true, "infer": true,
	"new": true, "asserts": true, "abstract": true,
}

// skipTypePrimary consumes one primary type: a (possibly qualified,
// possibly generic) name, an object/tuple/function type, a literal,
// or a prefixed form like `typeof x`, plus indexed-access suffixes.
// Returns i unchanged when nothing type-like starts there.
func skipTypePrimary(src string, i int) int {
	j := skipSpace(src, i)
	if j >= len(src) {
		return i
	}
	c := src[j]
	switch {
	case isIdentStart(c):
		e := identEnd(src, j)
		if typePrefixWords[src[j:e]] {
			if k := skipTypePrimary(src, e); k > e {
				return k
			}
			return e
		}
		j = e
		for {
			k := skipSpace(src, j)
			if k < len(src) && src[k] == '.' {
				m := skipSpace(src, k+1)
				if m < len(src) && isIdentStart(src[m]) {
					j = identEnd(src, m)
					continue
				}
				break
			}
			if k < len(src) && src[k] == '<' {
				j = angleEnd(src, k)
				continue
			}
			break
		}
	case c == '{' || c == '[':
		j = bracketEnd(src, j)
	case c == '(':
		j = bracketEnd(src, j)
		k := skipSpace(src, j)
		if k+1 < len(src) && src[k] == '=' && src[k+1] == '>' {
			j = skipTypeExpr(src, k+2)
		}
	case c == '\'' || c == '"':
		j = stringEnd(src, j)
	case c == '`':
		j = templateEnd(src, j)
	case c == '-' || (c >= '0' && c <= '9'):
		j++
		for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
			j++
		}
	default:
		return i
	}
	for {
		k := skipSpace(src, j)
		if k < len(src) && src[k] == '[' {
			j = bracketEnd(src, k)
			continue
		}
		break
	}
	return j
}

// skipTypeExpr consumes a type expression starting at i and returns
// the index just past it, or i when no type is present. Covers the
// practical annotation surface: unions, intersections, predicates and
// simple conditional types over primaries.
func skipTypeExpr(src string, i int) int {
	j := skipSpace(src, i)
	if j < len(src) && (src[j] == '|' || src[j] == '&') &&
		(j+1 >= len(src) || (src[j+1] != src[j] && src[j+1] != '=')) {
		// leading pipe of a multi-line union
		if e := skipTypeExpr(src, j+1); e > j+1 {
			return e
		}
		return i
	}
	j = skipTypePrimary(src, i)
	if j == i {
		return i
	}
	for {
		k := skipSpace(src, j)
		if k >= len(src) {
			return j
		}
		c := src[k]
		if (c == '|' || c == '&') && (k+1 >= len(src) || (src[k+1] != c && src[k+1] != '=')) {
			m := skipTypePrimary(src, k+1)
			if m == k+1 {
				return j
			}
			j = m
			continue
		}
		switch wordAt(src, k) {
		case "is":
			e := identEnd(src, k)
			if m := skipTypeExpr(src, e); m > e {
				j = m
				continue
			}
		case "extends":
			e := identEnd(src, k)
			m := skipTypeExpr(src, e)
			if m == e {
				return j
			}
			q := skipSpace(src, m)
			if q < len(src) && src[q] == '?' {
				m = skipTypeExpr(src, q+1)
				q = skipSpace(src, m)
				if q < len(src) && src[q] == ':' {
					j = skipTypeExpr(src, q+1)
					continue
				}
			}
			return j
		}
		return j
	}
}
