package builder

import "strings"

// importClause is a parsed static import statement.
type importClause struct {
	Default   string
	Namespace string
	Named     []importSpec
	HadBraces bool
	// Bare marks a side-effect import with no bindings.
	Bare      bool
	Specifier string
	// TypeOnly marks `import type ...` statements, erased entirely.
	TypeOnly bool
}

type importSpec struct {
	Name     string
	Alias    string
	TypeOnly bool
}

// binding returns the local name a spec introduces.
func (s importSpec) binding() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// parseImport parses the static import statement beginning at i, where
// src[i:] starts with the "import" keyword. end is the index just past
// the statement including a trailing semicolon. ok is false for
// dynamic import expressions and import.meta, which are left alone.
func parseImport(src string, i int) (clause importClause, end int, ok bool) {
	j := skipSpace(src, i+len("import"))
	if j >= len(src) {
		return clause, 0, false
	}
	switch src[j] {
	case '(', '.':
		return clause, 0, false
	case '\'', '"':
		q := stringEnd(src, j)
		clause.Specifier = unquote(src[j:q])
		clause.Bare = true
		return clause, consumeSemi(src, q), true
	}

	if wordAt(src, j) == "type" {
		k := skipSpace(src, identEnd(src, j))
		// `import type from "x"` binds a default named "type"; every
		// other continuation marks a type-only statement.
		if k < len(src) && (src[k] == '{' || src[k] == '*' || (isIdentStart(src[k]) && wordAt(src, k) != "from")) {
			clause.TypeOnly = true
			j = k
		}
	}

	if j < len(src) && isIdentStart(src[j]) {
		clause.Default = wordAt(src, j)
		j = skipSpace(src, identEnd(src, j))
		if j < len(src) && src[j] == ',' {
			j = skipSpace(src, j+1)
		}
	}

	if j < len(src) && src[j] == '*' {
		j = skipSpace(src, j+1)
		if wordAt(src, j) != "as" {
			return clause, 0, false
		}
		j = skipSpace(src, identEnd(src, j))
		clause.Namespace = wordAt(src, j)
		if clause.Namespace == "" {
			return clause, 0, false
		}
		j = skipSpace(src, identEnd(src, j))
	} else if j < len(src) && src[j] == '{' {
		specs, k, specsOK := parseBindingSpecs(src, j)
		if !specsOK {
			return clause, 0, false
		}
		clause.Named = specs
		clause.HadBraces = true
		j = skipSpace(src, k)
	}

	if wordAt(src, j) != "from" {
		return clause, 0, false
	}
	j = skipSpace(src, identEnd(src, j))
	if j >= len(src) || (src[j] != '\'' && src[j] != '"') {
		return clause, 0, false
	}
	q := stringEnd(src, j)
	clause.Specifier = unquote(src[j:q])
	return clause, consumeSemi(src, q), true
}

// parseBindingSpecs parses a `{ a, type B, c as d }` group starting at
// the opening brace, as used by both import and export statements.
// Returns the specs and the index just past the closing brace.
func parseBindingSpecs(src string, i int) ([]importSpec, int, bool) {
	end := bracketEnd(src, i)
	if end <= i+1 {
		return nil, 0, false
	}
	inner := end - 1
	specs := []importSpec{}
	j := i + 1
	for {
		j = skipSpace(src, j)
		if j >= inner {
			break
		}
		var spec importSpec
		if wordAt(src, j) == "type" {
			k := skipSpace(src, identEnd(src, j))
			if k < inner && isIdentStart(src[k]) {
				spec.TypeOnly = true
				j = k
			}
		}
		if j >= inner || !isIdentStart(src[j]) {
			return nil, 0, false
		}
		spec.Name = wordAt(src, j)
		j = skipSpace(src, identEnd(src, j))
		if wordAt(src, j) == "as" {
			j = skipSpace(src, identEnd(src, j))
			if j >= inner || !isIdentStart(src[j]) {
				return nil, 0, false
			}
			spec.Alias = wordAt(src, j)
			j = skipSpace(src, identEnd(src, j))
		}
		specs = append(specs, spec)
		if j < inner && src[j] == ',' {
			j++
			continue
		}
		break
	}
	return specs, end, true
}

// renderImport renders a clause back to a normalized import statement.
// A clause with no remaining bindings renders as a side-effect import.
func renderImport(c importClause) string {
	var parts []string
	if c.Default != "" {
		parts = append(parts, c.Default)
	}
	if c.Namespace != "" {
		parts = append(parts, "* as "+c.Namespace)
	}
	if len(c.Named) > 0 {
		items := make([]string, 0, len(c.Named))
		for _, s := range c.Named {
			if s.Alias != "" && s.Alias != s.Name {
				items = append(items, s.Name+" as "+s.Alias)
			} else {
				items = append(items, s.Name)
			}
		}
		parts = append(parts, "{ "+strings.Join(items, ", ")+" }")
	}
	if len(parts) == 0 {
		return "import \"" + c.Specifier + "\";"
	}
	return "import " + strings.Join(parts, ", ") + " from \"" + c.Specifier + "\";"
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// consumeSemi extends a statement span over an immediately trailing
// semicolon.
func consumeSemi(src string, i int) int {
	j := i
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < len(src) && src[j] == ';' {
		return j + 1
	}
	return i
}
