package builder

import "strings"

// Lexical helpers shared by the type stripper, the bundler's statement
// rewriter and the utility class extractor. The scanner understands
// just enough JavaScript syntax to walk source text without being
// fooled by comments, string and template literals or regex literals.
// It deliberately builds no AST; JSX flows through as ordinary tokens.

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// identEnd returns the index just past the identifier starting at i.
func identEnd(src string, i int) int {
	for i < len(src) && isIdentPart(src[i]) {
		i++
	}
	return i
}

// wordAt returns the identifier starting at i, or "".
func wordAt(src string, i int) string {
	if i >= len(src) || !isIdentStart(src[i]) {
		return ""
	}
	return src[i:identEnd(src, i)]
}

// skipSpace advances past whitespace and comments.
func skipSpace(src string, i int) int {
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = lineCommentEnd(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = blockCommentEnd(src, i)
		default:
			return i
		}
	}
	return i
}

// lineCommentEnd returns the index of the newline terminating the
// comment at i (or len(src)). The newline itself is not consumed so
// line structure survives.
func lineCommentEnd(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func blockCommentEnd(src string, i int) int {
	end := strings.Index(src[i+2:], "*/")
	if end < 0 {
		return len(src)
	}
	return i + 2 + end + 2
}

// stringEnd returns the index just past the string literal opening at
// i (a single or double quote). Backslash escapes are honored; an
// unterminated literal runs to the end of line.
func stringEnd(src string, i int) int {
	quote := src[i]
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			return i
		default:
			i++
		}
	}
	return i
}

// templateEnd returns the index just past the template literal opening
// at i (a backtick). Interpolations may nest arbitrary code including
// further templates.
func templateEnd(src string, i int) int {
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			return i + 1
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			i = interpolationEnd(src, i+1)
		default:
			i++
		}
	}
	return i
}

// interpolationEnd consumes the ${...} body starting at the opening
// brace, honoring nested literals.
func interpolationEnd(src string, i int) int {
	depth := 0
	for i < len(src) {
		switch src[i] {
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
			if depth == 0 {
				return i
			}
		case '\'', '"':
			i = stringEnd(src, i)
		case '`':
			i = templateEnd(src, i)
		default:
			i++
		}
	}
	return i
}

// regexEnd returns the index just past the regex literal opening at i,
// including flags. Character classes may contain unescaped slashes.
func regexEnd(src string, i int) int {
	i++
	inClass := false
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(src) && isIdentPart(src[i]) {
					i++
				}
				return i
			}
		case '\n':
			return i
		}
		i++
	}
	return i
}

// regexKeywords are identifiers after which a slash begins a regex
// literal rather than division.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true,
	"of": true, "new": true, "delete": true, "void": true, "do": true,
	"else": true, "yield": true, "await": true, "case": true, "throw": true,
}

// walker steps through source code one atom at a time: a comment, a
// string/template/regex literal, an identifier, the two-byte arrow
// token, or a single byte. It tracks the last significant byte and
// word (to disambiguate regex literals), bracket depth, and whether
// the next identifier opens a statement.
type walker struct {
	src       string
	i         int
	prev      byte
	prevWord  string
	depth     int
	stmtStart bool
}

func newWalker(src string) *walker {
	return &walker{src: src, stmtStart: true}
}

func (w *walker) done() bool { return w.i >= len(w.src) }

func (w *walker) peek(n int) byte {
	if w.i+n >= len(w.src) {
		return 0
	}
	return w.src[w.i+n]
}

func (w *walker) regexAllowed() bool {
	if w.prev == 0 {
		return true
	}
	if regexKeywords[w.prevWord] {
		return true
	}
	return strings.IndexByte("=([{,;:!&|?+-*%<>~^", w.prev) >= 0
}

// advance consumes one atom and returns its span.
func (w *walker) advance() (int, int) {
	start := w.i
	c := w.src[w.i]
	switch {
	case c == '/' && w.peek(1) == '/':
		w.i = lineCommentEnd(w.src, w.i)
	case c == '/' && w.peek(1) == '*':
		w.i = blockCommentEnd(w.src, w.i)
	case c == '\'' || c == '"':
		w.i = stringEnd(w.src, w.i)
		w.prev, w.prevWord = '"', ""
	case c == '`':
		w.i = templateEnd(w.src, w.i)
		w.prev, w.prevWord = '"', ""
	case c == '/' && w.regexAllowed():
		w.i = regexEnd(w.src, w.i)
		w.prev, w.prevWord = '"', ""
	case isIdentStart(c):
		j := identEnd(w.src, w.i)
		word := w.src[w.i:j]
		if w.stmtStart {
			w.stmtStart = false
		}
		w.prev, w.prevWord = word[len(word)-1], word
		w.i = j
	case c == '=' && w.peek(1) == '>':
		w.i += 2
		w.prev, w.prevWord = '>', ""
	case c == ' ' || c == '\t' || c == '\r':
		w.i++
	case c == '\n':
		if !continuesLine(w.prev) {
			w.stmtStart = true
		}
		w.i++
	default:
		switch c {
		case '(', '[', '{':
			w.depth++
		case ')', ']', '}':
			w.depth--
		}
		if c == ';' || c == '{' || c == '}' {
			w.stmtStart = true
		} else {
			w.stmtStart = false
		}
		w.prev, w.prevWord = c, ""
		w.i++
	}
	return start, w.i
}

// jumpTo repositions the walker after a caller consumed a balanced
// span itself. prev seeds the context for regex disambiguation.
func (w *walker) jumpTo(pos int, prev byte) {
	w.i = pos
	w.prev = prev
	w.prevWord = ""
	w.stmtStart = prev == ';' || prev == '}'
}

// continuesLine reports whether a statement is clearly unfinished at a
// newline, so the next line does not open a new statement.
func continuesLine(prev byte) bool {
	if prev == 0 {
		return false
	}
	return strings.IndexByte(".,([{=+-*/&|?:<>~^", prev) >= 0
}

// bracketEnd returns the index just past the bracket group opening at
// i. Only brackets of the same kind nest; literals and comments are
// skipped wholesale. Unbalanced input runs to len(src).
func bracketEnd(src string, i int) int {
	open := src[i]
	var close byte
	switch open {
	case '(':
		close = ')'
	case '[':
		close = ']'
	case '{':
		close = '}'
	default:
		return i + 1
	}
	w := &walker{src: src, i: i}
	depth := 0
	for !w.done() {
		s, e := w.advance()
		if e-s == 1 {
			switch src[s] {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return e
				}
			}
		}
	}
	return len(src)
}

// angleEnd returns the index just past the generic parameter or
// argument list opening at i. Arrow tokens inside function types do
// not count as closers.
func angleEnd(src string, i int) int {
	w := &walker{src: src, i: i}
	depth := 0
	for !w.done() {
		s, e := w.advance()
		if e-s != 1 {
			continue
		}
		switch src[s] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return e
			}
		}
	}
	return len(src)
}
