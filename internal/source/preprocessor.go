package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error is a preprocessor-phase failure: a file-not-found, a malformed
// directive, or an include cycle. It carries its own Span rather than a
// diagnostics.Diagnostic so this package never needs to import the
// diagnostics package (which itself imports source for Span).
type Error struct {
	Span    Span
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Message) }

// Unit is the preprocessor's output: a single logical character stream
// with one Span per rune in Text, so that any position within Text can be
// traced back to the file and line it truly came from, independent of how
// many #includes separate it from the root file.
type Unit struct {
	Text  string
	Spans []Span // len(Spans) == len([]rune(Text))
}

// SpanAt returns the originating span for the rune at offset i in Text.
func (u *Unit) SpanAt(i int) Span {
	if i < 0 {
		i = 0
	}
	if i >= len(u.Spans) {
		if len(u.Spans) == 0 {
			return Span{}
		}
		return u.Spans[len(u.Spans)-1]
	}
	return u.Spans[i]
}

// Preprocessor expands #include/#define/#undef ahead of lexing. All file
// reads happen up front and are cached in memory keyed by canonical path,
// per the single-threaded, no-I/O-during-lexing resource model.
type Preprocessor struct {
	searchDirs []string
	cache      map[string][]string // canonical path -> lines (no trailing \n)
	expanding  map[string]bool     // include-cycle guard
	macros     map[string]string   // name -> replacement text ("" for flag macros)
	depth      int

	// virtual holds embedded include targets (e.g. core.p4) that resolve
	// without touching the filesystem; angle-bracket includes check this
	// map before any searchDirs entry.
	virtual map[string]string
}

// RegisterVirtual makes name resolve to content for any `#include <name>`
// or `#include "name"` directive, ahead of filesystem search paths.
func (p *Preprocessor) RegisterVirtual(name, content string) {
	if p.virtual == nil {
		p.virtual = make(map[string]string)
	}
	p.virtual[name] = content
}

// maxIncludeDepth bounds #include nesting independent of the cycle
// detector, as a defense against pathological search-path configurations.
const maxIncludeDepth = 64

// New creates a Preprocessor that also searches dirs, in order, for
// includes: a quoted include tries the including file's own directory
// before dirs, an angle-bracket include tries dirs before it.
func New(dirs ...string) *Preprocessor {
	return &Preprocessor{
		searchDirs: dirs,
		cache:      make(map[string][]string),
		expanding:  make(map[string]bool),
		macros:     make(map[string]string),
	}
}

// Expand reads rootPath and produces the fully include-expanded,
// macro-substituted character stream.
func (p *Preprocessor) Expand(rootPath string) (*Unit, []*Error) {
	u := &Unit{}
	var errs []*Error
	p.expandFile(rootPath, rootPath, u, &errs)
	return u, errs
}

func (p *Preprocessor) loadLines(canonical string) ([]string, error) {
	if lines, ok := p.cache[canonical]; ok {
		return lines, nil
	}
	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	p.cache[canonical] = lines
	return lines, nil
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.Clean(abs)
}

// expandFile appends the expansion of path (displayed to the user as
// displayName) onto u. displayName and the canonical path on disk can
// differ only in how they were spelled by the includer; the span always
// records displayName so diagnostics read naturally.
func (p *Preprocessor) expandFile(path, displayName string, u *Unit, errs *[]*Error) {
	canonical := canonicalPath(path)
	if p.expanding[canonical] {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: 1, Column: 1},
			Message: fmt.Sprintf("include cycle detected: %s re-enters itself", displayName),
		})
		return
	}
	if p.depth >= maxIncludeDepth {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: 1, Column: 1},
			Message: fmt.Sprintf("include nesting exceeds %d levels at %s", maxIncludeDepth, displayName),
		})
		return
	}

	lines, err := p.loadLines(canonical)
	if err != nil {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: 1, Column: 1},
			Message: fmt.Sprintf("cannot read %q: %v", displayName, err),
		})
		return
	}

	p.expanding[canonical] = true
	p.depth++
	defer func() {
		delete(p.expanding, canonical)
		p.depth--
	}()

	baseDir := filepath.Dir(canonical)
	p.expandLines(lines, displayName, baseDir, u, errs)
}

// expandVirtual expands an embedded include target (e.g. core.p4) that
// has no on-disk path, reusing the cycle/depth guards keyed by a
// synthetic "virtual:<name>" path.
func (p *Preprocessor) expandVirtual(name, content string, u *Unit, errs *[]*Error) {
	key := "virtual:" + name
	if p.expanding[key] {
		*errs = append(*errs, &Error{
			Span:    Span{File: name, Line: 1, Column: 1},
			Message: fmt.Sprintf("include cycle detected: %s re-enters itself", name),
		})
		return
	}
	if p.depth >= maxIncludeDepth {
		*errs = append(*errs, &Error{
			Span:    Span{File: name, Line: 1, Column: 1},
			Message: fmt.Sprintf("include nesting exceeds %d levels at %s", maxIncludeDepth, name),
		})
		return
	}

	p.expanding[key] = true
	p.depth++
	defer func() {
		delete(p.expanding, key)
		p.depth--
	}()

	text := strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	p.expandLines(lines, name, "", u, errs)
}

// expandLines processes the physical lines of one file (real or virtual),
// dispatching directives and substituting macros into u.
func (p *Preprocessor) expandLines(lines []string, displayName, baseDir string, u *Unit, errs *[]*Error) {
	for lineNo := 0; lineNo < len(lines); lineNo++ {
		line := lines[lineNo]
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#include"):
			p.handleInclude(trimmed, displayName, lineNo+1, baseDir, u, errs)
			p.appendRune('\n', Span{File: displayName, Line: lineNo + 1, Column: len(line) + 1}, u)
		case strings.HasPrefix(trimmed, "#define"):
			consumed := p.handleDefine(lines, lineNo, trimmed, displayName, errs)
			for k := 0; k < consumed; k++ {
				l := lines[lineNo+k]
				p.appendRune('\n', Span{File: displayName, Line: lineNo + k + 1, Column: len(l) + 1}, u)
			}
			lineNo += consumed - 1
		case strings.HasPrefix(trimmed, "#undef"):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#undef"))
			delete(p.macros, name)
			p.appendRune('\n', Span{File: displayName, Line: lineNo + 1, Column: 1}, u)
		default:
			p.appendSubstituted(line, displayName, lineNo+1, u)
			p.appendRune('\n', Span{File: displayName, Line: lineNo + 1, Column: len(line) + 1}, u)
		}
	}
}

func (p *Preprocessor) handleInclude(directive, displayName string, lineNo int, baseDir string, u *Unit, errs *[]*Error) {
	rest := strings.TrimSpace(strings.TrimPrefix(directive, "#include"))
	if len(rest) < 2 {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: lineNo, Column: 1},
			Message: "malformed #include directive",
		})
		return
	}

	quoted := rest[0] == '"'
	angled := rest[0] == '<'
	closing := byte('"')
	if angled {
		closing = '>'
	}
	if !quoted && !angled {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: lineNo, Column: 1},
			Message: "malformed #include directive: expected '\"name\"' or '<name>'",
		})
		return
	}
	end := strings.IndexByte(rest[1:], closing)
	if end < 0 {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: lineNo, Column: 1},
			Message: "malformed #include directive: unterminated name",
		})
		return
	}
	name := rest[1 : end+1]

	if content, ok := p.virtual[name]; ok {
		p.expandVirtual(name, content, u, errs)
		return
	}

	resolved, ok := p.resolveInclude(name, quoted, baseDir)
	if !ok {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: lineNo, Column: 1},
			Message: fmt.Sprintf("include file not found: %s", name),
		})
		return
	}
	p.expandFile(resolved, name, u, errs)
}

func (p *Preprocessor) resolveInclude(name string, quoted bool, baseDir string) (string, bool) {
	if quoted {
		candidate := filepath.Join(baseDir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	for _, dir := range p.searchDirs {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	if !quoted {
		candidate := filepath.Join(baseDir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// handleDefine registers a macro starting at lines[startIdx]. Supports
// flag macros (#define NAME), textual replacement (#define NAME
// replacement-to-end-of-line), and trailing-backslash line continuation:
// while the accumulated replacement ends in '\', the next physical line is
// joined in (separated by a space, backslash stripped), so the macro body
// can span several source lines. Returns how many physical lines the
// directive consumed, always at least 1.
func (p *Preprocessor) handleDefine(lines []string, startIdx int, directive, displayName string, errs *[]*Error) int {
	rest := strings.TrimSpace(strings.TrimPrefix(directive, "#define"))
	if rest == "" {
		*errs = append(*errs, &Error{
			Span:    Span{File: displayName, Line: startIdx + 1, Column: 1},
			Message: "malformed #define directive: missing name",
		})
		return 1
	}

	fields := strings.SplitN(rest, " ", 2)
	name := fields[0]
	replacement := ""
	if len(fields) == 2 {
		replacement = strings.TrimSpace(fields[1])
	}

	consumed := 1
	for strings.HasSuffix(replacement, "\\") && startIdx+consumed < len(lines) {
		replacement = strings.TrimSpace(strings.TrimSuffix(replacement, "\\"))
		replacement += " " + strings.TrimSpace(lines[startIdx+consumed])
		consumed++
	}
	p.macros[name] = strings.TrimSpace(replacement)
	return consumed
}

// appendSubstituted performs single-pass whole-identifier macro
// substitution on line and appends the result to u, attributing
// substituted characters to the macro's use site.
func (p *Preprocessor) appendSubstituted(line, file string, lineNo int, u *Unit) {
	col := 1
	i := 0
	for i < len(line) {
		ch := line[i]
		if isIdentStart(ch) {
			j := i + 1
			for j < len(line) && isIdentPart(line[j]) {
				j++
			}
			word := line[i:j]
			if repl, ok := p.macros[word]; ok {
				useSpan := Span{File: file, Line: lineNo, Column: col}
				for _, r := range repl {
					p.appendRune(r, useSpan, u)
				}
			} else {
				for k := i; k < j; k++ {
					p.appendRune(rune(line[k]), Span{File: file, Line: lineNo, Column: col + (k - i)}, u)
				}
			}
			col += j - i
			i = j
			continue
		}
		p.appendRune(rune(ch), Span{File: file, Line: lineNo, Column: col}, u)
		col++
		i++
	}
}

func (p *Preprocessor) appendRune(r rune, span Span, u *Unit) {
	u.Text += string(r)
	u.Spans = append(u.Spans, span)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
