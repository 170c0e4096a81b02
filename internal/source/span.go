// Package source provides source-position tracking and the preprocessor
// that expands #include/#define/#undef directives ahead of lexing.
package source

import "fmt"

// Span identifies a range of source text in the file it truly came from —
// not the file that #included it. Every token and AST node carries one.
type Span struct {
	File   string
	Line   int
	Column int
	Length int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsZero reports whether the span was never set (e.g. a synthesized node).
func (s Span) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}
