// Package diagnostics defines the closed error-code registry and the
// rendering of compiler diagnostics with caret-underlined source context.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slices"

	"github.com/oxide-computer/x4c/internal/source"
)

// Phase identifies which pipeline stage raised a Diagnostic.
type Phase string

const (
	PhasePreprocess Phase = "preprocess"
	PhaseLex        Phase = "lex"
	PhaseParse      Phase = "parse"
	PhaseResolve    Phase = "resolve"
	PhaseCheck      Phase = "check"
)

// Severity distinguishes a hard error from an advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ErrorCode is a closed registry of stable, citable diagnostic codes.
// E0001 is reserved for the match-kind law;
// codes are otherwise grouped by phase in blocks of 100.
type ErrorCode string

const (
	ECodeMatchKindLaw ErrorCode = "E0001"

	// Preprocessor (E01xx)
	ECodeIncludeNotFound ErrorCode = "E0101"
	ECodeIncludeCycle    ErrorCode = "E0102"
	ECodeMalformedDirective ErrorCode = "E0103"

	// Lexer (E02xx)
	ECodeIllegalChar       ErrorCode = "E0201"
	ECodeUnterminatedString ErrorCode = "E0202"
	ECodeMalformedInt      ErrorCode = "E0203"
	ECodeIntTruncation     ErrorCode = "E0204"

	// Parser (E03xx)
	ECodeUnexpectedToken ErrorCode = "E0301"
	ECodeUnreachableCode ErrorCode = "E0302"

	// Resolver (E04xx)
	ECodeUndefinedName   ErrorCode = "E0401"
	ECodeDuplicateName   ErrorCode = "E0402"
	ECodeCyclicInstance  ErrorCode = "E0403"

	// Checker (E05xx) — E0001 stands outside this block deliberately
	ECodeUnreachableState     ErrorCode = "E0501"
	ECodeInvalidParserAssign  ErrorCode = "E0502"
	ECodeHeaderDiscipline     ErrorCode = "E0503"
	ECodeWidthMismatch        ErrorCode = "E0504"
	ECodeSignednessMismatch   ErrorCode = "E0505"
	ECodeDirectionViolation   ErrorCode = "E0506"
	ECodePackageBindingError ErrorCode = "E0507"
)

// Diagnostic is a single user-facing error or warning.
type Diagnostic struct {
	Code     ErrorCode
	Phase    Phase
	Severity Severity
	Span     source.Span
	Message  string
	// SourceLine is the full text of Span.Line, used to render the caret
	// underline. It is optional; renderers fall back to a bare message
	// when empty.
	SourceLine string
}

// New constructs an error-severity Diagnostic.
func New(code ErrorCode, phase Phase, span source.Span, message string) *Diagnostic {
	return &Diagnostic{Code: code, Phase: phase, Severity: SeverityError, Span: span, Message: message}
}

// Warning constructs a warning-severity Diagnostic.
func Warning(code ErrorCode, phase Phase, span source.Span, message string) *Diagnostic {
	return &Diagnostic{Code: code, Phase: phase, Severity: SeverityWarning, Span: span, Message: message}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s [%s]: %s", d.Span, d.Severity, d.Code, d.Message)
}

// FromSourceError lifts a preprocessor/lexer-phase Error (which carries no
// code of its own) into a Diagnostic under the given phase and code.
func FromSourceError(phase Phase, code ErrorCode, span source.Span, message string) *Diagnostic {
	return New(code, phase, span, message)
}

// Sink collects diagnostics across every phase of a single compilation and
// renders them in stable, deterministic order.
type Sink struct {
	diags []*Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Add(d *Diagnostic) {
	if d != nil {
		s.diags = append(s.diags, d)
	}
}

func (s *Sink) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		s.Add(d)
	}
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (s *Sink) Diagnostics() []*Diagnostic { return s.diags }

// Sort orders diagnostics by (file, line, column), then by code, for
// reproducible CI output. Uses slices.SortStableFunc rather than
// sort.Slice to keep the comparison allocation-free and stable across
// equal keys.
func (s *Sink) Sort() {
	slices.SortStableFunc(s.diags, func(a, b *Diagnostic) int {
		if c := strings.Compare(a.Span.File, b.Span.File); c != 0 {
			return c
		}
		if a.Span.Line != b.Span.Line {
			return a.Span.Line - b.Span.Line
		}
		if a.Span.Column != b.Span.Column {
			return a.Span.Column - b.Span.Column
		}
		return strings.Compare(string(a.Code), string(b.Code))
	})
}

// Render writes every diagnostic to w in order, with ANSI severity
// coloring only when w is a genuine terminal (checked via isatty) so
// piped/redirected output and CI logs stay plain text.
func (s *Sink) Render(w io.Writer, fd uintptr) {
	color := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	for _, d := range s.diags {
		renderOne(w, d, color)
	}
}

func renderOne(w io.Writer, d *Diagnostic, color bool) {
	label := string(d.Severity)
	if color {
		c := "\x1b[31m" // red for errors
		if d.Severity == SeverityWarning {
			c = "\x1b[33m" // yellow for warnings
		}
		label = c + label + "\x1b[0m"
	}
	fmt.Fprintf(w, "%s: %s [%s]: %s\n", d.Span, label, d.Code, d.Message)
	if d.SourceLine != "" {
		fmt.Fprintf(w, "  %s\n", d.SourceLine)
		if d.Span.Column > 0 {
			fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", d.Span.Column-1))
		}
	}
	// Hints disabled - they were unstable across preprocessor expansions
	// and kept breaking golden-output tests.
}

// Count returns the number of diagnostics at the given severity.
func (s *Sink) Count(sev Severity) int {
	n := 0
	for _, d := range s.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// ByPhase groups diagnostics for callers that want per-phase summaries;
// SortedPhases is built on it.
func (s *Sink) ByPhase() map[Phase][]*Diagnostic {
	m := make(map[Phase][]*Diagnostic)
	for _, d := range s.diags {
		m[d.Phase] = append(m[d.Phase], d)
	}
	return m
}

// SortedPhases returns the phases present in s, in pipeline order.
func (s *Sink) SortedPhases() []Phase {
	order := []Phase{PhasePreprocess, PhaseLex, PhaseParse, PhaseResolve, PhaseCheck}
	seen := s.ByPhase()
	var out []Phase
	for _, p := range order {
		if _, ok := seen[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
