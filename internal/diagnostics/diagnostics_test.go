package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oxide-computer/x4c/internal/source"
)

func TestNewAndWarningSetSeverity(t *testing.T) {
	e := New(ECodeMatchKindLaw, PhaseCheck, source.Span{}, "boom")
	if e.Severity != SeverityError {
		t.Errorf("expected New to produce an error-severity diagnostic")
	}
	w := Warning(ECodeUnreachableCode, PhaseParse, source.Span{}, "hmm")
	if w.Severity != SeverityWarning {
		t.Errorf("expected Warning to produce a warning-severity diagnostic")
	}
}

func TestSinkHasErrorsOnlyWithErrorSeverity(t *testing.T) {
	s := NewSink()
	if s.HasErrors() {
		t.Fatalf("expected an empty sink to report no errors")
	}
	s.Add(Warning(ECodeUnreachableCode, PhaseParse, source.Span{}, "hmm"))
	if s.HasErrors() {
		t.Fatalf("expected a sink with only warnings to report no errors")
	}
	s.Add(New(ECodeMatchKindLaw, PhaseCheck, source.Span{}, "boom"))
	if !s.HasErrors() {
		t.Fatalf("expected a sink with an error diagnostic to report HasErrors")
	}
	if s.Count(SeverityWarning) != 1 || s.Count(SeverityError) != 1 {
		t.Fatalf("expected 1 warning and 1 error, got %d/%d", s.Count(SeverityWarning), s.Count(SeverityError))
	}
}

func TestSinkSortOrdersByFileLineColumnThenCode(t *testing.T) {
	s := NewSink()
	s.Add(New(ECodeUndefinedName, PhaseResolve, source.Span{File: "b.p4", Line: 1, Column: 1}, "x"))
	s.Add(New(ECodeMatchKindLaw, PhaseCheck, source.Span{File: "a.p4", Line: 5, Column: 1}, "x"))
	s.Add(New(ECodeUnreachableCode, PhaseParse, source.Span{File: "a.p4", Line: 2, Column: 1}, "x"))
	s.Sort()

	diags := s.Diagnostics()
	if diags[0].Span.File != "a.p4" || diags[0].Span.Line != 2 {
		t.Fatalf("expected a.p4:2 first, got %s:%d", diags[0].Span.File, diags[0].Span.Line)
	}
	if diags[1].Span.File != "a.p4" || diags[1].Span.Line != 5 {
		t.Fatalf("expected a.p4:5 second, got %s:%d", diags[1].Span.File, diags[1].Span.Line)
	}
	if diags[2].Span.File != "b.p4" {
		t.Fatalf("expected b.p4 last, got %s", diags[2].Span.File)
	}
}

func TestRenderPlainWhenNotATerminal(t *testing.T) {
	s := NewSink()
	s.Add(New(ECodeMatchKindLaw, PhaseCheck, source.Span{File: "main.p4", Line: 3, Column: 5}, "two lpm keys"))
	var buf bytes.Buffer
	// fd 0 redirected to a bytes.Buffer-backed pipe is never a tty; we pass
	// an arbitrary non-terminal fd value to force plain-text rendering.
	s.Render(&buf, ^uintptr(0))
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI escape codes when rendering to a non-terminal, got %q", out)
	}
	if !strings.Contains(out, "E0001") || !strings.Contains(out, "two lpm keys") {
		t.Errorf("expected rendered output to mention the code and message, got %q", out)
	}
}

func TestByPhaseAndSortedPhases(t *testing.T) {
	s := NewSink()
	s.Add(New(ECodeUnexpectedToken, PhaseParse, source.Span{}, "x"))
	s.Add(New(ECodeMatchKindLaw, PhaseCheck, source.Span{}, "y"))
	s.Add(New(ECodeUnreachableCode, PhaseParse, source.Span{}, "z"))

	byPhase := s.ByPhase()
	if len(byPhase[PhaseParse]) != 2 {
		t.Fatalf("expected 2 parse-phase diagnostics, got %d", len(byPhase[PhaseParse]))
	}

	phases := s.SortedPhases()
	if len(phases) != 2 || phases[0] != PhaseParse || phases[1] != PhaseCheck {
		t.Fatalf("expected [parse, check] in pipeline order, got %v", phases)
	}
}
