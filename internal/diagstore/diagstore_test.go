package diagstore

import (
	"testing"
	"time"

	"github.com/oxide-computer/x4c/internal/diagnostics"
	"github.com/oxide-computer/x4c/internal/source"
)

func TestNilStoreMethodsAreNoOps(t *testing.T) {
	var s *Store
	if err := s.RecordRun("run-1", "main.p4", time.Unix(0, 0), nil); err != nil {
		t.Errorf("expected RecordRun on a nil Store to be a no-op, got %v", err)
	}
	if freq, err := s.CodeFrequency(); err != nil || freq != nil {
		t.Errorf("expected CodeFrequency on a nil Store to return (nil, nil), got (%v, %v)", freq, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("expected Close on a nil Store to be a no-op, got %v", err)
	}
}

func TestRecordRunAndCodeFrequencyRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	diags := []*diagnostics.Diagnostic{
		diagnostics.New(diagnostics.ECodeMatchKindLaw, diagnostics.PhaseCheck,
			source.Span{File: "main.p4", Line: 10, Column: 3}, "at most one lpm key per table"),
		diagnostics.New(diagnostics.ECodeMatchKindLaw, diagnostics.PhaseCheck,
			source.Span{File: "main.p4", Line: 20, Column: 3}, "at most one lpm key per table"),
		diagnostics.New(diagnostics.ECodeUndefinedName, diagnostics.PhaseResolve,
			source.Span{File: "main.p4", Line: 5, Column: 1}, "undefined name \"x\""),
	}

	recordedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordRun("run-1", "main.p4", recordedAt, diags); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	freq, err := s.CodeFrequency()
	if err != nil {
		t.Fatalf("CodeFrequency: %v", err)
	}
	if len(freq) != 2 {
		t.Fatalf("expected 2 distinct codes, got %v", freq)
	}
	if freq[0].Code != string(diagnostics.ECodeMatchKindLaw) || freq[0].Count != 2 {
		t.Errorf("expected E0001 to be the most frequent with count 2, got %+v", freq[0])
	}
}
