package config

import (
	"testing"

	"github.com/oxide-computer/x4c/internal/ast"
)

func TestIsMatchKindRecognizesAllFourKinds(t *testing.T) {
	want := map[string]ast.MatchKind{
		"exact":   ast.MatchExact,
		"ternary": ast.MatchTernary,
		"lpm":     ast.MatchLPM,
		"range":   ast.MatchRange,
	}
	for name, kind := range want {
		if !IsMatchKind(name) {
			t.Errorf("expected %q to be a recognized match kind", name)
		}
		if MatchKinds[name] != kind {
			t.Errorf("MatchKinds[%q] = %v, want %v", name, MatchKinds[name], kind)
		}
	}
	if IsMatchKind("fuzzy") {
		t.Errorf("expected an unrecognized match-kind name to report false")
	}
}

func TestWellKnownStatesExcludesUserNames(t *testing.T) {
	if !WellKnownStates["accept"] || !WellKnownStates["reject"] {
		t.Errorf("expected accept/reject to be well-known states")
	}
	if WellKnownStates["parse_ipv4"] {
		t.Errorf("expected an ordinary state name to not be well-known")
	}
}
