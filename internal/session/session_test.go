package session

import "testing"

func TestNewRunIDIsUniqueAndRoundTrips(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	if a == b {
		t.Fatalf("expected two successive run IDs to differ, got %s twice", a)
	}

	parsed, err := ParseRunID(a.String())
	if err != nil {
		t.Fatalf("ParseRunID: %v", err)
	}
	if parsed != a {
		t.Fatalf("expected round-tripped ID to equal original, got %s want %s", parsed, a)
	}
}

func TestParseRunIDRejectsGarbage(t *testing.T) {
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Fatalf("expected an error parsing a malformed run ID")
	}
}
