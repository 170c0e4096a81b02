package corep4

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSourceContainsExpectedDeclarations(t *testing.T) {
	src, err := Source()
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	for _, want := range []string{"packet_in", "packet_out", "NoAction", "error"} {
		if !strings.Contains(src, want) {
			t.Errorf("expected embedded core.p4 to mention %q", want)
		}
	}
}

func TestFSServesTheSameFile(t *testing.T) {
	b, err := fs.ReadFile(FS(), Name)
	if err != nil {
		t.Fatalf("fs.ReadFile(FS(), %q): %v", Name, err)
	}
	src, _ := Source()
	if string(b) != src {
		t.Errorf("expected FS() to serve identical content to Source()")
	}
}
