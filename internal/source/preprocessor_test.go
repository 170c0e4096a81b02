package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestExpandPlainFile(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "const bit<8> X = 1;\n")

	pp := New()
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "const bit<8> X = 1;") {
		t.Fatalf("expected expanded text to contain source line, got %q", unit.Text)
	}
}

func TestExpandIncludeQuoted(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "defs.p4", "const bit<8> Y = 2;\n")
	root := writeTemp(t, dir, "main.p4", "#include \"defs.p4\"\nconst bit<8> X = 1;\n")

	pp := New()
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "Y = 2") || !strings.Contains(unit.Text, "X = 1") {
		t.Fatalf("expected both included and root content, got %q", unit.Text)
	}

	// The span for a rune inside the included file's content must report
	// the included file's name, not main.p4.
	idx := strings.Index(unit.Text, "Y = 2")
	span := unit.SpanAt(idx)
	if span.File != "defs.p4" {
		t.Fatalf("expected span.File == defs.p4, got %q", span.File)
	}
}

func TestIncludeCycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.p4", "#include \"b.p4\"\n")
	writeTemp(t, dir, "b.p4", "#include \"a.p4\"\n")
	root := filepath.Join(dir, "a.p4")

	pp := New()
	_, errs := pp.Expand(root)
	if len(errs) == 0 {
		t.Fatalf("expected an include-cycle error, got none")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "include cycle") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an include-cycle message, got %v", errs)
	}
}

func TestIncludeNotFound(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "#include \"missing.p4\"\n")

	pp := New()
	_, errs := pp.Expand(root)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if !strings.Contains(errs[0].Message, "not found") {
		t.Fatalf("expected a not-found message, got %q", errs[0].Message)
	}
}

func TestDefineSubstitution(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "#define WIDTH 32\nconst bit<WIDTH> X = 1;\n")

	pp := New()
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "bit<32>") {
		t.Fatalf("expected macro-substituted text, got %q", unit.Text)
	}
}

func TestDefineLineContinuation(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "#define MAXWIDTH 16 + \\\n16 + \\\n16\nconst bit<MAXWIDTH> X = 1;\n")

	pp := New()
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "bit<16 + 16 + 16>") {
		t.Fatalf("expected the continued lines to join into one macro body, got %q", unit.Text)
	}
	if strings.Contains(unit.Text, "\\") {
		t.Fatalf("expected no stray backslash in expanded output, got %q", unit.Text)
	}
}

func TestUndefStopsSubstitution(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "#define WIDTH 32\n#undef WIDTH\nconst bit<WIDTH> X = 1;\n")

	pp := New()
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "bit<WIDTH>") {
		t.Fatalf("expected WIDTH to remain unsubstituted after #undef, got %q", unit.Text)
	}
}

func TestRegisterVirtualInclude(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "main.p4", "#include <core.p4>\nconst bit<8> X = 1;\n")

	pp := New()
	pp.RegisterVirtual("core.p4", "action NoAction() {}\n")
	unit, errs := pp.Expand(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !strings.Contains(unit.Text, "NoAction") {
		t.Fatalf("expected virtual include content, got %q", unit.Text)
	}
}
