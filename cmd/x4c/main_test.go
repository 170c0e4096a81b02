package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oxide-computer/x4c/internal/config"
)

func TestParseArgsBasicPositional(t *testing.T) {
	opts, err := parseArgs([]string{"main.p4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.rootFile != "main.p4" {
		t.Errorf("expected rootFile main.p4, got %q", opts.rootFile)
	}
	if opts.target != "" {
		t.Errorf("expected no target, got %q", opts.target)
	}
}

func TestParseArgsTargetAndFlags(t *testing.T) {
	opts, err := parseArgs([]string{"--check", "main.p4", "v1model"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.checkOnly {
		t.Errorf("expected checkOnly to be set")
	}
	if opts.target != "v1model" {
		t.Errorf("expected target v1model, got %q", opts.target)
	}
}

func TestParseArgsIncludeDirPrependsSearchOrder(t *testing.T) {
	opts, err := parseArgs([]string{"-Ifoo", "-I", "bar", "main.p4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.includeDirs) < 2 || opts.includeDirs[0] != "bar" || opts.includeDirs[1] != "foo" {
		t.Fatalf("expected [bar, foo, ...defaults], got %v", opts.includeDirs)
	}
	for _, d := range config.DefaultIncludeDirs {
		found := false
		for _, got := range opts.includeDirs {
			if got == d {
				found = true
			}
		}
		if !found {
			t.Errorf("expected default include dir %q to still be present", d)
		}
	}
}

func TestParseArgsOutPathRequiresValue(t *testing.T) {
	if _, err := parseArgs([]string{"-o"}); err == nil {
		t.Fatalf("expected an error when -o is missing its argument")
	}
}

func TestParseArgsHelpAndVersionSentinels(t *testing.T) {
	if _, err := parseArgs([]string{"--help"}); err != errShowHelp {
		t.Fatalf("expected errShowHelp, got %v", err)
	}
	if _, err := parseArgs([]string{"-V"}); err != errShowVersion {
		t.Fatalf("expected errShowVersion, got %v", err)
	}
}

func TestParseArgsMissingFilenameIsAnError(t *testing.T) {
	if _, err := parseArgs(nil); err == nil {
		t.Fatalf("expected an error when no filename is given")
	}
}

func TestParseArgsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseArgs([]string{"--nonsense", "main.p4"}); err == nil {
		t.Fatalf("expected an error for an unrecognized flag")
	}
}

func TestParseArgsShowFlags(t *testing.T) {
	opts, err := parseArgs([]string{"--show-pre", "--show-tokens", "--show-ast", "--show-hlir", "main.p4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.showPre || !opts.showTokens || !opts.showAST || !opts.showHLIR {
		t.Fatalf("expected all show-* flags to be set, got %+v", opts)
	}
}

func TestParseArgsDiagnosticsDB(t *testing.T) {
	opts, err := parseArgs([]string{"--diagnostics-db", "/tmp/hist.db", "main.p4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.diagDBPath != "/tmp/hist.db" {
		t.Errorf("expected diagDBPath /tmp/hist.db, got %q", opts.diagDBPath)
	}
}

func TestParseArgsDiagnosticsDBRequiresValue(t *testing.T) {
	if _, err := parseArgs([]string{"--diagnostics-db"}); err == nil {
		t.Fatalf("expected an error when --diagnostics-db is missing its argument")
	}
}

func TestRunRecordsDiagnosticsHistoryAndDiagnosticsHistoryReportsIt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.p4")
	if err := os.WriteFile(src, []byte(`
control c(bit<8> a, bit<8> b) {
	action drop() {}
	table t {
		key = { a : lpm; b : lpm; }
		actions = { drop; }
	}
	apply { t.apply(); }
}
package pipe(c x);
pipe(c) main;
`), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	dbPath := filepath.Join(dir, "history.db")

	if code := run([]string{"--check", "--diagnostics-db", dbPath, src}); code != 1 {
		t.Fatalf("expected run() to return 1 on a match-kind-law violation, got %d", code)
	}

	if code := runDiagnosticsHistory([]string{dbPath}); code != 0 {
		t.Fatalf("expected diagnostics-history to succeed, got %d", code)
	}
}
