// Command x4c compiles P4 data-plane programs: preprocess, lex, parse,
// resolve, and check a source file, reporting diagnostics and optionally
// dumping intermediate phase output.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oxide-computer/x4c/internal/config"
	"github.com/oxide-computer/x4c/internal/diagnostics"
	"github.com/oxide-computer/x4c/internal/diagstore"
	"github.com/oxide-computer/x4c/internal/pipeline"
	"github.com/oxide-computer/x4c/internal/session"
)

const version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "x4c: internal error: %v\n", r)
			os.Exit(2)
		}
	}()
	os.Exit(run(os.Args[1:]))
}

type options struct {
	rootFile    string
	target      string
	checkOnly   bool
	outPath     string
	includeDirs []string
	showTokens  bool
	showAST     bool
	showPre     bool
	showHLIR    bool
	diagDBPath  string
}

func run(args []string) int {
	if len(args) >= 1 && args[0] == "diagnostics-history" {
		return runDiagnosticsHistory(args[1:])
	}

	opts, err := parseArgs(args)
	if err != nil {
		if err == errShowHelp {
			printHelp()
			return 0
		}
		if err == errShowVersion {
			fmt.Printf("x4c %s\n", version)
			return 0
		}
		fmt.Fprintf(os.Stderr, "x4c: %v\n", err)
		return 2
	}

	runID := session.NewRunID()

	ctx := pipeline.NewContext(opts.rootFile, opts.includeDirs)
	ctx.RunID = runID

	pl := pipeline.Standard()
	lastStage, ok := pl.Run(ctx)

	ctx.Diags.Sort()
	ctx.Diags.Render(os.Stderr, os.Stderr.Fd())

	if opts.diagDBPath != "" {
		if err := recordDiagnosticsHistory(opts.diagDBPath, runID.String(), opts.rootFile, ctx.Diags.Diagnostics()); err != nil {
			fmt.Fprintf(os.Stderr, "x4c: warning: %v\n", err)
		}
	}

	if opts.showPre && ctx.Unit != nil {
		fmt.Fprintf(os.Stdout, "--- preprocessed (run %s, %s) ---\n%s\n", runID, humanize.Bytes(uint64(len(ctx.Unit.Text))), ctx.Unit.Text)
	}
	if opts.showTokens && ctx.Tokens != nil {
		fmt.Fprintf(os.Stdout, "--- tokens (run %s, %s) ---\n", runID, humanize.Comma(int64(len(ctx.Tokens))))
		for _, t := range ctx.Tokens {
			fmt.Fprintf(os.Stdout, "%s\n", t)
		}
	}
	if opts.showAST && ctx.AST != nil {
		fmt.Fprintf(os.Stdout, "--- ast (run %s, %s declarations) ---\n", runID, humanize.Comma(int64(len(ctx.AST.Declarations))))
		for _, d := range ctx.AST.Declarations {
			fmt.Fprintf(os.Stdout, "%T @ %s\n", d, d.Span())
		}
	}
	if opts.showHLIR && ctx.HLIR != nil {
		fmt.Fprintf(os.Stdout, "--- hlir (run %s, %s bindings, %s types) ---\n",
			runID, humanize.Comma(int64(len(ctx.HLIR.Bindings))), humanize.Comma(int64(len(ctx.HLIR.Types))))
	}

	if !ok {
		fmt.Fprintf(os.Stderr, "x4c: compilation failed during %s phase (%d error(s))\n", lastStage, ctx.Diags.Count(diagnostics.SeverityError))
		return 1
	}

	if ctx.Diags.HasErrors() {
		return 1
	}

	if opts.checkOnly {
		return 0
	}

	if opts.outPath != "" {
		// The IR consumer contract (entry-point naming, big-endian
		// serialization) is defined in internal/irconsumer; emitting an
		// actual backend artifact is architecture-specific and left to a
		// target-specific driver built on top of this front end.
		fmt.Fprintf(os.Stderr, "x4c: front end succeeded; no backend is wired for target %q\n", opts.target)
	}

	return 0
}

// recordDiagnosticsHistory opens (or creates) the SQLite history file at
// path and appends one row per diagnostic from this run, tagged with
// runID. diagnostics-history reports each code's frequency across all
// recorded runs.
func recordDiagnosticsHistory(path, runID, rootFile string, diags []*diagnostics.Diagnostic) error {
	store, err := diagstore.Open(path)
	if err != nil {
		return fmt.Errorf("open diagnostics history: %w", err)
	}
	defer store.Close()
	if err := store.RecordRun(runID, rootFile, time.Now(), diags); err != nil {
		return fmt.Errorf("record diagnostics history: %w", err)
	}
	return nil
}

// runDiagnosticsHistory implements `x4c diagnostics-history <path>`: open
// the SQLite file a prior `--diagnostics-db` run wrote to and print the
// error codes it has seen, most frequent first.
func runDiagnosticsHistory(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: x4c diagnostics-history <path>")
		return 2
	}
	store, err := diagstore.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "x4c: %v\n", err)
		return 2
	}
	defer store.Close()

	history, err := store.CodeFrequency()
	if err != nil {
		fmt.Fprintf(os.Stderr, "x4c: %v\n", err)
		return 2
	}
	if len(history) == 0 {
		fmt.Println("no diagnostics recorded")
		return 0
	}
	for _, ch := range history {
		fmt.Printf("%-8s %d\n", ch.Code, ch.Count)
	}
	return 0
}

var (
	errShowHelp    = fmt.Errorf("show help")
	errShowVersion = fmt.Errorf("show version")
)

func parseArgs(args []string) (*options, error) {
	opts := &options{includeDirs: append([]string(nil), config.DefaultIncludeDirs...)}
	var positional []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-h" || a == "--help":
			return nil, errShowHelp
		case a == "-V" || a == "--version":
			return nil, errShowVersion
		case a == "--check":
			opts.checkOnly = true
		case a == "-o":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-o requires an argument")
			}
			opts.outPath = args[i]
		case strings.HasPrefix(a, "-I"):
			dir := strings.TrimPrefix(a, "-I")
			if dir == "" {
				i++
				if i >= len(args) {
					return nil, fmt.Errorf("-I requires an argument")
				}
				dir = args[i]
			}
			opts.includeDirs = append([]string{dir}, opts.includeDirs...)
		case a == "--show-tokens":
			opts.showTokens = true
		case a == "--show-ast":
			opts.showAST = true
		case a == "--show-pre":
			opts.showPre = true
		case a == "--show-hlir":
			opts.showHLIR = true
		case a == "--diagnostics-db":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--diagnostics-db requires an argument")
			}
			opts.diagDBPath = args[i]
		case strings.HasPrefix(a, "-"):
			return nil, fmt.Errorf("unrecognized flag %q", a)
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) < 1 {
		return nil, fmt.Errorf("missing <filename> argument")
	}
	opts.rootFile = positional[0]
	if len(positional) >= 2 {
		opts.target = positional[1]
	}
	if ext := filepath.Ext(opts.rootFile); ext != config.SourceExtension {
		fmt.Fprintf(os.Stderr, "x4c: warning: %s does not have the expected %s extension\n", opts.rootFile, config.SourceExtension)
	}
	return opts, nil
}

func printHelp() {
	fmt.Print(`x4c — P4 data-plane compiler front end

Usage:
  x4c <filename> [target] [flags]
  x4c diagnostics-history <path>

Flags:
  --check              run the front end only; report diagnostics, emit nothing
  -o <path>            write backend output to <path> (requires a wired target)
  -I <dir>             add <dir> to the #include search path (may repeat)
  --show-pre           dump the preprocessed source
  --show-tokens        dump the token stream
  --show-ast           dump the parsed declaration list
  --show-hlir          dump resolved binding/type counts
  --diagnostics-db <path>  append this run's diagnostics to a SQLite history file
  -h, --help           show this help text
  -V, --version        show the compiler version

diagnostics-history <path> opens a history file written by
--diagnostics-db and prints each error code's frequency across every
recorded run, most frequent first.

Exit codes:
  0  success
  1  compilation failed with diagnostics
  2  usage error or internal failure
`)
}
