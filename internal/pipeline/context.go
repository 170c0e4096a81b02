// Package pipeline wires the compiler phases (preprocess, lex, parse,
// resolve, check) into an ordered sequence of Processors sharing one
// mutable Context.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/diagnostics"
	"github.com/oxide-computer/x4c/internal/hlir"
	"github.com/oxide-computer/x4c/internal/source"
	"github.com/oxide-computer/x4c/internal/token"
)

// Context is the single piece of shared, mutable state threaded through
// every Processor. Each phase reads what it needs from earlier phases and
// sets its own fields; nothing in Context ever mutates the AST in place —
// elaboration results live in HLIR, keyed by node identity.
type Context struct {
	// RunID correlates every diagnostic and dump emitted by a single
	// invocation, including rows written to an optional diagnostics
	// history store.
	RunID uuid.UUID

	RootFile   string
	IncludeDirs []string

	Unit   *source.Unit
	Tokens []token.Token
	AST    *ast.Program
	HLIR   *hlir.Index

	Diags *diagnostics.Sink
}

// NewContext creates a Context for compiling rootFile, searching
// includeDirs for angle-bracket #includes.
func NewContext(rootFile string, includeDirs []string) *Context {
	return &Context{
		RunID:       uuid.New(),
		RootFile:    rootFile,
		IncludeDirs: includeDirs,
		Diags:       diagnostics.NewSink(),
	}
}

// Processor is one stage of the compilation pipeline.
type Processor interface {
	// Name identifies the stage for error attribution (the CLI names the
	// failing phase).
	Name() string
	// Process runs the stage against ctx, returning false if a fatal
	// diagnostic means later stages should not run.
	Process(ctx *Context) bool
}

// Pipeline runs an ordered sequence of Processors, short-circuiting as
// soon as a stage reports failure.
type Pipeline struct {
	stages []Processor
}

func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order against ctx. It returns the name of
// the last stage that ran and whether the pipeline completed without a
// fatal stage failure.
func (p *Pipeline) Run(ctx *Context) (lastStage string, ok bool) {
	for _, stage := range p.stages {
		lastStage = stage.Name()
		if !stage.Process(ctx) {
			return lastStage, false
		}
	}
	return lastStage, true
}
