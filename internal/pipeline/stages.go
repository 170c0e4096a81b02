package pipeline

import (
	"github.com/oxide-computer/x4c/internal/checker"
	"github.com/oxide-computer/x4c/internal/corep4"
	"github.com/oxide-computer/x4c/internal/diagnostics"
	"github.com/oxide-computer/x4c/internal/lexer"
	"github.com/oxide-computer/x4c/internal/parser"
	"github.com/oxide-computer/x4c/internal/resolver"
	"github.com/oxide-computer/x4c/internal/source"
)

// PreprocessStage expands #include/#define/#undef into a single Unit.
type PreprocessStage struct{}

func (PreprocessStage) Name() string { return "preprocess" }

func (PreprocessStage) Process(ctx *Context) bool {
	pp := source.New(ctx.IncludeDirs...)
	if coreSrc, err := corep4.Source(); err == nil {
		pp.RegisterVirtual(corep4.Name, coreSrc)
	}
	unit, errs := pp.Expand(ctx.RootFile)
	ctx.Unit = unit
	for _, e := range errs {
		ctx.Diags.Add(diagnostics.New(diagnostics.ECodeIncludeNotFound, diagnostics.PhasePreprocess, e.Span, e.Message))
	}
	return !ctx.Diags.HasErrors()
}

// LexStage tokenizes the preprocessed Unit.
type LexStage struct{}

func (LexStage) Name() string { return "lex" }

func (LexStage) Process(ctx *Context) bool {
	lx := lexer.New(ctx.Unit)
	toks, errs := lx.Tokenize()
	ctx.Tokens = toks
	for _, e := range errs {
		if e.Warning {
			ctx.Diags.Add(diagnostics.Warning(diagnostics.ECodeIntTruncation, diagnostics.PhaseLex, e.Span, e.Message))
			continue
		}
		ctx.Diags.Add(diagnostics.New(diagnostics.ECodeIllegalChar, diagnostics.PhaseLex, e.Span, e.Message))
	}
	return !ctx.Diags.HasErrors()
}

// ParseStage runs the recursive-descent parser over the token stream.
type ParseStage struct{}

func (ParseStage) Name() string { return "parse" }

func (ParseStage) Process(ctx *Context) bool {
	ps := parser.New(ctx.Tokens)
	prog, errs := ps.Parse()
	ctx.AST = prog
	for _, e := range errs {
		ctx.Diags.Add(diagnostics.New(diagnostics.ECodeUnexpectedToken, diagnostics.PhaseParse, e.Span, e.Message))
	}
	return !ctx.Diags.HasErrors()
}

// ResolveStage binds names, elaborates types, and builds the instance
// graph, producing the hlir.Index.
type ResolveStage struct{}

func (ResolveStage) Name() string { return "resolve" }

func (ResolveStage) Process(ctx *Context) bool {
	rs := resolver.New()
	idx, errs := rs.Resolve(ctx.AST)
	ctx.HLIR = idx
	for _, e := range errs {
		ctx.Diags.Add(diagnostics.New(diagnostics.ECodeUndefinedName, diagnostics.PhaseResolve, e.Span, e.Message))
	}
	return !ctx.Diags.HasErrors()
}

// CheckStage runs every independent static rule group over the resolved
// program. Every rule group runs and their findings are reported
// together, so a single run surfaces as many diagnostics as possible;
// like the earlier stages it reports failure when any error is present.
type CheckStage struct{}

func (CheckStage) Name() string { return "check" }

func (CheckStage) Process(ctx *Context) bool {
	ck := checker.New(ctx.AST, ctx.HLIR)
	findings := ck.Check()
	for _, f := range findings {
		ctx.Diags.Add(diagnostics.New(diagnostics.ErrorCode(f.Code), diagnostics.PhaseCheck, f.Span, f.Message))
	}
	return !ctx.Diags.HasErrors()
}

// Standard returns the canonical front-end pipeline: preprocess, lex,
// parse, resolve, check.
func Standard() *Pipeline {
	return New(PreprocessStage{}, LexStage{}, ParseStage{}, ResolveStage{}, CheckStage{})
}
