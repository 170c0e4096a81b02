// Package checker runs the independent static rule groups over a
// resolved Program + hlir.Index: match-kind law, parser reachability,
// header/struct discipline, width/signedness, direction conformance, and
// package binding. Each group is its own pass so one failing group never
// suppresses diagnostics from another.
package checker

import (
	"fmt"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlir"
	"github.com/oxide-computer/x4c/internal/source"
)

// ErrorCode mirrors diagnostics.ErrorCode without importing that package,
// keeping checker free to run standalone (e.g. in tests) and letting the
// pipeline stage translate codes into diagnostics.Diagnostic values.
type ErrorCode string

const (
	CodeMatchKindLaw          ErrorCode = "E0001"
	CodeUnreachableState      ErrorCode = "E0501"
	CodeInvalidParserAssign   ErrorCode = "E0502"
	CodeHeaderDiscipline      ErrorCode = "E0503"
	CodeWidthMismatch         ErrorCode = "E0504"
	CodeSignednessMismatch    ErrorCode = "E0505"
	CodeDirectionViolation    ErrorCode = "E0506"
	CodePackageBindingError   ErrorCode = "E0507"
)

// Finding is one checker diagnostic, independent of the diagnostics
// package's richer rendering fields.
type Finding struct {
	Code    ErrorCode
	Span    source.Span
	Message string
}

func (f *Finding) Error() string { return fmt.Sprintf("%s: [%s] %s", f.Span, f.Code, f.Message) }

// Checker runs every rule group over one compilation unit.
type Checker struct {
	prog     *ast.Program
	idx      *hlir.Index
	findings []*Finding
}

func New(prog *ast.Program, idx *hlir.Index) *Checker {
	return &Checker{prog: prog, idx: idx}
}

// Check runs all rule groups and returns every Finding, in the order the
// groups ran (match-kind, reachability, parser-assignment,
// header/struct, width/signedness, direction, package-binding).
func (c *Checker) Check() []*Finding {
	c.checkMatchKindLaw()
	c.checkParserReachability()
	c.checkParserAssignmentDiscipline()
	c.checkHeaderStructDiscipline()
	c.checkWidthSignedness()
	c.checkDirectionConformance()
	c.checkPackageBinding()
	return c.findings
}

func (c *Checker) add(code ErrorCode, span source.Span, format string, args ...interface{}) {
	c.findings = append(c.findings, &Finding{Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// checkMatchKindLaw enforces E0001: a table may have at most one lpm key.
// ternary, range, and exact keys may each repeat freely, and lpm mixes
// freely with any of them — only a second lpm key is illegal.
func (c *Checker) checkMatchKindLaw() {
	for _, d := range c.prog.Declarations {
		ctrl, ok := d.(*ast.ControlDecl)
		if !ok {
			continue
		}
		for _, tbl := range ctrl.Tables {
			lpmCount := 0
			for _, k := range tbl.Keys {
				if k.Kind == ast.MatchLPM {
					lpmCount++
				}
			}
			if lpmCount > 1 {
				c.add(CodeMatchKindLaw, tbl.SourceSpan, "table %q has %d lpm keys; at most one is allowed", tbl.Name, lpmCount)
			}
		}
	}
}

// checkParserReachability flags states no transition ever reaches (other
// than the implicit start state, conventionally named "start").
func (c *Checker) checkParserReachability() {
	for _, d := range c.prog.Declarations {
		pd, ok := d.(*ast.ParserDecl)
		if !ok {
			continue
		}
		reached := map[*ast.StateDecl]bool{}
		var start *ast.StateDecl
		for _, s := range pd.States {
			if s.Name == "start" {
				start = s
			}
		}
		if start == nil && len(pd.States) > 0 {
			start = pd.States[0]
		}
		if start == nil {
			continue
		}
		var visit func(s *ast.StateDecl)
		visit = func(s *ast.StateDecl) {
			if reached[s] {
				return
			}
			reached[s] = true
			for _, next := range c.idx.ParserGraph[s] {
				visit(next)
			}
		}
		visit(start)
		for _, s := range pd.States {
			if !reached[s] {
				c.add(CodeUnreachableState, s.SourceSpan, "state %q is never reached by any transition", s.Name)
			}
		}
	}
}

// checkParserAssignmentDiscipline forbids assigning to a packet-in or
// packet-out parameter directly (only extract/emit method calls may
// touch them) — approximated here as: the name of a parser parameter
// typed packet_in or packet_out, whatever its direction, must never
// appear as an AssignStmt's LHS identifier.
func (c *Checker) checkParserAssignmentDiscipline() {
	for _, d := range c.prog.Declarations {
		pd, ok := d.(*ast.ParserDecl)
		if !ok {
			continue
		}
		packetParams := map[string]bool{}
		for _, p := range pd.Params {
			if t, ok := p.Type.(*ast.NamedTypeExpr); ok && (t.Name == "packet_in" || t.Name == "packet_out") {
				packetParams[p.Name] = true
			}
		}
		if len(packetParams) == 0 {
			continue
		}
		for _, s := range pd.States {
			for _, stmt := range s.Statements {
				if as, ok := stmt.(*ast.AssignStmt); ok {
					if id, ok := as.LHS.(*ast.Identifier); ok && packetParams[id.Name] {
						c.add(CodeInvalidParserAssign, as.SourceSpan, "cannot assign directly to packet parameter %q", id.Name)
					}
				}
			}
		}
	}
}

// checkHeaderStructDiscipline forbids a header or struct field from being
// declared void, and forbids duplicate field names within one header or
// struct.
func (c *Checker) checkHeaderStructDiscipline() {
	for _, d := range c.prog.Declarations {
		var span source.Span
		var name string
		var fields []*ast.FieldDecl
		switch decl := d.(type) {
		case *ast.HeaderTypeDecl:
			span, name, fields = decl.SourceSpan, decl.Name, decl.Fields
		case *ast.StructTypeDecl:
			span, name, fields = decl.SourceSpan, decl.Name, decl.Fields
		default:
			continue
		}
		seen := map[string]bool{}
		for _, f := range fields {
			if seen[f.Name] {
				c.add(CodeHeaderDiscipline, f.SourceSpan, "%q declares field %q more than once", name, f.Name)
			}
			seen[f.Name] = true
			if _, ok := f.Type.(*ast.VoidTypeExpr); ok {
				c.add(CodeHeaderDiscipline, f.SourceSpan, "%q: field %q cannot have type void", name, f.Name)
				_ = span
			}
		}
	}
}

// checkWidthSignedness flags infix arithmetic between two bit<N>/int<N>
// operands of differing width or signedness, both of which the language
// requires an explicit cast to reconcile, and a bit slice [hi:lo] with
// literal bounds where hi < lo.
func (c *Checker) checkWidthSignedness() {
	var walk func(e ast.Expression)
	walk = func(e ast.Expression) {
		if ix, ok := e.(*ast.IndexExpr); ok {
			hi, hiOK := ix.Hi.(*ast.IntLiteral)
			lo, loOK := ix.Lo.(*ast.IntLiteral)
			if hiOK && loOK {
				h, hOK := hi.Value.(int64)
				l, lOK := lo.Value.(int64)
				if hOK && lOK && h < l {
					c.add(CodeWidthMismatch, ix.SourceSpan, "malformed slice [%d:%d]: hi is less than lo", h, l)
				}
			}
			return
		}
		infix, ok := e.(*ast.InfixExpr)
		if !ok {
			return
		}
		walk(infix.Left)
		walk(infix.Right)
		if !isArithmeticOp(infix.Op) {
			return
		}
		lt := c.idx.TypeOf(infix.Left)
		rt := c.idx.TypeOf(infix.Right)
		if lt == nil || rt == nil || !lt.IsNumeric() || !rt.IsNumeric() {
			return
		}
		if lt.Signed() != rt.Signed() {
			c.add(CodeSignednessMismatch, infix.SourceSpan,
				"operands of %q have mismatched signedness (%s vs %s)", infix.Op, lt, rt)
			return
		}
		if lt.Width != rt.Width {
			c.add(CodeWidthMismatch, infix.SourceSpan,
				"operands of %q have mismatched width (%s vs %s)", infix.Op, lt, rt)
		}
	}

	var walkStmt func(s ast.Statement)
	walkStmt = func(s ast.Statement) {
		switch stmt := s.(type) {
		case *ast.BlockStmt:
			for _, st := range stmt.Statements {
				walkStmt(st)
			}
		case *ast.AssignStmt:
			walk(stmt.RHS)
		case *ast.VarDeclStmt:
			if stmt.Init != nil {
				walk(stmt.Init)
			}
		case *ast.IfStmt:
			walk(stmt.Cond)
			walkStmt(stmt.Then)
			if stmt.Else != nil {
				walkStmt(stmt.Else)
			}
		case *ast.ExprStmt:
			walk(stmt.X)
		}
	}

	for _, d := range c.prog.Declarations {
		ctrl, ok := d.(*ast.ControlDecl)
		if !ok {
			continue
		}
		for _, a := range ctrl.Actions {
			if a.Body != nil {
				for _, stmt := range a.Body.Statements {
					walkStmt(stmt)
				}
			}
		}
		if ctrl.Apply != nil {
			for _, stmt := range ctrl.Apply.Statements {
				walkStmt(stmt)
			}
		}
	}
}

func isArithmeticOp(op string) bool {
	switch op {
	case "+", "-", "&", "|", "^":
		return true
	}
	return false
}

// checkDirectionConformance forbids assigning to an `in`-direction
// parameter and forbids reading an `out`-direction parameter before any
// assignment reaches it (approximated as: any use of an out-only
// parameter as an RHS operand before the first assignment in source
// order within the same action body).
func (c *Checker) checkDirectionConformance() {
	for _, d := range c.prog.Declarations {
		ctrl, ok := d.(*ast.ControlDecl)
		if !ok {
			continue
		}
		for _, a := range ctrl.Actions {
			inParams := map[string]bool{}
			outParams := map[string]bool{}
			for _, p := range a.Params {
				switch p.Direction {
				case ast.DirIn:
					inParams[p.Name] = true
				case ast.DirOut:
					outParams[p.Name] = true
				}
			}
			if a.Body == nil {
				continue
			}
			assignedOut := map[string]bool{}
			var walkStmt func(s ast.Statement)
			var walkExpr func(e ast.Expression)
			walkExpr = func(e ast.Expression) {
				switch expr := e.(type) {
				case *ast.Identifier:
					if outParams[expr.Name] && !assignedOut[expr.Name] {
						c.add(CodeDirectionViolation, expr.SourceSpan, "out-parameter %q read before being assigned", expr.Name)
					}
				case *ast.InfixExpr:
					walkExpr(expr.Left)
					walkExpr(expr.Right)
				case *ast.PrefixExpr:
					walkExpr(expr.X)
				case *ast.CallExpr:
					walkExpr(expr.Callee)
					for _, arg := range expr.Args {
						walkExpr(arg)
					}
				case *ast.MemberExpr:
					walkExpr(expr.X)
				case *ast.IndexExpr:
					walkExpr(expr.X)
				}
			}
			walkStmt = func(s ast.Statement) {
				switch stmt := s.(type) {
				case *ast.BlockStmt:
					for _, st := range stmt.Statements {
						walkStmt(st)
					}
				case *ast.AssignStmt:
					if id, ok := stmt.LHS.(*ast.Identifier); ok {
						if inParams[id.Name] {
							c.add(CodeDirectionViolation, stmt.SourceSpan, "in-parameter %q cannot be assigned", id.Name)
						}
						if outParams[id.Name] {
							assignedOut[id.Name] = true
						}
					}
					walkExpr(stmt.RHS)
				case *ast.IfStmt:
					walkExpr(stmt.Cond)
					walkStmt(stmt.Then)
					if stmt.Else != nil {
						walkStmt(stmt.Else)
					}
				case *ast.ExprStmt:
					walkExpr(stmt.X)
				}
			}
			for _, stmt := range a.Body.Statements {
				walkStmt(stmt)
			}
		}
	}
}

// checkPackageBinding verifies a package instantiation's argument count
// matches the package type's declared parameter count, and that each
// argument's kind (parser, control, or plain value) matches the kind its
// parameter position declares. A package-type parameter declares a kind by
// naming an actual parser/control with its type, e.g. `package
// top(reachable r);` expects a control named like `reachable`; any other
// type expression is a plain value parameter. Width/type compatibility of
// value arguments is left to the resolver's elaboration (surfaced
// separately as undefined-name/type errors).
func (c *Checker) checkPackageBinding() {
	pkgTypes := map[string]*ast.PackageTypeDecl{}
	parsers := map[string]bool{}
	controls := map[string]bool{}
	for _, d := range c.prog.Declarations {
		switch decl := d.(type) {
		case *ast.PackageTypeDecl:
			pkgTypes[decl.Name] = decl
		case *ast.ParserDecl:
			parsers[decl.Name] = true
		case *ast.ControlDecl:
			controls[decl.Name] = true
		}
	}
	kindOf := func(name string) string {
		switch {
		case parsers[name]:
			return "parser"
		case controls[name]:
			return "control"
		default:
			return "value"
		}
	}
	paramSignature := func(p *ast.ParamDecl) (kind, signature string) {
		if named, ok := p.Type.(*ast.NamedTypeExpr); ok {
			switch {
			case parsers[named.Name]:
				return "parser", fmt.Sprintf("parser %s", named.Name)
			case controls[named.Name]:
				return "control", fmt.Sprintf("control %s", named.Name)
			}
		}
		return "value", "a value"
	}

	for _, d := range c.prog.Declarations {
		inst, ok := d.(*ast.PackageInstantiation)
		if !ok {
			continue
		}
		pt, ok := pkgTypes[inst.PackageName]
		if !ok {
			continue // resolver already reported the undefined package type
		}
		if len(inst.Args) != len(pt.Params) {
			c.add(CodePackageBindingError, inst.SourceSpan,
				"package %q instantiated with %d arguments, expected %d", inst.PackageName, len(inst.Args), len(pt.Params))
			continue
		}
		for i, arg := range inst.Args {
			id, ok := arg.(*ast.Identifier)
			if !ok {
				continue // a non-identifier argument is always a plain value
			}
			wantKind, wantSignature := paramSignature(pt.Params[i])
			gotKind := kindOf(id.Name)
			if gotKind != wantKind {
				c.add(CodePackageBindingError, inst.SourceSpan,
					"package %q argument %d expects %s, got %s %q", inst.PackageName, i+1, wantSignature, gotKind, id.Name)
			}
		}
	}
}
