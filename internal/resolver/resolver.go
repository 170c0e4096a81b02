// Package resolver performs the single scope/name-binding and
// type-elaboration pass over a parsed Program, producing an hlir.Index.
// It never mutates the AST; every result is recorded in the index, keyed
// by node identity.
package resolver

import (
	"fmt"
	"math/big"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlir"
	"github.com/oxide-computer/x4c/internal/hlirtypes"
	"github.com/oxide-computer/x4c/internal/source"
	"github.com/oxide-computer/x4c/internal/symbols"
)

// Error is a resolve-phase failure: an undefined name or type, or a
// duplicate declaration.
type Error struct {
	Span    source.Span
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Message) }

// Resolver walks a Program once, binding names against a scope chain and
// elaborating types into the Index.
type Resolver struct {
	idx    *hlir.Index
	global *symbols.Table
	errs   []*Error

	headerTypes map[string]*ast.HeaderTypeDecl
	structTypes map[string]*ast.StructTypeDecl
	typedefs    map[string]*ast.TypedefDecl
	parsers     map[string]*ast.ParserDecl
	controls    map[string]*ast.ControlDecl
	packages    map[string]*ast.PackageTypeDecl
}

func New() *Resolver {
	return &Resolver{
		idx:         hlir.NewIndex(),
		global:      symbols.New(),
		headerTypes: make(map[string]*ast.HeaderTypeDecl),
		structTypes: make(map[string]*ast.StructTypeDecl),
		typedefs:    make(map[string]*ast.TypedefDecl),
		parsers:     make(map[string]*ast.ParserDecl),
		controls:    make(map[string]*ast.ControlDecl),
		packages:    make(map[string]*ast.PackageTypeDecl),
	}
}

// Resolve elaborates prog, returning the populated Index and any errors.
func (r *Resolver) Resolve(prog *ast.Program) (*hlir.Index, []*Error) {
	r.collectTopLevel(prog)
	for _, d := range prog.Declarations {
		r.resolveDecl(d)
	}
	return r.idx, r.errs
}

func (r *Resolver) errorf(span source.Span, format string, args ...interface{}) {
	r.errs = append(r.errs, &Error{Span: span, Message: fmt.Sprintf(format, args...)})
}

// collectTopLevel does a first pass registering every named declaration
// in the global scope, so forward references (a control naming a header
// type declared later in the file) resolve correctly.
func (r *Resolver) collectTopLevel(prog *ast.Program) {
	for _, d := range prog.Declarations {
		switch decl := d.(type) {
		case *ast.HeaderTypeDecl:
			r.headerTypes[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymHeaderType, decl)
		case *ast.StructTypeDecl:
			r.structTypes[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymStructType, decl)
		case *ast.TypedefDecl:
			r.typedefs[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymTypedef, decl)
		case *ast.ExternDecl:
			r.defineGlobal(decl.Name, symbols.SymExtern, decl)
		case *ast.ParserDecl:
			r.parsers[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymParser, decl)
		case *ast.ControlDecl:
			r.controls[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymControl, decl)
		case *ast.PackageTypeDecl:
			r.packages[decl.Name] = decl
			r.defineGlobal(decl.Name, symbols.SymPackageType, decl)
		case *ast.ConstDecl:
			r.defineGlobal(decl.Name, symbols.SymConst, decl)
		case *ast.ErrorDecl:
			for _, m := range decl.Members {
				r.defineGlobal(m, symbols.SymErrorMember, decl)
			}
		}
	}
}

func (r *Resolver) defineGlobal(name string, kind symbols.SymbolKind, decl ast.Node) {
	sym := &symbols.Symbol{Name: name, Kind: kind, Decl: decl}
	if !r.global.Define(sym) {
		r.errorf(decl.Span(), "%q is already declared at this scope", name)
	}
}

func (r *Resolver) resolveDecl(d ast.Declaration) {
	switch decl := d.(type) {
	case *ast.ConstDecl:
		r.resolveConstDecl(decl, r.global)
	case *ast.HeaderTypeDecl:
		r.resolveHeaderType(decl)
	case *ast.StructTypeDecl:
		r.resolveStructType(decl)
	case *ast.TypedefDecl:
		t := r.elaborateType(decl.Type, r.global)
		r.idx.Types[decl] = t
	case *ast.ExternDecl:
		// extern signatures are elaborated lazily, at call sites, since
		// their parameter types may reference type parameters.
	case *ast.ParserDecl:
		r.resolveParser(decl)
	case *ast.ControlDecl:
		r.resolveControl(decl)
	case *ast.PackageTypeDecl:
		// nothing further to elaborate beyond its parameter list, which
		// is only consulted when matching against an instantiation.
	case *ast.PackageInstantiation:
		r.resolvePackageInstantiation(decl)
	case *ast.ErrorDecl:
		// members already registered in collectTopLevel
	}
}

func (r *Resolver) resolveConstDecl(decl *ast.ConstDecl, scope *symbols.Table) {
	t := r.elaborateType(decl.Type, scope)
	r.idx.Types[decl] = t
	if decl.Value != nil {
		r.resolveExpr(decl.Value, scope)
	}
}

func (r *Resolver) resolveHeaderType(decl *ast.HeaderTypeDecl) {
	fields := r.elaborateFields(decl.Fields, r.global)
	r.idx.Types[decl] = hlirtypes.Named(hlirtypes.KindHeader, decl.Name, fields)
}

func (r *Resolver) resolveStructType(decl *ast.StructTypeDecl) {
	fields := r.elaborateFields(decl.Fields, r.global)
	r.idx.Types[decl] = hlirtypes.Named(hlirtypes.KindStruct, decl.Name, fields)
}

func (r *Resolver) elaborateFields(fields []*ast.FieldDecl, scope *symbols.Table) []hlirtypes.Field {
	out := make([]hlirtypes.Field, 0, len(fields))
	for _, f := range fields {
		t := r.elaborateType(f.Type, scope)
		r.idx.Types[f] = t
		out = append(out, hlirtypes.Field{Name: f.Name, Type: t})
	}
	return out
}

// elaborateType converts a syntactic type expression into an
// hlirtypes.Type, resolving named references against headers, structs,
// typedefs (transparently unwrapped), externs, and the builtins error,
// packet_in and packet_out.
func (r *Resolver) elaborateType(te ast.TypeExpr, scope *symbols.Table) *hlirtypes.Type {
	switch t := te.(type) {
	case *ast.BitTypeExpr:
		w, _ := r.constIntValue(t.Width, scope)
		return hlirtypes.Bit(w)
	case *ast.IntTypeExpr:
		w, _ := r.constIntValue(t.Width, scope)
		return hlirtypes.Int(w)
	case *ast.VarbitTypeExpr:
		w, _ := r.constIntValue(t.MaxWidth, scope)
		return hlirtypes.Varbit(w)
	case *ast.BoolTypeExpr:
		return hlirtypes.Bool()
	case *ast.VoidTypeExpr:
		return hlirtypes.Void()
	case *ast.NamedTypeExpr:
		if h, ok := r.headerTypes[t.Name]; ok {
			if cached, ok := r.idx.Types[h]; ok {
				return cached
			}
			r.resolveHeaderType(h)
			return r.idx.Types[h]
		}
		if s, ok := r.structTypes[t.Name]; ok {
			if cached, ok := r.idx.Types[s]; ok {
				return cached
			}
			r.resolveStructType(s)
			return r.idx.Types[s]
		}
		if td, ok := r.typedefs[t.Name]; ok {
			return r.elaborateType(td.Type, scope)
		}
		if t.Name == "error" {
			return hlirtypes.ErrorType()
		}
		if sym, ok := scope.Lookup(t.Name); ok && sym.Kind == symbols.SymExtern {
			return hlirtypes.Named(hlirtypes.KindExtern, t.Name, nil)
		}
		if t.Name == "packet_in" || t.Name == "packet_out" {
			return hlirtypes.Named(hlirtypes.KindExtern, t.Name, nil)
		}
		r.errorf(t.SourceSpan, "undefined type %q", t.Name)
		return hlirtypes.Unknown()
	default:
		return hlirtypes.Unknown()
	}
}

// constIntValue evaluates a width expression that must be a compile-time
// integer constant (e.g. bit<N>'s N). Only literals and references to
// `const` declarations are supported, matching the language's
// compile-time-constant requirement for type widths.
func (r *Resolver) constIntValue(e ast.Expression, scope *symbols.Table) (int, bool) {
	switch x := e.(type) {
	case *ast.IntLiteral:
		switch v := x.Value.(type) {
		case int64:
			return int(v), true
		case *big.Int:
			return int(v.Int64()), true
		}
	case *ast.Identifier:
		if sym, ok := scope.Lookup(x.Name); ok && sym.Kind == symbols.SymConst {
			if cd, ok := sym.Decl.(*ast.ConstDecl); ok {
				return r.constIntValue(cd.Value, scope)
			}
		}
	}
	return 0, false
}

func (r *Resolver) resolveParser(decl *ast.ParserDecl) {
	scope := symbols.NewEnclosed(r.global)
	r.defineParams(decl.Params, scope)
	for _, s := range decl.States {
		sym := &symbols.Symbol{Name: s.Name, Kind: symbols.SymLocalVar, Decl: s}
		if !scope.Define(sym) {
			r.errorf(s.SourceSpan, "state %q is already declared", s.Name)
		}
	}
	stateByName := make(map[string]*ast.StateDecl, len(decl.States))
	for _, s := range decl.States {
		stateByName[s.Name] = s
	}
	for _, s := range decl.States {
		stateScope := symbols.NewEnclosed(scope)
		for _, stmt := range s.Statements {
			r.resolveStmt(stmt, stateScope)
		}
		r.idx.ParserGraph[s] = r.transitionTargets(s.Transition, stateByName, stateScope)
	}
}

func (r *Resolver) transitionTargets(t ast.TransitionStmt, states map[string]*ast.StateDecl, scope *symbols.Table) []*ast.StateDecl {
	switch tr := t.(type) {
	case *ast.DirectTransition:
		if s, ok := states[tr.Target]; ok {
			return []*ast.StateDecl{s}
		}
		return nil
	case *ast.SelectTransition:
		for _, e := range tr.Exprs {
			r.resolveExpr(e, scope)
		}
		var out []*ast.StateDecl
		for _, c := range tr.Cases {
			if s, ok := states[c.Target]; ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (r *Resolver) resolveControl(decl *ast.ControlDecl) {
	scope := symbols.NewEnclosed(r.global)
	r.defineParams(decl.Params, scope)

	for _, local := range decl.Locals {
		if cd, ok := local.(*ast.ConstDecl); ok {
			r.resolveConstDecl(cd, scope)
			sym := &symbols.Symbol{Name: cd.Name, Kind: symbols.SymLocalVar, Type: r.idx.Types[cd], Decl: cd}
			scope.Define(sym)
		}
	}

	var tableActions []*ast.ActionDecl
	actionByName := make(map[string]*ast.ActionDecl, len(decl.Actions))
	for _, a := range decl.Actions {
		actionScope := symbols.NewEnclosed(scope)
		r.defineParams(a.Params, actionScope)
		if a.Body != nil {
			for _, stmt := range a.Body.Statements {
				r.resolveStmt(stmt, actionScope)
			}
		}
		sym := &symbols.Symbol{Name: a.Name, Kind: symbols.SymAction, Decl: a}
		if !scope.Define(sym) {
			r.errorf(a.SourceSpan, "action %q is already declared", a.Name)
		}
		actionByName[a.Name] = a
	}

	for _, tbl := range decl.Tables {
		for _, k := range tbl.Keys {
			r.resolveExpr(k.Expr, scope)
		}
		tableActions = tableActions[:0]
		for _, ref := range tbl.Actions {
			if a, ok := actionByName[ref.Name]; ok {
				tableActions = append(tableActions, a)
				r.idx.Bindings[ref] = &symbols.Symbol{Name: a.Name, Kind: symbols.SymAction, Decl: a}
			} else {
				r.errorf(ref.SourceSpan, "table %q references undeclared action %q", tbl.Name, ref.Name)
			}
		}
		r.idx.TableActions[tbl] = append([]*ast.ActionDecl(nil), tableActions...)
		if tbl.DefaultAction != nil {
			if a, ok := actionByName[tbl.DefaultAction.Name]; ok {
				r.idx.Bindings[tbl.DefaultAction] = &symbols.Symbol{Name: a.Name, Kind: symbols.SymAction, Decl: a}
			} else {
				r.errorf(tbl.DefaultAction.SourceSpan, "default_action references undeclared action %q", tbl.DefaultAction.Name)
			}
		}
		for _, entry := range tbl.Entries {
			for _, k := range entry.Keys {
				r.resolvePattern(k, scope)
			}
		}
		sym := &symbols.Symbol{Name: tbl.Name, Kind: symbols.SymTable, Decl: tbl}
		if !scope.Define(sym) {
			r.errorf(tbl.SourceSpan, "table %q is already declared", tbl.Name)
		}
	}

	if decl.Apply != nil {
		applyScope := symbols.NewEnclosed(scope)
		for _, stmt := range decl.Apply.Statements {
			r.resolveStmt(stmt, applyScope)
		}
	}
}

func (r *Resolver) defineParams(params []*ast.ParamDecl, scope *symbols.Table) {
	for _, p := range params {
		t := r.elaborateType(p.Type, scope)
		r.idx.Types[p] = t
		sym := &symbols.Symbol{Name: p.Name, Kind: symbols.SymParam, Type: t, Decl: p}
		if !scope.Define(sym) {
			r.errorf(p.SourceSpan, "parameter %q is already declared", p.Name)
		}
	}
}

func (r *Resolver) resolveStmt(s ast.Statement, scope *symbols.Table) {
	switch stmt := s.(type) {
	case *ast.BlockStmt:
		inner := symbols.NewEnclosed(scope)
		for _, st := range stmt.Statements {
			r.resolveStmt(st, inner)
		}
	case *ast.AssignStmt:
		r.resolveExpr(stmt.LHS, scope)
		r.resolveExpr(stmt.RHS, scope)
	case *ast.VarDeclStmt:
		t := r.elaborateType(stmt.Type, scope)
		r.idx.Types[stmt] = t
		if stmt.Init != nil {
			r.resolveExpr(stmt.Init, scope)
		}
		sym := &symbols.Symbol{Name: stmt.Name, Kind: symbols.SymLocalVar, Type: t, Decl: stmt}
		if !scope.Define(sym) {
			r.errorf(stmt.SourceSpan, "%q is already declared in this scope", stmt.Name)
		}
	case *ast.IfStmt:
		r.resolveExpr(stmt.Cond, scope)
		r.resolveStmt(stmt.Then, scope)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else, scope)
		}
	case *ast.ApplyStmt:
		if _, ok := scope.Lookup(stmt.Target); !ok {
			r.errorf(stmt.SourceSpan, "undefined table %q", stmt.Target)
		}
	case *ast.ExprStmt:
		r.resolveExpr(stmt.X, scope)
	case *ast.ReturnStmt:
		// nothing to resolve
	case *ast.ExtractStmt:
		r.resolveExpr(stmt.Header, scope)
	}
}

func (r *Resolver) resolvePattern(p ast.Pattern, scope *symbols.Table) {
	switch pat := p.(type) {
	case *ast.ExactPattern:
		r.resolveExpr(pat.Value, scope)
	case *ast.MaskPattern:
		r.resolveExpr(pat.Value, scope)
		r.resolveExpr(pat.Mask, scope)
	case *ast.RangePattern:
		r.resolveExpr(pat.Lo, scope)
		r.resolveExpr(pat.Hi, scope)
	}
}

func (r *Resolver) resolveExpr(e ast.Expression, scope *symbols.Table) {
	switch expr := e.(type) {
	case *ast.Identifier:
		if sym, ok := scope.Lookup(expr.Name); ok {
			r.idx.Bindings[expr] = sym
			if sym.Type != nil {
				r.idx.Types[expr] = sym.Type
			}
		} else {
			r.errorf(expr.SourceSpan, "undefined name %q", expr.Name)
		}
	case *ast.IntLiteral:
		if expr.Width > 0 {
			r.idx.Types[expr] = hlirtypes.Bit(expr.Width)
		}
	case *ast.BoolLiteral:
		r.idx.Types[expr] = hlirtypes.Bool()
	case *ast.MemberExpr:
		r.resolveExpr(expr.X, scope)
		if xt := r.idx.Types[expr.X]; xt != nil {
			if ft, ok := xt.FieldByName(expr.Field); ok {
				r.idx.Types[expr] = ft
			}
		}
	case *ast.IndexExpr:
		r.resolveExpr(expr.X, scope)
		r.resolveExpr(expr.Hi, scope)
		if expr.Lo != expr.Hi {
			r.resolveExpr(expr.Lo, scope)
		}
	case *ast.CallExpr:
		r.resolveExpr(expr.Callee, scope)
		for _, a := range expr.Args {
			r.resolveExpr(a, scope)
		}
	case *ast.PrefixExpr:
		r.resolveExpr(expr.X, scope)
	case *ast.InfixExpr:
		r.resolveExpr(expr.Left, scope)
		r.resolveExpr(expr.Right, scope)
	case *ast.MaskExpr:
		r.resolveExpr(expr.Value, scope)
		r.resolveExpr(expr.Mask, scope)
	}
}

func (r *Resolver) resolvePackageInstantiation(decl *ast.PackageInstantiation) {
	path := symbols.RootInstancePath().Child(decl.InstanceName)
	r.idx.InstancePaths[decl] = path
	if _, ok := r.packages[decl.PackageName]; !ok {
		r.errorf(decl.SourceSpan, "undefined package type %q", decl.PackageName)
	}
	for _, arg := range decl.Args {
		r.resolveExpr(arg, r.global)
		if id, ok := arg.(*ast.Identifier); ok {
			if p, ok := r.parsers[id.Name]; ok {
				r.idx.InstancePaths[p] = path.Child(id.Name)
			} else if c, ok := r.controls[id.Name]; ok {
				r.idx.InstancePaths[c] = path.Child(id.Name)
			}
		}
	}
}
