// Package parser is a hand-written recursive-descent parser from the
// token stream into an ast.Program. Expression parsing uses Pratt-style
// precedence climbing for the binary/bit-slice/mask operators.
package parser

import (
	"fmt"
	"math/big"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/config"
	"github.com/oxide-computer/x4c/internal/source"
	"github.com/oxide-computer/x4c/internal/token"
)

// Error is a parse-phase failure.
type Error struct {
	Span    source.Span
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Message) }

// precedence levels, lowest to highest.
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precRelational
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precMask
	precUnary
	precCall
	precIndex
)

var precedences = map[token.Kind]int{
	token.OrOr:    precOr,
	token.AndAnd:  precAnd,
	token.EqEq:    precEquality,
	token.NotEq:   precEquality,
	token.LAngle:  precRelational,
	token.RAngle:  precRelational,
	token.LtEq:    precRelational,
	token.GtEq:    precRelational,
	token.Pipe:    precBitOr,
	token.Caret:   precBitXor,
	token.Amp:     precBitAnd,
	token.Shl:     precShift,
	token.Shr:     precShift,
	token.Plus:    precAdditive,
	token.Minus:   precAdditive,
	token.TripAmp: precMask,
	token.LParen:  precCall,
	token.LBracket: precIndex,
	token.Dot:     precIndex,
}

// Parser consumes a fixed token slice and produces an ast.Program.
type Parser struct {
	toks []token.Token
	pos  int
	errs []*Error
}

func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peek(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur().Kind != k {
		p.errorf("expected %s, found %s %q", k, p.cur().Kind, p.cur().Lexeme)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, &Error{Span: p.cur().Span, Message: fmt.Sprintf(format, args...)})
}

// synchronize skips tokens until a likely declaration boundary, so one
// malformed top-level declaration does not cascade into spurious errors
// for the rest of the file.
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.at(token.Semi) {
			p.advance()
			return
		}
		if p.at(token.RBrace) {
			p.advance()
			return
		}
		switch p.cur().Kind {
		case token.KwConst, token.KwHeader, token.KwStruct, token.KwTypedef,
			token.KwExtern, token.KwParser, token.KwControl, token.KwPackage,
			token.KwError:
			return
		}
		p.advance()
	}
}

// Parse parses the entire token stream into a Program.
func (p *Parser) Parse() (*ast.Program, []*Error) {
	start := p.cur().Span
	prog := &ast.Program{SourceSpan: start}
	for !p.at(token.EOF) {
		before := p.pos
		decl := p.parseDeclaration()
		if decl != nil {
			prog.Declarations = append(prog.Declarations, decl)
		}
		if p.pos == before {
			// parseDeclaration made no progress; avoid an infinite loop.
			p.advance()
		}
	}
	return prog, p.errs
}

func (p *Parser) parseDeclaration() ast.Declaration {
	switch p.cur().Kind {
	case token.KwConst:
		return p.parseConstDecl()
	case token.KwHeader:
		return p.parseHeaderTypeDecl()
	case token.KwStruct:
		return p.parseStructTypeDecl()
	case token.KwTypedef:
		return p.parseTypedefDecl()
	case token.KwError:
		return p.parseErrorDecl()
	case token.KwExtern:
		return p.parseExternDecl()
	case token.KwParser:
		return p.parseParserDecl()
	case token.KwControl:
		return p.parseControlDecl()
	case token.KwPackage:
		return p.parsePackageTypeDecl()
	case token.KwAction:
		return p.parseActionDecl()
	case token.Ident:
		// Ambiguous between a package instantiation ("pipe(...) main;")
		// and, inside a control/parser body, other constructs — at top
		// level the only Ident-led declaration is an instantiation.
		return p.parsePackageInstantiation()
	default:
		p.errorf("unexpected token %s %q at top level", p.cur().Kind, p.cur().Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseConstDecl() ast.Declaration {
	start := p.expect(token.KwConst).Span
	typ := p.parseTypeExpr()
	name := p.expect(token.Ident).Lexeme
	p.expect(token.Assign)
	val := p.parseExpression(precLowest)
	p.expect(token.Semi)
	return &ast.ConstDecl{SourceSpan: start, Type: typ, Name: name, Value: val}
}

func (p *Parser) parseFieldList() []*ast.FieldDecl {
	p.expect(token.LBrace)
	var fields []*ast.FieldDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fspan := p.cur().Span
		ftype := p.parseTypeExpr()
		fname := p.expect(token.Ident).Lexeme
		p.expect(token.Semi)
		fields = append(fields, &ast.FieldDecl{SourceSpan: fspan, Type: ftype, Name: fname})
	}
	p.expect(token.RBrace)
	return fields
}

func (p *Parser) parseHeaderTypeDecl() ast.Declaration {
	start := p.expect(token.KwHeader).Span
	name := p.expect(token.Ident).Lexeme
	fields := p.parseFieldList()
	return &ast.HeaderTypeDecl{SourceSpan: start, Name: name, Fields: fields}
}

func (p *Parser) parseStructTypeDecl() ast.Declaration {
	start := p.expect(token.KwStruct).Span
	name := p.expect(token.Ident).Lexeme
	fields := p.parseFieldList()
	return &ast.StructTypeDecl{SourceSpan: start, Name: name, Fields: fields}
}

func (p *Parser) parseTypedefDecl() ast.Declaration {
	start := p.expect(token.KwTypedef).Span
	typ := p.parseTypeExpr()
	name := p.expect(token.Ident).Lexeme
	p.expect(token.Semi)
	return &ast.TypedefDecl{SourceSpan: start, Type: typ, Name: name}
}

func (p *Parser) parseErrorDecl() ast.Declaration {
	start := p.expect(token.KwError).Span
	p.expect(token.LBrace)
	var members []string
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		members = append(members, p.expect(token.Ident).Lexeme)
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RBrace)
	return &ast.ErrorDecl{SourceSpan: start, Members: members}
}

func (p *Parser) parseExternDecl() ast.Declaration {
	start := p.expect(token.KwExtern).Span
	// extern <ret> <name>(params); form vs. extern <name> { methods }.
	// Disambiguate by lookahead: if the second token is '(' it's a
	// function prototype with an implicit void-like leading type already
	// consumed as the name; otherwise treat the first ident as the name
	// and look for '{'.
	firstName := p.expect(token.Ident).Lexeme
	if p.at(token.LParen) {
		params := p.parseParamList()
		p.expect(token.Semi)
		return &ast.ExternDecl{SourceSpan: start, Name: firstName, IsFunction: true, ReturnType: &ast.VoidTypeExpr{}, Params: params}
	}
	if p.at(token.Ident) && p.peek(1).Kind == token.LParen {
		retType := &ast.NamedTypeExpr{SourceSpan: start, Name: firstName}
		name := p.expect(token.Ident).Lexeme
		params := p.parseParamList()
		p.expect(token.Semi)
		return &ast.ExternDecl{SourceSpan: start, Name: name, IsFunction: true, ReturnType: retType, Params: params}
	}

	name := firstName
	var typeParams []string
	if p.at(token.LAngle) {
		p.advance()
		for !p.at(token.RAngle) && !p.at(token.EOF) {
			typeParams = append(typeParams, p.expect(token.Ident).Lexeme)
			if p.at(token.Comma) {
				p.advance()
			}
		}
		p.expect(token.RAngle)
	}
	p.expect(token.LBrace)
	var methods []*ast.MethodProto
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		mspan := p.cur().Span
		var ret ast.TypeExpr = &ast.VoidTypeExpr{SourceSpan: mspan}
		if !(p.at(token.Ident) && p.peek(1).Kind == token.LParen) {
			ret = p.parseTypeExpr()
		}
		mname := p.expect(token.Ident).Lexeme
		params := p.parseParamList()
		p.expect(token.Semi)
		methods = append(methods, &ast.MethodProto{SourceSpan: mspan, Name: mname, ReturnType: ret, Params: params})
	}
	p.expect(token.RBrace)
	return &ast.ExternDecl{SourceSpan: start, Name: name, TypeParams: typeParams, Methods: methods}
}

func (p *Parser) parseParamList() []*ast.ParamDecl {
	p.expect(token.LParen)
	var params []*ast.ParamDecl
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pspan := p.cur().Span
		dir := ast.DirNone
		switch p.cur().Kind {
		case token.KwIn:
			p.advance()
			dir = ast.DirIn
		case token.KwOut:
			p.advance()
			dir = ast.DirOut
		case token.KwInout:
			p.advance()
			dir = ast.DirInout
		}
		typ := p.parseTypeExpr()
		name := p.expect(token.Ident).Lexeme
		params = append(params, &ast.ParamDecl{SourceSpan: pspan, Direction: dir, Type: typ, Name: name})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseParserDecl() ast.Declaration {
	start := p.expect(token.KwParser).Span
	name := p.expect(token.Ident).Lexeme
	params := p.parseParamList()
	p.expect(token.LBrace)
	var states []*ast.StateDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		states = append(states, p.parseStateDecl())
	}
	p.expect(token.RBrace)
	return &ast.ParserDecl{SourceSpan: start, Name: name, Params: params, States: states}
}

func (p *Parser) parseStateDecl() *ast.StateDecl {
	start := p.expect(token.KwState).Span
	name := p.expect(token.Ident).Lexeme
	p.expect(token.LBrace)
	var stmts []ast.Statement
	var transition ast.TransitionStmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.KwTransition) {
			transition = p.parseTransition()
			// A select transition ends at its closing '}'; a trailing ';'
			// after it is accepted but not required.
			if _, isSelect := transition.(*ast.SelectTransition); !isSelect || p.at(token.Semi) {
				p.expect(token.Semi)
			}
			continue
		}
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RBrace)
	return &ast.StateDecl{SourceSpan: start, Name: name, Statements: stmts, Transition: transition}
}

func (p *Parser) parseTransition() ast.TransitionStmt {
	start := p.expect(token.KwTransition).Span
	if p.at(token.KwSelect) {
		p.advance()
		p.expect(token.LParen)
		var exprs []ast.Expression
		exprs = append(exprs, p.parseExpression(precLowest))
		for p.at(token.Comma) {
			p.advance()
			exprs = append(exprs, p.parseExpression(precLowest))
		}
		p.expect(token.RParen)
		p.expect(token.LBrace)
		var cases []*ast.SelectCase
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			cases = append(cases, p.parseSelectCase())
		}
		p.expect(token.RBrace)
		return &ast.SelectTransition{SourceSpan: start, Exprs: exprs, Cases: cases}
	}
	name := p.parseStateTarget()
	return &ast.DirectTransition{SourceSpan: start, Target: name}
}

func (p *Parser) parseStateTarget() string {
	switch p.cur().Kind {
	case token.KwAccept:
		p.advance()
		return "accept"
	case token.KwReject:
		p.advance()
		return "reject"
	default:
		return p.expect(token.Ident).Lexeme
	}
}

func (p *Parser) parseSelectCase() *ast.SelectCase {
	start := p.cur().Span
	var pats []ast.Pattern
	pats = append(pats, p.parsePattern())
	for p.at(token.Comma) {
		p.advance()
		pats = append(pats, p.parsePattern())
	}
	p.expect(token.Colon)
	target := p.parseStateTarget()
	p.expect(token.Semi)
	return &ast.SelectCase{SourceSpan: start, Patterns: pats, Target: target}
}

func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur().Span
	if p.at(token.Underscore) {
		p.advance()
		return &ast.WildcardPattern{SourceSpan: start}
	}
	val := p.parseExpression(precMask + 1)
	if p.at(token.TripAmp) {
		p.advance()
		mask := p.parseExpression(precMask + 1)
		return &ast.MaskPattern{SourceSpan: start, Value: val, Mask: mask}
	}
	if p.at(token.DotDot) {
		p.advance()
		hi := p.parseExpression(precMask + 1)
		return &ast.RangePattern{SourceSpan: start, Lo: val, Hi: hi}
	}
	return &ast.ExactPattern{SourceSpan: start, Value: val}
}

func (p *Parser) parseControlDecl() ast.Declaration {
	start := p.expect(token.KwControl).Span
	name := p.expect(token.Ident).Lexeme
	params := p.parseParamList()
	p.expect(token.LBrace)
	cd := &ast.ControlDecl{SourceSpan: start, Name: name, Params: params}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KwTable:
			cd.Tables = append(cd.Tables, p.parseTableDecl())
		case token.KwAction:
			cd.Actions = append(cd.Actions, p.parseActionDecl())
		case token.KwApply:
			cd.Apply = p.parseApplyBlock()
		case token.KwConst:
			cd.Locals = append(cd.Locals, p.parseConstDecl())
		default:
			// local variable declaration: <type> <name>[= expr];
			if local := p.tryParseLocalVarAsDecl(); local != nil {
				cd.Locals = append(cd.Locals, local)
				continue
			}
			p.errorf("unexpected token %s %q in control body", p.cur().Kind, p.cur().Lexeme)
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return cd
}

// tryParseLocalVarAsDecl wraps a local variable declaration as a
// Declaration so it can sit alongside tables/actions in ControlDecl.Locals
// without a separate list; it is represented with ConstDecl's shape for
// simplicity since both are "<type> <name> = <expr>;".
func (p *Parser) tryParseLocalVarAsDecl() ast.Declaration {
	start := p.cur().Span
	typ := p.parseTypeExpr()
	if !p.at(token.Ident) {
		p.errorf("expected identifier after type in local declaration")
		return nil
	}
	name := p.expect(token.Ident).Lexeme
	var val ast.Expression
	if p.at(token.Assign) {
		p.advance()
		val = p.parseExpression(precLowest)
	}
	p.expect(token.Semi)
	return &ast.ConstDecl{SourceSpan: start, Type: typ, Name: name, Value: val}
}

func (p *Parser) parseActionDecl() *ast.ActionDecl {
	start := p.expect(token.KwAction).Span
	name := p.expect(token.Ident).Lexeme
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.ActionDecl{SourceSpan: start, Name: name, Params: params, Body: body}
}

func (p *Parser) parseTableDecl() *ast.TableDecl {
	start := p.expect(token.KwTable).Span
	name := p.expect(token.Ident).Lexeme
	p.expect(token.LBrace)
	td := &ast.TableDecl{SourceSpan: start, Name: name}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KwKey:
			p.advance()
			p.expect(token.Assign)
			p.expect(token.LBrace)
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				kspan := p.cur().Span
				expr := p.parseExpression(precLowest)
				p.expect(token.Colon)
				kindName := p.expect(token.Ident).Lexeme
				p.expect(token.Semi)
				kind := ast.MatchKind(kindName)
				if !config.IsMatchKind(kindName) {
					p.errorf("%q is not a recognized match kind", kindName)
				}
				td.Keys = append(td.Keys, &ast.KeyElement{SourceSpan: kspan, Expr: expr, Kind: kind})
			}
			p.expect(token.RBrace)
		case token.KwActions:
			p.advance()
			p.expect(token.Assign)
			p.expect(token.LBrace)
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				td.Actions = append(td.Actions, p.parseActionRef())
				p.expect(token.Semi)
			}
			p.expect(token.RBrace)
		case token.KwDefaultAction:
			p.advance()
			p.expect(token.Assign)
			td.DefaultAction = p.parseActionRef()
			p.expect(token.Semi)
		case token.KwConst:
			p.advance()
			p.expect(token.KwEntries)
			p.expect(token.Assign)
			p.expect(token.LBrace)
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				td.Entries = append(td.Entries, p.parseTableEntry())
			}
			p.expect(token.RBrace)
		case token.KwSize:
			p.advance()
			p.expect(token.Assign)
			td.Size = p.parseExpression(precLowest)
			p.expect(token.Semi)
		default:
			p.errorf("unexpected token %s %q in table body", p.cur().Kind, p.cur().Lexeme)
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return td
}

func (p *Parser) parseActionRef() *ast.ActionRef {
	start := p.cur().Span
	name := p.expect(token.Ident).Lexeme
	var args []ast.Expression
	if p.at(token.LParen) {
		p.advance()
		for !p.at(token.RParen) && !p.at(token.EOF) {
			args = append(args, p.parseExpression(precLowest))
			if p.at(token.Comma) {
				p.advance()
			}
		}
		p.expect(token.RParen)
	}
	return &ast.ActionRef{SourceSpan: start, Name: name, Args: args}
}

func (p *Parser) parseTableEntry() *ast.TableEntry {
	start := p.cur().Span
	p.expect(token.LParen)
	var keys []ast.Pattern
	for !p.at(token.RParen) && !p.at(token.EOF) {
		keys = append(keys, p.parsePattern())
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RParen)
	p.expect(token.Colon)
	action := p.parseActionRef()
	p.expect(token.Semi)
	return &ast.TableEntry{SourceSpan: start, Keys: keys, Action: action}
}

func (p *Parser) parseApplyBlock() *ast.BlockStmt {
	p.expect(token.KwApply)
	return p.parseBlock()
}

func (p *Parser) parsePackageTypeDecl() ast.Declaration {
	start := p.expect(token.KwPackage).Span
	name := p.expect(token.Ident).Lexeme
	params := p.parseParamList()
	p.expect(token.Semi)
	return &ast.PackageTypeDecl{SourceSpan: start, Name: name, Params: params}
}

func (p *Parser) parsePackageInstantiation() ast.Declaration {
	start := p.cur().Span
	pkgName := p.expect(token.Ident).Lexeme
	p.expect(token.LParen)
	var args []ast.Expression
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpression(precLowest))
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RParen)
	instName := p.expect(token.Ident).Lexeme
	p.expect(token.Semi)
	return &ast.PackageInstantiation{SourceSpan: start, PackageName: pkgName, Args: args, InstanceName: instName}
}

// ---- Statements ---------------------------------------------------------

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBrace).Span
	var stmts []ast.Statement
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RBrace)
	return &ast.BlockStmt{SourceSpan: start, Statements: stmts}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIfStmt()
	case token.KwReturn:
		start := p.advance().Span
		p.expect(token.Semi)
		return &ast.ReturnStmt{SourceSpan: start}
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseIfStmt() ast.Statement {
	start := p.expect(token.KwIf).Span
	p.expect(token.LParen)
	cond := p.parseExpression(precLowest)
	p.expect(token.RParen)
	then := p.parseStatement()
	var els ast.Statement
	if p.at(token.KwElse) {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.IfStmt{SourceSpan: start, Cond: cond, Then: then, Else: els}
}

// parseSimpleStatement covers extract-calls, apply-calls, assignments,
// local variable declarations, and bare expression-call statements — all
// of which begin with an identifier or a type name and are disambiguated
// by what follows.
func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.cur().Span

	if p.at(token.Ident) && p.peek(1).Kind == token.Dot &&
		p.peek(2).Kind == token.Ident && p.peek(2).Lexeme == "extract" {
		pktVar := p.expect(token.Ident).Lexeme
		p.expect(token.Dot)
		p.expect(token.Ident) // "extract"
		p.expect(token.LParen)
		hdr := p.parseExpression(precLowest)
		p.expect(token.RParen)
		p.expect(token.Semi)
		return &ast.ExtractStmt{SourceSpan: start, PacketVar: pktVar, Header: hdr}
	}

	if p.at(token.Ident) && p.peek(1).Kind == token.Dot {
		// could be `<target>.apply();` or a member-call expression statement
		save := p.pos
		target := p.expect(token.Ident).Lexeme
		if p.at(token.Dot) && p.peek(1).Kind == token.KwApply &&
			p.peek(2).Kind == token.LParen {
			p.expect(token.Dot)
			p.expect(token.KwApply)
			p.expect(token.LParen)
			p.expect(token.RParen)
			p.expect(token.Semi)
			return &ast.ApplyStmt{SourceSpan: start, Target: target}
		}
		p.pos = save
	}

	if p.looksLikeTypeStart() {
		save := p.pos
		typ := p.parseTypeExpr()
		if p.at(token.Ident) {
			name := p.advance().Lexeme
			var val ast.Expression
			if p.at(token.Assign) {
				p.advance()
				val = p.parseExpression(precLowest)
			}
			p.expect(token.Semi)
			return &ast.VarDeclStmt{SourceSpan: start, Type: typ, Name: name, Init: val}
		}
		p.pos = save
	}

	expr := p.parseExpression(precLowest)
	if p.at(token.Assign) {
		p.advance()
		rhs := p.parseExpression(precLowest)
		p.expect(token.Semi)
		return &ast.AssignStmt{SourceSpan: start, LHS: expr, RHS: rhs}
	}
	p.expect(token.Semi)
	return &ast.ExprStmt{SourceSpan: start, X: expr}
}

// looksLikeTypeStart reports whether the current position begins a type
// expression rather than an expression — true for bit/int/varbit/bool and
// for a bare identifier only when immediately followed by another
// identifier (a declaration's name), which an expression never is.
func (p *Parser) looksLikeTypeStart() bool {
	switch p.cur().Kind {
	case token.KwBit, token.KwInt, token.KwVarbit, token.KwBool:
		return true
	case token.Ident:
		return p.peek(1).Kind == token.Ident
	}
	return false
}

// ---- Expressions (Pratt / precedence climbing) ---------------------------

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parsePrefix()
	for {
		prec, ok := precedences[p.cur().Kind]
		if !ok || prec < minPrec {
			break
		}
		switch p.cur().Kind {
		case token.LParen:
			left = p.parseCallExpr(left)
		case token.LBracket:
			left = p.parseIndexExpr(left)
		case token.Dot:
			left = p.parseMemberExpr(left)
		case token.TripAmp:
			start := p.advance().Span
			mask := p.parseExpression(prec + 1)
			left = &ast.MaskExpr{SourceSpan: start, Value: left, Mask: mask}
		default:
			op := p.advance()
			right := p.parseExpression(prec + 1)
			left = &ast.InfixExpr{SourceSpan: left.Span(), Op: string(op.Kind), Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur().Kind {
	case token.Bang, token.Minus:
		op := p.advance()
		x := p.parseExpression(precUnary)
		return &ast.PrefixExpr{SourceSpan: op.Span, Op: string(op.Kind), X: x}
	case token.LParen:
		p.advance()
		e := p.parseExpression(precLowest)
		p.expect(token.RParen)
		return e
	case token.IntLit:
		t := p.advance()
		return &ast.IntLiteral{SourceSpan: t.Span, Value: t.Literal, Width: t.Width}
	case token.KwTrue:
		t := p.advance()
		return &ast.BoolLiteral{SourceSpan: t.Span, Value: true}
	case token.KwFalse:
		t := p.advance()
		return &ast.BoolLiteral{SourceSpan: t.Span, Value: false}
	case token.StringLit:
		t := p.advance()
		return &ast.StringLiteral{SourceSpan: t.Span, Value: t.Literal.(string)}
	case token.Ident:
		t := p.advance()
		return &ast.Identifier{SourceSpan: t.Span, Name: t.Lexeme}
	default:
		t := p.cur()
		p.errorf("unexpected token %s %q in expression", t.Kind, t.Lexeme)
		p.advance()
		return &ast.Identifier{SourceSpan: t.Span, Name: "<error>"}
	}
}

func (p *Parser) parseCallExpr(callee ast.Expression) ast.Expression {
	start := p.expect(token.LParen).Span
	var args []ast.Expression
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpression(precLowest))
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RParen)
	return &ast.CallExpr{SourceSpan: start, Callee: callee, Args: args}
}

func (p *Parser) parseIndexExpr(x ast.Expression) ast.Expression {
	start := p.expect(token.LBracket).Span
	hi := p.parseExpression(precLowest)
	if p.at(token.Colon) {
		p.advance()
		lo := p.parseExpression(precLowest)
		p.expect(token.RBracket)
		return &ast.IndexExpr{SourceSpan: start, X: x, Hi: hi, Lo: lo}
	}
	p.expect(token.RBracket)
	return &ast.IndexExpr{SourceSpan: start, X: x, Hi: hi, Lo: hi}
}

func (p *Parser) parseMemberExpr(x ast.Expression) ast.Expression {
	start := p.expect(token.Dot).Span
	field := p.expect(token.Ident).Lexeme
	return &ast.MemberExpr{SourceSpan: start, X: x, Field: field}
}

// ---- Types ---------------------------------------------------------------

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.KwBit:
		p.advance()
		width := p.parseTypeWidth()
		return &ast.BitTypeExpr{SourceSpan: start, Width: width}
	case token.KwInt:
		p.advance()
		if p.at(token.LAngle) {
			width := p.parseTypeWidth()
			return &ast.IntTypeExpr{SourceSpan: start, Width: width}
		}
		return &ast.IntTypeExpr{SourceSpan: start, Width: &ast.IntLiteral{SourceSpan: start, Value: int64(32)}}
	case token.KwVarbit:
		p.advance()
		width := p.parseTypeWidth()
		return &ast.VarbitTypeExpr{SourceSpan: start, MaxWidth: width}
	case token.KwBool:
		p.advance()
		return &ast.BoolTypeExpr{SourceSpan: start}
	case token.KwVoid:
		p.advance()
		return &ast.VoidTypeExpr{SourceSpan: start}
	case token.Ident:
		name := p.advance().Lexeme
		return &ast.NamedTypeExpr{SourceSpan: start, Name: name}
	default:
		p.errorf("expected a type, found %s %q", p.cur().Kind, p.cur().Lexeme)
		return &ast.NamedTypeExpr{SourceSpan: start, Name: "<error>"}
	}
}

func (p *Parser) parseTypeWidth() ast.Expression {
	p.expect(token.LAngle)
	// Parsed above relational precedence so the closing '>' ends the width.
	w := p.parseExpression(precRelational + 1)
	p.expect(token.RAngle)
	return w
}

// IntLiteralValue extracts an int result from an ast.IntLiteral's Value
// field, which may be int64 or *big.Int depending on the lexer's decode.
func IntLiteralValue(lit *ast.IntLiteral) (int64, bool) {
	switch v := lit.Value.(type) {
	case int64:
		return v, true
	case *big.Int:
		if v.IsInt64() {
			return v.Int64(), true
		}
		return 0, false
	default:
		return 0, false
	}
}
