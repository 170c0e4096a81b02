// Package ast defines the syntax tree produced by the parser. Every
// concrete node type implements Node and accepts a Visitor; nothing in
// this package mutates a node after construction — elaboration results
// live in the hlir side-table instead, keyed by node identity.
package ast

import "github.com/oxide-computer/x4c/internal/source"

// Node is the root interface implemented by every AST node.
type Node interface {
	Span() source.Span
	Accept(v Visitor)
}

// Declaration is a top-level construct: a constant, type, parser,
// control, extern, or package instantiation.
type Declaration interface {
	Node
	declNode()
}

// Statement appears inside a parser state, control apply block, or
// action body.
type Statement interface {
	Node
	stmtNode()
}

// Expression is any value-producing construct.
type Expression interface {
	Node
	exprNode()
}

// TypeExpr is a syntactic type reference (as opposed to an elaborated
// hlirtypes.Type, which the resolver produces).
type TypeExpr interface {
	Node
	typeNode()
}

// Pattern appears in a select-expression case or a table const-entry key.
type Pattern interface {
	Node
	patternNode()
}

// Program is the root node of a single compilation unit (after
// preprocessing, so it already reflects all #include expansion).
type Program struct {
	SourceSpan   source.Span
	Declarations []Declaration
}

func (p *Program) Span() source.Span { return p.SourceSpan }
func (p *Program) Accept(v Visitor)  { v.VisitProgram(p) }

// ---- Declarations ---------------------------------------------------

// ConstDecl is `const <type> <name> = <expr>;`.
type ConstDecl struct {
	SourceSpan source.Span
	Type       TypeExpr
	Name       string
	Value      Expression
}

func (d *ConstDecl) Span() source.Span { return d.SourceSpan }
func (d *ConstDecl) Accept(v Visitor)  { v.VisitConstDecl(d) }
func (d *ConstDecl) declNode()         {}

// HeaderTypeDecl is `header <name> { field...; }`.
type HeaderTypeDecl struct {
	SourceSpan source.Span
	Name       string
	Fields     []*FieldDecl
}

func (d *HeaderTypeDecl) Span() source.Span { return d.SourceSpan }
func (d *HeaderTypeDecl) Accept(v Visitor)  { v.VisitHeaderTypeDecl(d) }
func (d *HeaderTypeDecl) declNode()         {}

// StructTypeDecl is `struct <name> { field...; }`.
type StructTypeDecl struct {
	SourceSpan source.Span
	Name       string
	Fields     []*FieldDecl
}

func (d *StructTypeDecl) Span() source.Span { return d.SourceSpan }
func (d *StructTypeDecl) Accept(v Visitor)  { v.VisitStructTypeDecl(d) }
func (d *StructTypeDecl) declNode()         {}

// FieldDecl is a single `<type> <name>;` member of a header or struct.
type FieldDecl struct {
	SourceSpan source.Span
	Type       TypeExpr
	Name       string
}

func (d *FieldDecl) Span() source.Span { return d.SourceSpan }
func (d *FieldDecl) Accept(v Visitor)  { v.VisitFieldDecl(d) }

// TypedefDecl is `typedef <type> <name>;`.
type TypedefDecl struct {
	SourceSpan source.Span
	Type       TypeExpr
	Name       string
}

func (d *TypedefDecl) Span() source.Span { return d.SourceSpan }
func (d *TypedefDecl) Accept(v Visitor)  { v.VisitTypedefDecl(d) }
func (d *TypedefDecl) declNode()         {}

// ErrorDecl is `error { Ident, Ident, ... }`, additive across occurrences.
type ErrorDecl struct {
	SourceSpan source.Span
	Members    []string
}

func (d *ErrorDecl) Span() source.Span { return d.SourceSpan }
func (d *ErrorDecl) Accept(v Visitor)  { v.VisitErrorDecl(d) }
func (d *ErrorDecl) declNode()         {}

// ExternDecl is `extern <name> { method...; }` or a bare function prototype
// `extern <ret> <name>(params);`.
type ExternDecl struct {
	SourceSpan source.Span
	Name       string
	TypeParams []string
	Methods    []*MethodProto
	// IsFunction is true for a free-standing extern function rather than
	// an extern object with methods.
	IsFunction bool
	ReturnType TypeExpr
	Params     []*ParamDecl
}

func (d *ExternDecl) Span() source.Span { return d.SourceSpan }
func (d *ExternDecl) Accept(v Visitor)  { v.VisitExternDecl(d) }
func (d *ExternDecl) declNode()         {}

// MethodProto is one method signature inside an extern object.
type MethodProto struct {
	SourceSpan source.Span
	Name       string
	ReturnType TypeExpr
	Params     []*ParamDecl
}

func (d *MethodProto) Span() source.Span { return d.SourceSpan }
func (d *MethodProto) Accept(v Visitor)  { v.VisitMethodProto(d) }

// ParamDecl is one parameter of an action, control, parser, package type,
// or extern method, carrying its declared direction.
type ParamDecl struct {
	SourceSpan source.Span
	Direction  Direction
	Type       TypeExpr
	Name       string
}

func (d *ParamDecl) Span() source.Span { return d.SourceSpan }
func (d *ParamDecl) Accept(v Visitor)  { v.VisitParamDecl(d) }

// Direction is a parameter's declared direction.
type Direction int

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirInout
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInout:
		return "inout"
	default:
		return ""
	}
}

// ParserDecl is `parser <name>(params) { state...; }`.
type ParserDecl struct {
	SourceSpan source.Span
	Name       string
	Params     []*ParamDecl
	States     []*StateDecl
}

func (d *ParserDecl) Span() source.Span { return d.SourceSpan }
func (d *ParserDecl) Accept(v Visitor)  { v.VisitParserDecl(d) }
func (d *ParserDecl) declNode()         {}

// StateDecl is one `state <name> { stmt...; transition ...; }` block.
type StateDecl struct {
	SourceSpan source.Span
	Name       string
	Statements []Statement
	Transition TransitionStmt
}

func (d *StateDecl) Span() source.Span { return d.SourceSpan }
func (d *StateDecl) Accept(v Visitor)  { v.VisitStateDecl(d) }

// TransitionStmt is the terminal statement of a state: either a direct
// goto-state, a select expression, accept, or reject.
type TransitionStmt interface {
	Node
	transitionNode()
}

// DirectTransition is `transition <state>;`.
type DirectTransition struct {
	SourceSpan source.Span
	Target     string // "accept" and "reject" are well-known state names
}

func (t *DirectTransition) Span() source.Span { return t.SourceSpan }
func (t *DirectTransition) Accept(v Visitor)  { v.VisitDirectTransition(t) }
func (t *DirectTransition) transitionNode()   {}

// SelectTransition is `transition select(expr, ...) { case: state; ... }`.
type SelectTransition struct {
	SourceSpan source.Span
	Exprs      []Expression
	Cases      []*SelectCase
}

func (t *SelectTransition) Span() source.Span { return t.SourceSpan }
func (t *SelectTransition) Accept(v Visitor)  { v.VisitSelectTransition(t) }
func (t *SelectTransition) transitionNode()   {}

// SelectCase is one `pattern, pattern: state;` arm of a select transition.
type SelectCase struct {
	SourceSpan source.Span
	Patterns   []Pattern
	Target     string
}

func (c *SelectCase) Span() source.Span { return c.SourceSpan }
func (c *SelectCase) Accept(v Visitor)  { v.VisitSelectCase(c) }

// ControlDecl is `control <name>(params) { local-decl... table... action...
// apply { ... } }`.
type ControlDecl struct {
	SourceSpan source.Span
	Name       string
	Params     []*ParamDecl
	Tables     []*TableDecl
	Actions    []*ActionDecl
	Locals     []Declaration
	Apply      *BlockStmt
}

func (d *ControlDecl) Span() source.Span { return d.SourceSpan }
func (d *ControlDecl) Accept(v Visitor)  { v.VisitControlDecl(d) }
func (d *ControlDecl) declNode()         {}

// ActionDecl is `action <name>(params) { stmt...; }`.
type ActionDecl struct {
	SourceSpan source.Span
	Name       string
	Params     []*ParamDecl
	Body       *BlockStmt
}

func (d *ActionDecl) Span() source.Span { return d.SourceSpan }
func (d *ActionDecl) Accept(v Visitor)  { v.VisitActionDecl(d) }
func (d *ActionDecl) declNode()         {}

// TableDecl is a `table <name> { key = {...} actions = {...}
// default_action = ...; const entries = {...} size = N; }` block.
type TableDecl struct {
	SourceSpan     source.Span
	Name           string
	Keys           []*KeyElement
	Actions        []*ActionRef
	DefaultAction  *ActionRef
	Entries        []*TableEntry
	Size           Expression
}

func (d *TableDecl) Span() source.Span { return d.SourceSpan }
func (d *TableDecl) Accept(v Visitor)  { v.VisitTableDecl(d) }
func (d *TableDecl) declNode()         {}

// MatchKind names a table key's match semantics, enforced by the
// match-kind law (error E0001).
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchTernary MatchKind = "ternary"
	MatchLPM     MatchKind = "lpm"
	MatchRange   MatchKind = "range"
)

// KeyElement is one `expr : match_kind;` entry of a table's key block.
type KeyElement struct {
	SourceSpan source.Span
	Expr       Expression
	Kind       MatchKind
}

func (d *KeyElement) Span() source.Span { return d.SourceSpan }
func (d *KeyElement) Accept(v Visitor)  { v.VisitKeyElement(d) }

// ActionRef is a reference to an action by name in a table's actions list,
// default_action clause, or a const-entry's chosen action.
type ActionRef struct {
	SourceSpan source.Span
	Name       string
	Args       []Expression
}

func (d *ActionRef) Span() source.Span { return d.SourceSpan }
func (d *ActionRef) Accept(v Visitor)  { v.VisitActionRef(d) }

// TableEntry is one row of a `const entries = { ... }` block.
type TableEntry struct {
	SourceSpan source.Span
	Keys       []Pattern
	Action     *ActionRef
}

func (d *TableEntry) Span() source.Span { return d.SourceSpan }
func (d *TableEntry) Accept(v Visitor)  { v.VisitTableEntry(d) }

// PackageTypeDecl is `package <name>(params);` — the architecture's
// top-level shape declaration.
type PackageTypeDecl struct {
	SourceSpan source.Span
	Name       string
	Params     []*ParamDecl
}

func (d *PackageTypeDecl) Span() source.Span { return d.SourceSpan }
func (d *PackageTypeDecl) Accept(v Visitor)  { v.VisitPackageTypeDecl(d) }
func (d *PackageTypeDecl) declNode()         {}

// PackageInstantiation is `<pkg>(arg, ...) main;` — the single point where
// parser/control instances are wired into the architecture's pipeline.
type PackageInstantiation struct {
	SourceSpan source.Span
	PackageName string
	Args        []Expression
	InstanceName string
}

func (d *PackageInstantiation) Span() source.Span { return d.SourceSpan }
func (d *PackageInstantiation) Accept(v Visitor)  { v.VisitPackageInstantiation(d) }
func (d *PackageInstantiation) declNode()         {}

// ---- Statements -------------------------------------------------------

// BlockStmt is a `{ stmt...; }` sequence.
type BlockStmt struct {
	SourceSpan source.Span
	Statements []Statement
}

func (s *BlockStmt) Span() source.Span { return s.SourceSpan }
func (s *BlockStmt) Accept(v Visitor)  { v.VisitBlockStmt(s) }
func (s *BlockStmt) stmtNode()         {}

// AssignStmt is `lhs = rhs;`.
type AssignStmt struct {
	SourceSpan source.Span
	LHS        Expression
	RHS        Expression
}

func (s *AssignStmt) Span() source.Span { return s.SourceSpan }
func (s *AssignStmt) Accept(v Visitor)  { v.VisitAssignStmt(s) }
func (s *AssignStmt) stmtNode()         {}

// VarDeclStmt is a local `<type> <name> = <expr>;` inside a control's
// action or apply body.
type VarDeclStmt struct {
	SourceSpan source.Span
	Type       TypeExpr
	Name       string
	Init       Expression
}

func (s *VarDeclStmt) Span() source.Span { return s.SourceSpan }
func (s *VarDeclStmt) Accept(v Visitor)  { v.VisitVarDeclStmt(s) }
func (s *VarDeclStmt) stmtNode()         {}

// IfStmt is `if (cond) then-branch [else else-branch]`.
type IfStmt struct {
	SourceSpan source.Span
	Cond       Expression
	Then       Statement
	Else       Statement // nil if absent
}

func (s *IfStmt) Span() source.Span { return s.SourceSpan }
func (s *IfStmt) Accept(v Visitor)  { v.VisitIfStmt(s) }
func (s *IfStmt) stmtNode()         {}

// ApplyStmt is `<table-or-control>.apply();`. HitArm/MissArm can hold a
// hit/miss action-run switch; the parser does not produce one and leaves
// both nil.
type ApplyStmt struct {
	SourceSpan source.Span
	Target     string
	HitArm     Statement
	MissArm    Statement
}

func (s *ApplyStmt) Span() source.Span { return s.SourceSpan }
func (s *ApplyStmt) Accept(v Visitor)  { v.VisitApplyStmt(s) }
func (s *ApplyStmt) stmtNode()         {}

// ExprStmt wraps a bare expression used as a statement, e.g. a call to a
// control or extern method.
type ExprStmt struct {
	SourceSpan source.Span
	X          Expression
}

func (s *ExprStmt) Span() source.Span { return s.SourceSpan }
func (s *ExprStmt) Accept(v Visitor)  { v.VisitExprStmt(s) }
func (s *ExprStmt) stmtNode()         {}

// ReturnStmt is `return;` — exits the current action or apply block early.
type ReturnStmt struct {
	SourceSpan source.Span
}

func (s *ReturnStmt) Span() source.Span { return s.SourceSpan }
func (s *ReturnStmt) Accept(v Visitor)  { v.VisitReturnStmt(s) }
func (s *ReturnStmt) stmtNode()         {}

// ExtractStmt is `pkt.extract(hdr);` — parser-only header extraction.
type ExtractStmt struct {
	SourceSpan source.Span
	PacketVar  string
	Header     Expression
}

func (s *ExtractStmt) Span() source.Span { return s.SourceSpan }
func (s *ExtractStmt) Accept(v Visitor)  { v.VisitExtractStmt(s) }
func (s *ExtractStmt) stmtNode()         {}

// ---- Expressions -------------------------------------------------------

// Identifier is a bare name reference, resolved by the resolver into a
// symbol binding recorded in the hlir side-table.
type Identifier struct {
	SourceSpan source.Span
	Name       string
}

func (e *Identifier) Span() source.Span { return e.SourceSpan }
func (e *Identifier) Accept(v Visitor)  { v.VisitIdentifier(e) }
func (e *Identifier) exprNode()         {}

// IntLiteral is any of the integer literal forms the lexer recognizes.
// Value is int64 or *big.Int (see token.Token.Literal); Width is non-zero
// for WwV-style width-specified literals.
type IntLiteral struct {
	SourceSpan source.Span
	Value      interface{}
	Width      int
}

func (e *IntLiteral) Span() source.Span { return e.SourceSpan }
func (e *IntLiteral) Accept(v Visitor)  { v.VisitIntLiteral(e) }
func (e *IntLiteral) exprNode()         {}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	SourceSpan source.Span
	Value      bool
}

func (e *BoolLiteral) Span() source.Span { return e.SourceSpan }
func (e *BoolLiteral) Accept(v Visitor)  { v.VisitBoolLiteral(e) }
func (e *BoolLiteral) exprNode()         {}

// StringLiteral is a double-quoted string, used for error-message and
// extern-argument contexts.
type StringLiteral struct {
	SourceSpan source.Span
	Value      string
}

func (e *StringLiteral) Span() source.Span { return e.SourceSpan }
func (e *StringLiteral) Accept(v Visitor)  { v.VisitStringLiteral(e) }
func (e *StringLiteral) exprNode()         {}

// MemberExpr is `expr.field` (header/struct field access, or `hdr.isValid()`
// style method calls before Call wraps them).
type MemberExpr struct {
	SourceSpan source.Span
	X          Expression
	Field      string
}

func (e *MemberExpr) Span() source.Span { return e.SourceSpan }
func (e *MemberExpr) Accept(v Visitor)  { v.VisitMemberExpr(e) }
func (e *MemberExpr) exprNode()         {}

// IndexExpr is `expr[hi:lo]` bit-slice addressing, selecting bits lo..=hi
// with bit 0 least significant.
type IndexExpr struct {
	SourceSpan source.Span
	X          Expression
	Hi         Expression
	Lo         Expression
}

func (e *IndexExpr) Span() source.Span { return e.SourceSpan }
func (e *IndexExpr) Accept(v Visitor)  { v.VisitIndexExpr(e) }
func (e *IndexExpr) exprNode()         {}

// CallExpr is `callee(args...)` — an action invocation, extern method
// call, or control/parser apply.
type CallExpr struct {
	SourceSpan source.Span
	Callee     Expression
	Args       []Expression
}

func (e *CallExpr) Span() source.Span { return e.SourceSpan }
func (e *CallExpr) Accept(v Visitor)  { v.VisitCallExpr(e) }
func (e *CallExpr) exprNode()         {}

// PrefixExpr is a unary operator applied to X (e.g. `!x`, `-x`).
type PrefixExpr struct {
	SourceSpan source.Span
	Op         string
	X          Expression
}

func (e *PrefixExpr) Span() source.Span { return e.SourceSpan }
func (e *PrefixExpr) Accept(v Visitor)  { v.VisitPrefixExpr(e) }
func (e *PrefixExpr) exprNode()         {}

// InfixExpr is a binary operator expression.
type InfixExpr struct {
	SourceSpan source.Span
	Op         string
	Left       Expression
	Right      Expression
}

func (e *InfixExpr) Span() source.Span { return e.SourceSpan }
func (e *InfixExpr) Accept(v Visitor)  { v.VisitInfixExpr(e) }
func (e *InfixExpr) exprNode()         {}

// MaskExpr is `value &&& mask` — a ternary-match value/mask pair, valid
// only in table key-matching position.
type MaskExpr struct {
	SourceSpan source.Span
	Value      Expression
	Mask       Expression
}

func (e *MaskExpr) Span() source.Span { return e.SourceSpan }
func (e *MaskExpr) Accept(v Visitor)  { v.VisitMaskExpr(e) }
func (e *MaskExpr) exprNode()         {}

// ---- Patterns -----------------------------------------------------------

// WildcardPattern is `_` in a select case / table entry.
type WildcardPattern struct {
	SourceSpan source.Span
}

func (p *WildcardPattern) Span() source.Span { return p.SourceSpan }
func (p *WildcardPattern) Accept(v Visitor)  { v.VisitWildcardPattern(p) }
func (p *WildcardPattern) patternNode()      {}

// ExactPattern matches a single literal value.
type ExactPattern struct {
	SourceSpan source.Span
	Value      Expression
}

func (p *ExactPattern) Span() source.Span { return p.SourceSpan }
func (p *ExactPattern) Accept(v Visitor)  { v.VisitExactPattern(p) }
func (p *ExactPattern) patternNode()      {}

// MaskPattern is `value &&& mask` in pattern position.
type MaskPattern struct {
	SourceSpan source.Span
	Value      Expression
	Mask       Expression
}

func (p *MaskPattern) Span() source.Span { return p.SourceSpan }
func (p *MaskPattern) Accept(v Visitor)  { v.VisitMaskPattern(p) }
func (p *MaskPattern) patternNode()      {}

// RangePattern is `lo..hi` in pattern position.
type RangePattern struct {
	SourceSpan source.Span
	Lo         Expression
	Hi         Expression
}

func (p *RangePattern) Span() source.Span { return p.SourceSpan }
func (p *RangePattern) Accept(v Visitor)  { v.VisitRangePattern(p) }
func (p *RangePattern) patternNode()      {}

// ---- Type expressions ----------------------------------------------------

// NamedTypeExpr is a bare type name (possibly a header/struct/typedef/
// extern reference), e.g. `ethernet_t` or `bool`.
type NamedTypeExpr struct {
	SourceSpan source.Span
	Name       string
}

func (t *NamedTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *NamedTypeExpr) Accept(v Visitor)  { v.VisitNamedTypeExpr(t) }
func (t *NamedTypeExpr) typeNode()         {}

// BitTypeExpr is `bit<N>`.
type BitTypeExpr struct {
	SourceSpan source.Span
	Width      Expression
}

func (t *BitTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *BitTypeExpr) Accept(v Visitor)  { v.VisitBitTypeExpr(t) }
func (t *BitTypeExpr) typeNode()         {}

// IntTypeExpr is `int<N>` (two's-complement signed).
type IntTypeExpr struct {
	SourceSpan source.Span
	Width      Expression
}

func (t *IntTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *IntTypeExpr) Accept(v Visitor)  { v.VisitIntTypeExpr(t) }
func (t *IntTypeExpr) typeNode()         {}

// VarbitTypeExpr is `varbit<N>` — a variable-length header field bounded
// by a maximum bit width.
type VarbitTypeExpr struct {
	SourceSpan source.Span
	MaxWidth   Expression
}

func (t *VarbitTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *VarbitTypeExpr) Accept(v Visitor)  { v.VisitVarbitTypeExpr(t) }
func (t *VarbitTypeExpr) typeNode()         {}

// BoolTypeExpr is the `bool` type.
type BoolTypeExpr struct {
	SourceSpan source.Span
}

func (t *BoolTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *BoolTypeExpr) Accept(v Visitor)  { v.VisitBoolTypeExpr(t) }
func (t *BoolTypeExpr) typeNode()         {}

// VoidTypeExpr is the `void` return type of an action.
type VoidTypeExpr struct {
	SourceSpan source.Span
}

func (t *VoidTypeExpr) Span() source.Span { return t.SourceSpan }
func (t *VoidTypeExpr) Accept(v Visitor)  { v.VisitVoidTypeExpr(t) }
func (t *VoidTypeExpr) typeNode()         {}
