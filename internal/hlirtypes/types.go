// Package hlirtypes defines the elaborated type system the resolver
// assigns to every typed AST node. Unlike ast.TypeExpr, which is a bare
// syntax tree, a Type here is fully resolved: bit<N> widths are constant
// integers, and named types carry their name and, for headers and
// structs, their elaborated fields.
package hlirtypes

import "fmt"

// Kind discriminates the sum of elaborated types.
type Kind int

const (
	KindBit Kind = iota
	KindInt
	KindVarbit
	KindBool
	KindVoid
	KindError
	KindHeader
	KindStruct
	KindTypedef
	KindExtern
	KindAction
	KindTable
	KindParser
	KindControl
	KindPackage
	KindUnknown // assigned only after an earlier error; never a legal operand
)

// Type is an elaborated P4 type. Width is meaningful for KindBit/KindInt/
// KindVarbit (it is the bound for varbit). Name identifies the declaring
// symbol for the named kinds (KindHeader, KindStruct, ...).
type Type struct {
	Kind  Kind
	Width int
	Name  string

	// Fields holds header/struct member types in declaration order, used
	// by the checker's header/struct field-access rules.
	Fields []Field
}

// Field is one member of a header or struct type.
type Field struct {
	Name string
	Type *Type
}

func Bit(width int) *Type    { return &Type{Kind: KindBit, Width: width} }
func Int(width int) *Type    { return &Type{Kind: KindInt, Width: width} }
func Varbit(max int) *Type   { return &Type{Kind: KindVarbit, Width: max} }
func Bool() *Type            { return &Type{Kind: KindBool} }
func Void() *Type            { return &Type{Kind: KindVoid} }
func ErrorType() *Type       { return &Type{Kind: KindError} }
func Unknown() *Type         { return &Type{Kind: KindUnknown} }

func Named(kind Kind, name string, fields []Field) *Type {
	return &Type{Kind: kind, Name: name, Fields: fields}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBit:
		return fmt.Sprintf("bit<%d>", t.Width)
	case KindInt:
		return fmt.Sprintf("int<%d>", t.Width)
	case KindVarbit:
		return fmt.Sprintf("varbit<%d>", t.Width)
	case KindBool:
		return "bool"
	case KindVoid:
		return "void"
	case KindError:
		return "error"
	case KindUnknown:
		return "<unknown>"
	default:
		return t.Name
	}
}

// IsNumeric reports whether values of t support the width/signedness
// arithmetic operators.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == KindBit || t.Kind == KindInt)
}

// Signed reports whether t is a two's-complement int<N>.
func (t *Type) Signed() bool {
	return t != nil && t.Kind == KindInt
}

// FieldByName looks up a header/struct member by name.
func (t *Type) FieldByName(name string) (*Type, bool) {
	if t == nil {
		return nil, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Equal reports structural equality, sufficient for the checker's
// assignment and parameter-binding comparisons.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Width != b.Width || a.Name != b.Name {
		return false
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
			return false
		}
	}
	return true
}
