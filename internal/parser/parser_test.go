package parser

import (
	"testing"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/lexer"
	"github.com/oxide-computer/x4c/internal/source"
)

func parseSource(t *testing.T, src string) (*ast.Program, []*Error) {
	t.Helper()
	unit := &source.Unit{Text: src, Spans: make([]source.Span, len([]rune(src)))}
	toks, lexErrs := lexer.New(unit).Tokenize()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", lexErrs)
	}
	return New(toks).Parse()
}

func TestParseConstDecl(t *testing.T) {
	prog, errs := parseSource(t, "const bit<8> X = 1;")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(prog.Declarations) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(prog.Declarations))
	}
	cd, ok := prog.Declarations[0].(*ast.ConstDecl)
	if !ok {
		t.Fatalf("expected *ast.ConstDecl, got %T", prog.Declarations[0])
	}
	if cd.Name != "X" {
		t.Errorf("expected name X, got %s", cd.Name)
	}
	bt, ok := cd.Type.(*ast.BitTypeExpr)
	if !ok {
		t.Fatalf("expected *ast.BitTypeExpr, got %T", cd.Type)
	}
	width, ok := IntLiteralValue(bt.Width.(*ast.IntLiteral))
	if !ok || width != 8 {
		t.Errorf("expected width 8, got %v", bt.Width)
	}
}

func TestParseHeaderType(t *testing.T) {
	src := `header ethernet_t {
		bit<48> dst;
		bit<48> src;
		bit<16> etherType;
	}`
	prog, errs := parseSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	hd, ok := prog.Declarations[0].(*ast.HeaderTypeDecl)
	if !ok {
		t.Fatalf("expected *ast.HeaderTypeDecl, got %T", prog.Declarations[0])
	}
	if len(hd.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(hd.Fields))
	}
	if hd.Fields[2].Name != "etherType" {
		t.Errorf("expected third field etherType, got %s", hd.Fields[2].Name)
	}
}

func TestParseTableWithMatchKinds(t *testing.T) {
	src := `control c() {
		action drop() {}
		table t {
			key = { hdr.x : exact; }
			actions = { drop; }
			default_action = drop();
		}
		apply {
			t.apply();
		}
	}`
	prog, errs := parseSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	ctrl := prog.Declarations[0].(*ast.ControlDecl)
	if len(ctrl.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(ctrl.Tables))
	}
	tbl := ctrl.Tables[0]
	if len(tbl.Keys) != 1 || tbl.Keys[0].Kind != ast.MatchExact {
		t.Fatalf("expected one exact key, got %v", tbl.Keys)
	}
	if tbl.DefaultAction == nil || tbl.DefaultAction.Name != "drop" {
		t.Fatalf("expected default_action drop, got %v", tbl.DefaultAction)
	}
}

func TestParseParserWithSelectTransition(t *testing.T) {
	src := `parser p(packet_in pkt) {
		state start {
			transition select(pkt.length()) {
				0: reject;
				_: accept;
			}
		}
	}`
	prog, errs := parseSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	pd := prog.Declarations[0].(*ast.ParserDecl)
	if len(pd.States) != 1 {
		t.Fatalf("expected 1 state, got %d", len(pd.States))
	}
	sel, ok := pd.States[0].Transition.(*ast.SelectTransition)
	if !ok {
		t.Fatalf("expected *ast.SelectTransition, got %T", pd.States[0].Transition)
	}
	if len(sel.Cases) != 2 {
		t.Fatalf("expected 2 select cases, got %d", len(sel.Cases))
	}
}

func TestParseBitSlice(t *testing.T) {
	prog, errs := parseSource(t, "const bit<8> X = hdr.flags[7:4];")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	cd := prog.Declarations[0].(*ast.ConstDecl)
	idx, ok := cd.Value.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected *ast.IndexExpr, got %T", cd.Value)
	}
	hi, _ := IntLiteralValue(idx.Hi.(*ast.IntLiteral))
	lo, _ := IntLiteralValue(idx.Lo.(*ast.IntLiteral))
	if hi != 7 || lo != 4 {
		t.Errorf("expected [7:4], got [%d:%d]", hi, lo)
	}
}
