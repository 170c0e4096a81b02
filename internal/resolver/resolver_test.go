package resolver

import (
	"testing"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlirtypes"
	"github.com/oxide-computer/x4c/internal/lexer"
	"github.com/oxide-computer/x4c/internal/parser"
	"github.com/oxide-computer/x4c/internal/source"
)

func resolveSource(t *testing.T, src string) (*ast.Program, *Resolver, []*Error) {
	t.Helper()
	unit := &source.Unit{Text: src, Spans: make([]source.Span, len([]rune(src)))}
	toks, lexErrs := lexer.New(unit).Tokenize()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", lexErrs)
	}
	prog, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parser errors: %v", parseErrs)
	}
	r := New()
	_, errs := r.Resolve(prog)
	return prog, r, errs
}

func TestResolveHeaderFieldTypes(t *testing.T) {
	src := `header ethernet_t {
		bit<48> dst;
		bit<48> src;
		bit<16> etherType;
	}`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	hd := prog.Declarations[0].(*ast.HeaderTypeDecl)
	ht := r.idx.Types[hd]
	if ht == nil || ht.Kind != hlirtypes.KindHeader {
		t.Fatalf("expected a header type, got %v", ht)
	}
	ft, ok := ht.FieldByName("etherType")
	if !ok || ft.Width != 16 {
		t.Fatalf("expected etherType to be bit<16>, got %v ok=%v", ft, ok)
	}
}

func TestResolveUndefinedNameReported(t *testing.T) {
	src := `control c() {
		apply {
			missingTable.apply();
		}
	}`
	_, _, errs := resolveSource(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected an undefined-table error, got none")
	}
}

func TestResolveConstWidthFromAnotherConst(t *testing.T) {
	src := `const bit<8> WIDTH = 16;
	const bit<WIDTH> X = 1;`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	x := prog.Declarations[1].(*ast.ConstDecl)
	xt := r.idx.Types[x]
	if xt == nil || xt.Width != 16 {
		t.Fatalf("expected X to be bit<16> (from WIDTH=16), got %v", xt)
	}
}

func TestResolveTypedefUnwrapsToUnderlyingType(t *testing.T) {
	src := `typedef bit<32> counter_t;
	const counter_t X = 1;`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	x := prog.Declarations[1].(*ast.ConstDecl)
	xt := r.idx.Types[x]
	if xt == nil || xt.Kind != hlirtypes.KindBit || xt.Width != 32 {
		t.Fatalf("expected X to resolve to bit<32> through the typedef, got %v", xt)
	}
}

func TestResolveActionParamScopedToAction(t *testing.T) {
	src := `control c() {
		action setVal(bit<8> v) {}
		apply {}
	}`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	ctrl := prog.Declarations[0].(*ast.ControlDecl)
	action := ctrl.Actions[0]
	param := action.Params[0]
	pt := r.idx.Types[param]
	if pt == nil || pt.Width != 8 {
		t.Fatalf("expected param v to be bit<8>, got %v", pt)
	}
}

func TestResolveTableActionBindings(t *testing.T) {
	src := `control c(bit<8> a) {
		action drop() {}
		table t {
			key = { a : exact; }
			actions = { drop; }
			default_action = drop();
		}
		apply { t.apply(); }
	}`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	ctrl := prog.Declarations[0].(*ast.ControlDecl)
	tbl := ctrl.Tables[0]
	actions := r.idx.TableActions[tbl]
	if len(actions) != 1 || actions[0].Name != "drop" {
		t.Fatalf("expected table to bind the drop action, got %v", actions)
	}
	if _, ok := r.idx.Bindings[tbl.DefaultAction]; !ok {
		t.Fatalf("expected default_action to carry a binding")
	}
}

func TestResolvePackageInstantiationRecordsInstancePath(t *testing.T) {
	src := `parser p(packet_in pkt) {
		state start {
			transition accept;
		}
	}
	package pipe(bit<8> x);
	pipe(p) main;`
	prog, r, errs := resolveSource(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	var inst *ast.PackageInstantiation
	for _, d := range prog.Declarations {
		if pi, ok := d.(*ast.PackageInstantiation); ok && pi.InstanceName == "main" {
			inst = pi
		}
	}
	if inst == nil {
		t.Fatalf("expected to find the main package instantiation")
	}
	path, ok := r.idx.InstancePaths[inst]
	if !ok || path.String() == "" {
		t.Fatalf("expected an instance path to be recorded for main, got %v ok=%v", path, ok)
	}
}
