package irconsumer

import (
	"math/big"
	"testing"

	"github.com/oxide-computer/x4c/internal/lexer"
	"github.com/oxide-computer/x4c/internal/parser"
	"github.com/oxide-computer/x4c/internal/resolver"
	"github.com/oxide-computer/x4c/internal/source"
	"github.com/oxide-computer/x4c/internal/symbols"
)

func TestEntryPointNameWithAndWithoutPath(t *testing.T) {
	root := symbols.RootInstancePath()
	if got, want := EntryPointName(OpAdd, root, "tbl"), "add_tbl_entry"; got != want {
		t.Errorf("EntryPointName() = %q, want %q", got, want)
	}
	nested := root.Child("ingress")
	if got, want := EntryPointName(OpAdd, nested, "tbl"), "add_ingress_tbl_entry"; got != want {
		t.Errorf("EntryPointName() = %q, want %q", got, want)
	}
}

func TestEncodeKeyValueInt64(t *testing.T) {
	buf, err := EncodeKeyValue(int64(0x0800), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x08, 0x00}
	if len(buf) != len(want) || buf[0] != want[0] || buf[1] != want[1] {
		t.Fatalf("got %v, want %v", buf, want)
	}
}

func TestEncodeKeyValueBigInt(t *testing.T) {
	v := new(big.Int).SetUint64(0xAABBCCDD)
	buf, err := EncodeKeyValue(v, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("got %v, want %v", buf, want)
		}
	}
}

func TestEncodeKeyValueUnsupportedType(t *testing.T) {
	if _, err := EncodeKeyValue("nope", 8); err == nil {
		t.Fatalf("expected an error for an unsupported value type")
	}
}

func TestEntryPointsOnlyCoversInstantiatedControls(t *testing.T) {
	src := `control reachable(bit<8> a) {
		action drop() {}
		table t {
			key = { a : exact; }
			actions = { drop; }
		}
		apply { t.apply(); }
	}
	control dead(bit<8> a) {
		action drop() {}
		table never {
			key = { a : exact; }
			actions = { drop; }
		}
		apply { never.apply(); }
	}
	package pipe(bit<8> x);
	pipe(reachable) main;`

	unit := &source.Unit{Text: src, Spans: make([]source.Span, len([]rune(src)))}
	toks, lexErrs := lexer.New(unit).Tokenize()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", lexErrs)
	}
	prog, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parser errors: %v", parseErrs)
	}
	idx, resolveErrs := resolver.New().Resolve(prog)
	if len(resolveErrs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", resolveErrs)
	}

	eps := New(prog, idx).EntryPoints()
	if len(eps) != 3 {
		t.Fatalf("expected exactly 3 entry points (add/remove/get for the instantiated control's one table), got %d: %v", len(eps), eps)
	}
	seenOps := map[EntryOp]bool{}
	for _, ep := range eps {
		if ep.Table.Name != "t" {
			t.Errorf("expected every entry point to be for table t, got %s", ep.Table.Name)
		}
		seenOps[ep.Op] = true
	}
	for _, op := range []EntryOp{OpAdd, OpRemove, OpGet} {
		if !seenOps[op] {
			t.Errorf("expected an entry point for op %q, got %v", op, eps)
		}
	}
}
