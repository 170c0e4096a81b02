package hlirtypes

import "testing"

func TestStringFormsMatchSurfaceSyntax(t *testing.T) {
	cases := []struct {
		typ  *Type
		want string
	}{
		{Bit(8), "bit<8>"},
		{Int(32), "int<32>"},
		{Varbit(256), "varbit<256>"},
		{Bool(), "bool"},
		{Void(), "void"},
		{ErrorType(), "error"},
		{Unknown(), "<unknown>"},
		{Named(KindHeader, "ethernet_t", nil), "ethernet_t"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestIsNumericAndSigned(t *testing.T) {
	if !Bit(8).IsNumeric() || Bit(8).Signed() {
		t.Errorf("bit<8> should be numeric and unsigned")
	}
	if !Int(8).IsNumeric() || !Int(8).Signed() {
		t.Errorf("int<8> should be numeric and signed")
	}
	if Bool().IsNumeric() {
		t.Errorf("bool should not be numeric")
	}
}

func TestFieldByName(t *testing.T) {
	hdr := Named(KindHeader, "ethernet_t", []Field{
		{Name: "dst", Type: Bit(48)},
		{Name: "etherType", Type: Bit(16)},
	})
	ft, ok := hdr.FieldByName("etherType")
	if !ok || ft.Width != 16 {
		t.Fatalf("expected etherType bit<16>, got %v ok=%v", ft, ok)
	}
	if _, ok := hdr.FieldByName("missing"); ok {
		t.Fatalf("expected missing field to report not found")
	}
}

func TestEqualStructural(t *testing.T) {
	a := Named(KindStruct, "meta_t", []Field{{Name: "x", Type: Bit(8)}})
	b := Named(KindStruct, "meta_t", []Field{{Name: "x", Type: Bit(8)}})
	c := Named(KindStruct, "meta_t", []Field{{Name: "x", Type: Bit(16)}})
	if !Equal(a, b) {
		t.Errorf("expected structurally identical types to be Equal")
	}
	if Equal(a, c) {
		t.Errorf("expected differing field widths to not be Equal")
	}
	if !Equal(nil, nil) {
		t.Errorf("expected Equal(nil, nil) to be true")
	}
	if Equal(a, nil) {
		t.Errorf("expected Equal(a, nil) to be false")
	}
}
