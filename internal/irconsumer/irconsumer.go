// Package irconsumer defines the stable contract a backend implements to
// consume a resolved compilation unit: external entry-point naming and
// big-endian key/parameter serialization. It is a read-only view over the
// AST and hlir.Index — nothing here mutates either.
package irconsumer

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlir"
	"github.com/oxide-computer/x4c/internal/symbols"
)

// EntryOp is one of the three control-plane operations a runtime backend
// exposes against a table: install an entry, remove one, or read the
// current entry set.
type EntryOp string

const (
	OpAdd    EntryOp = "add"
	OpRemove EntryOp = "remove"
	OpGet    EntryOp = "get"
)

// entryOps is the fixed, ordered triplet every reachable table gets one
// entry point for.
var entryOps = []EntryOp{OpAdd, OpRemove, OpGet}

// TableEntryPoint is one table's external, backend-facing identity: the
// stable name a runtime control-plane uses to install/remove/read
// entries, plus the elaborated key shape needed to serialize them.
type TableEntryPoint struct {
	// Name follows "<op>_<instance_path>_<table>_entry", e.g.
	// "add_ingress_tbl_entry" for a table named tbl inside a control
	// instantiated as "ingress".
	Name  string
	Op    EntryOp
	Table *ast.TableDecl
	Path  symbols.InstancePath
}

// EntryPointName builds the stable external name for one op against a
// table within its instantiation path.
func EntryPointName(op EntryOp, path symbols.InstancePath, table string) string {
	if path.String() == "" {
		return fmt.Sprintf("%s_%s_entry", op, table)
	}
	return fmt.Sprintf("%s_%s_%s_entry", op, path.String(), table)
}

// Consumer walks a resolved Program + Index to produce the full set of
// TableEntryPoints a backend needs to wire up its control plane.
type Consumer struct {
	prog *ast.Program
	idx  *hlir.Index
}

func New(prog *ast.Program, idx *hlir.Index) *Consumer {
	return &Consumer{prog: prog, idx: idx}
}

// EntryPoints returns the add/remove/get triplet of TableEntryPoints for
// every table declared in any control, keyed by the control's
// instantiation path if one was recorded by the resolver (a control
// never instantiated under the program's single `main` package produces
// no entry points, since it is dead code the IR consumer cannot reach).
func (c *Consumer) EntryPoints() []TableEntryPoint {
	var out []TableEntryPoint
	for _, d := range c.prog.Declarations {
		ctrl, ok := d.(*ast.ControlDecl)
		if !ok {
			continue
		}
		path, ok := c.idx.InstancePaths[ctrl]
		if !ok {
			continue
		}
		for _, tbl := range ctrl.Tables {
			for _, op := range entryOps {
				out = append(out, TableEntryPoint{
					Name:  EntryPointName(op, path, tbl.Name),
					Op:    op,
					Table: tbl,
					Path:  path,
				})
			}
		}
	}
	return out
}

// EncodeKeyValue serializes a single key/parameter value in big-endian
// byte order, the wire format every IR consumer backend agrees on
// regardless of host endianness. width is in bits; values narrower than
// a byte boundary are left-padded with zero bits in the most significant
// position of the first byte.
func EncodeKeyValue(value interface{}, width int) ([]byte, error) {
	nbytes := (width + 7) / 8
	switch v := value.(type) {
	case int64:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v))
		if nbytes > 8 {
			return append(make([]byte, nbytes-8), buf...), nil
		}
		return buf[8-nbytes:], nil
	case *big.Int:
		buf := make([]byte, nbytes)
		v.FillBytes(buf)
		return buf, nil
	default:
		return nil, fmt.Errorf("unsupported key value type %T", value)
	}
}
