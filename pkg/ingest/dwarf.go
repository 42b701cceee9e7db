// Package ingest extracts a debug-information graph (pkg/value) from
// the DWARF data embedded in an ELF binary.
//
// Grounded on the teacher's llvm.DWARFParser
// (_examples/.../llvm/dwarfparser.go) for the overall "open ELF, get
// DWARF data, walk compile units" shape and its location-expression
// decoder, dropping the register/stack-frame location ops that domain
// handled (inspect only resolves static, absolute addresses), and on
// the original tool's dwarfdb.py tag-mapping table.
package ingest

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/dbgtable/inspect/pkg/value"
)

// Config controls ingestion parameters not derivable from DWARF itself.
type Config struct {
	// PointerWidth is the byte width recorded on Pointer Values. DWARF
	// carries the pointee's type but not a pointer's own width, so the
	// ingester needs this from the caller. Defaults to 8.
	PointerWidth uint64
}

func (c Config) withDefaults() Config {
	if c.PointerWidth == 0 {
		c.PointerWidth = 8
	}
	return c
}

// File extracts the debug-information graph from the ELF binary at
// path. The returned Value is a Root whose children are one
// CompileUnit per DWARF compile unit, each holding that unit's
// resolvable top-level variables.
func File(path string, cfg Config) (*value.Value, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := f.DWARF()
	if err != nil {
		return nil, fmt.Errorf("ingest: no DWARF data in %s: %w", path, err)
	}

	ing := &ingester{data: data, cfg: cfg.withDefaults(), types: map[dwarf.Type]*value.Value{}}
	return ing.run()
}

type ingester struct {
	data  *dwarf.Data
	cfg   Config
	types map[dwarf.Type]*value.Value
}

func (ing *ingester) run() (*value.Value, error) {
	root := value.New(value.Root, "", 0)
	reader := ing.data.Reader()

	for {
		entry, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("ingest: read DIE: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			if entry.Children {
				reader.SkipChildren()
			}
			continue
		}

		cu, err := ing.compileUnit(reader, entry)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, cu)
	}

	return root, nil
}

// compileUnit consumes one compile_unit DIE and its direct children,
// keeping only top-level variable declarations; nested type DIEs
// (base_type, pointer_type, structure_type, ...) are resolved on demand
// through dwarf.Data.Type, not by walking them as siblings.
func (ing *ingester) compileUnit(reader *dwarf.Reader, entry *dwarf.Entry) (*value.Value, error) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	cu := value.New(value.CompileUnit, name, 0)

	if !entry.Children {
		return cu, nil
	}

	for {
		child, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("ingest: read DIE: %w", err)
		}
		if child == nil || child.Tag == 0 {
			break
		}
		if child.Tag != dwarf.TagVariable {
			if child.Children {
				reader.SkipChildren()
			}
			continue
		}
		if v := ing.variable(child); v != nil {
			cu.Children = append(cu.Children, v)
		}
	}

	return cu, nil
}

// variable converts a variable DIE into a Variable Value, or nil if it
// has no name or no statically resolvable address (it is then
// considered optimized-out or non-static, per the address resolution
// rule below).
func (ing *ingester) variable(entry *dwarf.Entry) *value.Value {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return nil
	}

	addr, ok := resolveAddress(entry)
	if !ok {
		return nil
	}

	var typ dwarf.Type
	if off, ok := entry.Val(dwarf.AttrType).(dwarf.Offset); ok {
		if t, err := ing.data.Type(off); err == nil {
			typ = t
		}
	}

	v := value.New(value.Variable, name, addr)
	v.Children = []*value.Value{ing.typeFor(typ)}
	return v
}

// resolveAddress accepts only a DW_AT_location consisting of a single
// DW_OP_addr operation; anything else (register, frame-relative,
// computed, or simply absent) yields "no address", per the rule that
// such a variable is optimized-out or non-static and must be dropped.
func resolveAddress(entry *dwarf.Entry) (uint64, bool) {
	const dwOpAddr = 0x03

	loc, ok := entry.Val(dwarf.AttrLocation).([]byte)
	if !ok || len(loc) < 1 || loc[0] != dwOpAddr {
		return 0, false
	}

	operand := loc[1:]
	switch len(operand) {
	case 8:
		return binary.LittleEndian.Uint64(operand), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(operand)), true
	default:
		return 0, false
	}
}

// typeFor resolves a (possibly nil) dwarf.Type into a Value, memoizing
// by the Type's own identity. debug/dwarf already interns and caches
// Types by DIE offset, including across cycles (a struct containing a
// pointer to itself yields the identical *dwarf.StructType pointer at
// both ends), so keying the ingester's memo on that same identity is
// enough to terminate cyclic graphs: the placeholder Value is recorded
// before its children are filled in, so a cycle resolves to that
// placeholder rather than recursing forever.
func (ing *ingester) typeFor(typ dwarf.Type) *value.Value {
	if typ == nil {
		return value.VoidType()
	}
	if v, ok := ing.types[typ]; ok {
		return v
	}

	// Qualifiers (const/volatile/atomic) are transparent: resolve
	// straight through to the underlying type and share its Value.
	if q, ok := typ.(*dwarf.QualType); ok {
		inner := ing.typeFor(q.Type)
		ing.types[typ] = inner
		return inner
	}

	v := &value.Value{}
	ing.types[typ] = v
	ing.fill(v, typ)
	return v
}

func (ing *ingester) fill(v *value.Value, typ dwarf.Type) {
	switch t := typ.(type) {
	case *dwarf.PtrType:
		v.Tag = value.Pointer
		v.Value = ing.cfg.PointerWidth
		v.Children = []*value.Value{ing.typeFor(t.Type)}

	case *dwarf.ArrayType:
		v.Tag = value.Array
		v.Value = arrayElementCount(t)
		v.Children = []*value.Value{ing.typeFor(arrayElementType(t))}

	case *dwarf.StructType:
		v.Tag = value.Struct
		v.Name = t.StructName
		if t.ByteSize > 0 {
			v.Value = uint64(t.ByteSize)
		}
		v.Children = make([]*value.Value, len(t.Field))
		for i, f := range t.Field {
			member := value.New(value.Variable, f.Name, uint64(f.ByteOffset))
			member.Children = []*value.Value{ing.typeFor(f.Type)}
			v.Children[i] = member
		}

	case *dwarf.EnumType:
		v.Tag = value.Enum
		v.Name = t.EnumName
		if t.ByteSize > 0 {
			v.Value = uint64(t.ByteSize)
		}
		v.Children = make([]*value.Value, len(t.Val))
		for i, ev := range t.Val {
			v.Children[i] = value.New(value.EnumValue, ev.Name, uint64(ev.Val))
		}

	case *dwarf.TypedefType:
		v.Tag = value.Typedef
		v.Name = t.Name
		v.Children = []*value.Value{ing.typeFor(t.Type)}

	case *dwarf.FuncType, *dwarf.UnspecifiedType, *dwarf.VoidType:
		*v = *value.VoidType()

	default:
		// Scalars (int, unsigned, float, bool, complex, char) all carry
		// a name and byte size through the common Type interface;
		// nothing else about them is meaningful to the walker.
		size := t.Size()
		if size < 0 {
			size = 0
		}
		v.Tag = value.BaseType
		v.Name = t.Common().Name
		v.Value = uint64(size)
	}
}

// arrayElementCount computes the element count of a (possibly
// multi-dimensional) array as the product of its subrange counts, per
// the ingestion rule; an array with any unknown-bound dimension yields
// 0 rather than guessing. debug/dwarf represents a multi-dimensional
// array as nested ArrayTypes, the outer one's Type being the next
// dimension in, so the product is computed by walking that chain
// rather than indexing a slice.
func arrayElementCount(t *dwarf.ArrayType) uint64 {
	product := int64(1)
	for {
		if t.Count < 0 {
			return 0
		}
		product *= t.Count

		inner, ok := t.Type.(*dwarf.ArrayType)
		if !ok {
			return uint64(product)
		}
		t = inner
	}
}

// arrayElementType walks the same nested-ArrayType chain as
// arrayElementCount down to the innermost dimension's element type, so
// a flattened multi-dimensional array reports the scalar (or struct,
// pointer, ...) type its elements actually are rather than an
// intermediate ArrayType.
func arrayElementType(t *dwarf.ArrayType) dwarf.Type {
	for {
		inner, ok := t.Type.(*dwarf.ArrayType)
		if !ok {
			return t.Type
		}
		t = inner
	}
}
