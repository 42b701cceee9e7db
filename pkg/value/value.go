// Package value implements the debug-information graph: the typed node
// (Value) extracted from DWARF, and the DAG/tree it forms.
//
// A Value is a node in a type/variable graph produced by the DWARF
// ingester (pkg/ingest), deduplicated in place (Deduplicate, in
// dedup.go), serialized by pkg/codec, and walked at runtime by
// pkg/walker. The graph may be cyclic (pointer types referencing their
// own struct) and, before deduplication, may share subtrees heavily
// (every compile unit re-declares "int", "char", common typedefs).
package value

import "fmt"

// Tag identifies the kind of a Value node.
type Tag uint8

const (
	// Root is the single entry point of the graph; it has no value and
	// its children are the CompileUnits.
	Root Tag = iota
	// CompileUnit is one DWARF translation unit; its children are the
	// unit's top-level Variables.
	CompileUnit
	// Variable holds an address (CompileUnit child) or a member offset
	// (Struct child) in Value, and its type in Children[0].
	Variable
	// BaseType is a primitive; Value is its size in bytes.
	BaseType
	// Pointer's Value is the pointer width in bytes; Children[0] is the
	// pointee type.
	Pointer
	// Array's Value is the element count; Children[0] is the element type.
	Array
	// Struct's Value is the struct size in bytes; Children are member
	// Variables in declaration order.
	Struct
	// Enum's Value is the byte size of the underlying integer type;
	// Children are EnumValues.
	Enum
	// EnumValue's Value is the enumerator's constant.
	EnumValue
	// Typedef's Children[0] is the aliased type.
	Typedef
)

func (t Tag) String() string {
	switch t {
	case Root:
		return "Root"
	case CompileUnit:
		return "CompileUnit"
	case Variable:
		return "Variable"
	case BaseType:
		return "BaseType"
	case Pointer:
		return "Pointer"
	case Array:
		return "Array"
	case Struct:
		return "Struct"
	case Enum:
		return "Enum"
	case EnumValue:
		return "EnumValue"
	case Typedef:
		return "Typedef"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Value is a node of the debug-information graph. Nodes are created by
// the ingester or by the codec's decoder and are immutable once the
// graph is handed to the encoder or the walker; only Deduplicate
// rewrites Children edges, and only during the build phase.
type Value struct {
	Tag      Tag
	Name     string
	Value    uint64
	Children []*Value
}

// New creates a leaf Value with no children.
func New(tag Tag, name string, val uint64) *Value {
	return &Value{Tag: tag, Name: name, Value: val}
}

// Type returns the "pointed-to type" (Children[0]) for tags that carry
// one, or nil otherwise.
func (v *Value) Type() *Value {
	switch v.Tag {
	case Variable, Pointer, Array, Typedef:
		if len(v.Children) == 0 {
			return nil
		}
		return v.Children[0]
	default:
		return nil
	}
}

// Bottom follows Type() until it reaches a node with no further type,
// i.e. a BaseType, Struct or Enum. Variable, Typedef, Pointer and Array
// nodes are all followed through to their Children[0].
func (v *Value) Bottom() *Value {
	if t := v.Type(); t != nil {
		return t.Bottom()
	}
	return v
}

// Untypedef peels Typedef nodes until it reaches a non-Typedef tag.
func (v *Value) Untypedef() *Value {
	if v.Tag == Typedef {
		return v.Type().Untypedef()
	}
	return v
}

// Pretty renders a one-line, tag-appropriate description of the Value,
// mirroring the original tool's Value.pretty().
func (v *Value) Pretty() string {
	switch v.Tag {
	case Root:
		return "Root " + v.Name
	case CompileUnit:
		return "CompileUnit " + v.Name
	case Variable:
		return fmt.Sprintf("%s %s", v.Type().Pretty(), v.Name)
	case BaseType:
		return v.Name
	case Pointer:
		return v.Type().Pretty() + "*"
	case Array:
		return fmt.Sprintf("%s[%d]", v.Type().Pretty(), v.Value)
	case Struct:
		return "struct " + v.Name
	case Enum:
		return "enum " + v.Name
	case EnumValue:
		return fmt.Sprintf("%s = %d", v.Name, v.Value)
	case Typedef:
		return v.Name
	default:
		return "<unknown>"
	}
}

// Variables returns the ordered sequence of top-level variables reached
// from v: for a CompileUnit, its children; for Root, the concatenation
// over all CompileUnits in order. Kept as an ordered slice rather than a
// set, since the walker depends on CompileUnit child order.
func (v *Value) Variables() []*Value {
	switch v.Tag {
	case Root:
		var out []*Value
		for _, cu := range v.Children {
			out = append(out, cu.Variables()...)
		}
		return out
	case CompileUnit:
		return v.Children
	default:
		return nil
	}
}

// FindVariable returns the first top-level variable with the given
// name, or nil if none matches.
func (v *Value) FindVariable(name string) *Value {
	for _, v := range v.Variables() {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// VoidType returns a BaseType named "void" of size 0, used by the
// ingester whenever DWARF has no DW_AT_type, or an unhandled tag is
// encountered. Each call returns a new, distinct instance; the copies
// are deeply equal, so Deduplicate collapses them into one.
func VoidType() *Value {
	return New(BaseType, "void", 0)
}

// CountNodes returns the number of distinct Values reachable from root,
// visiting shared or cyclic nodes once. Used to report how much a
// Deduplicate pass shrank a graph.
func CountNodes(root *Value) int {
	seen := map[*Value]bool{}
	var visit func(v *Value)
	visit = func(v *Value) {
		if v == nil || seen[v] {
			return
		}
		seen[v] = true
		for _, c := range v.Children {
			visit(c)
		}
	}
	visit(root)
	return len(seen)
}
