// Package walker implements the runtime typed-memory walker (C5):
// table discovery against a running target, load-base computation,
// and a Cursor that expands a Value/address pair into its rendered
// text or its child cursors, issuing transport reads as it goes.
//
// Grounded on the original tool's client.py RtNode update/expand/write
// methods (_examples/original_source/src/gui.py, client.py), recast as
// a value-returning Cursor rather than a mutable node so it composes
// with both the tree viewer (cmd/connect) and the path resolver
// (path.go).
package walker

import (
	"fmt"
	"strconv"

	"github.com/dbgtable/inspect/pkg/utils"
	"github.com/dbgtable/inspect/pkg/value"
)

// Reader is the read side of the transport client the walker needs.
type Reader interface {
	ReadUint(addr uint64, size uint64) (uint64, error)
}

// Writer extends Reader with the write the walker needs for the
// terminal-BaseType write path.
type Writer interface {
	Reader
	WriteUint(addr uint64, size uint64, v uint64) error
}

// Cursor is a (Value, effective address) pair: the logical position of
// the walk. Cursors are immutable; every expansion method returns a new
// one.
type Cursor struct {
	Value *value.Value
	Addr  uint64
}

// Deref peels Variable and Typedef transparently and follows Pointer
// chains (issuing a read per pointer) until it reaches a terminal tag
// (BaseType, Struct, Array, Enum or EnumValue). It reports isNull if a
// pointer dereference read back zero, at which point expansion stops
// per the null-pointer rule.
//
// A pointer variable therefore renders as its pointee's value (e.g. the
// pointed-to int), not the pointer's own address, matching the
// original client.py/gui.py RtNode.update(), which always dereferences
// before displaying.
func (c Cursor) Deref(r Reader) (cursor Cursor, isNull bool, err error) {
	for {
		switch c.Value.Tag {
		case value.Variable, value.Typedef:
			t := c.Value.Type()
			if t == nil {
				return c, false, fmt.Errorf("walker: %s %q has no type", c.Value.Tag, c.Value.Name)
			}
			c = Cursor{Value: t, Addr: c.Addr}

		case value.Pointer:
			addr, err := r.ReadUint(c.Addr, c.Value.Value)
			if err != nil {
				return c, false, fmt.Errorf("walker: dereference pointer at 0x%x: %w", c.Addr, err)
			}
			if addr == 0 {
				return c, true, nil
			}
			t := c.Value.Type()
			if t == nil {
				t = value.VoidType()
			}
			c = Cursor{Value: t, Addr: addr}

		default:
			return c, false, nil
		}
	}
}

// Render dereferences c and produces its displayed text: "{}" for a
// struct, "[]" for an array, "NULL" for a null pointer, the decoded
// integer (with a symbolic match against EnumValue children) for an
// enum, and the decoded integer for a base type (plus its rune
// rendering when the base type is named "char").
func (c Cursor) Render(r Reader) (string, error) {
	c, isNull, err := c.Deref(r)
	if err != nil {
		return "", err
	}
	if isNull {
		return "NULL", nil
	}

	switch c.Value.Tag {
	case value.Struct:
		return "{}", nil

	case value.Array:
		return "[]", nil

	case value.Enum:
		data, err := r.ReadUint(c.Addr, c.Value.Value)
		if err != nil {
			return "", fmt.Errorf("walker: read enum %q at 0x%x: %w", c.Value.Name, c.Addr, err)
		}
		for _, ev := range c.Value.Children {
			if ev.Value == data {
				return fmt.Sprintf("%s (%d)", ev.Name, data), nil
			}
		}
		return fmt.Sprintf("%d", data), nil

	case value.EnumValue:
		return fmt.Sprintf("%s = %d", c.Value.Name, c.Value.Value), nil

	case value.BaseType:
		data, err := r.ReadUint(c.Addr, c.Value.Value)
		if err != nil {
			return "", fmt.Errorf("walker: read %q at 0x%x: %w", c.Value.Name, c.Addr, err)
		}
		if c.Value.Name == "char" {
			return fmt.Sprintf("%d (%q)", data, rune(data)), nil
		}
		return fmt.Sprintf("%d", data), nil

	default:
		return "", fmt.Errorf("walker: cannot render tag %s", c.Value.Tag)
	}
}

// Children dereferences c and, if it lands on a Struct or Array,
// returns one cursor per member or element. Any other terminal tag (or
// a null pointer) has no children.
func (c Cursor) Children(r Reader) ([]Cursor, error) {
	c, isNull, err := c.Deref(r)
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}

	switch c.Value.Tag {
	case value.Struct:
		out := make([]Cursor, len(c.Value.Children))
		for i, member := range c.Value.Children {
			out[i] = Cursor{Value: member, Addr: c.Addr + member.Value}
		}
		return out, nil

	case value.Array:
		elem := c.Value.Type()
		stride := elementStride(elem)
		return utils.Iota(int(c.Value.Value), func(i int) Cursor {
			return Cursor{Value: elem, Addr: c.Addr + uint64(i)*stride}
		}), nil

	default:
		return nil, nil
	}
}

// elementStride resolves v through Typedefs to the terminal tag that
// carries a byte size (BaseType, Struct, Enum, Pointer), returning that
// size as the array stride.
func elementStride(v *value.Value) uint64 {
	v = v.Untypedef()
	switch v.Tag {
	case value.BaseType, value.Struct, value.Enum, value.Pointer:
		return v.Value
	default:
		return 0
	}
}

// Write dereferences c and, if it lands on a terminal BaseType, parses
// literal as a decimal integer, a hex integer (0x-prefixed), or a
// single-quoted character, and writes it through w. Any other terminal
// tag, or a null pointer along the way, is rejected.
func (c Cursor) Write(w Writer, literal string) error {
	c, isNull, err := c.Deref(w)
	if err != nil {
		return err
	}
	if isNull {
		return fmt.Errorf("walker: cannot write through a null pointer")
	}
	if c.Value.Tag != value.BaseType {
		return fmt.Errorf("walker: cannot write to a %s", c.Value.Tag)
	}

	v, err := parseLiteral(literal)
	if err != nil {
		return fmt.Errorf("walker: %w", err)
	}
	return w.WriteUint(c.Addr, c.Value.Value, v)
}

// parseLiteral accepts the literal forms the write path supports: a
// single-quoted character ('A'), or anything strconv.ParseUint's base 0
// understands (plain decimal, 0x-hex, 0-octal, 0b-binary).
func parseLiteral(s string) (uint64, error) {
	if len(s) == 3 && s[0] == '\'' && s[2] == '\'' {
		return uint64(s[1]), nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid literal %q: %w", s, err)
	}
	return v, nil
}
