package walker

import (
	"fmt"
	"strconv"
)

// Resolve walks a dotted/indexed path (e.g. "head.next[2].value")
// starting at the named top-level variable, applying one struct-member
// step (.field) or array-index step ([n]) at a time. Each step derefs
// the current cursor before searching its children, so pointers and
// typedefs along the way are transparent to the path syntax.
//
// Grounded in the tokenizer/recursive-descent shape of the teacher's
// expression evaluator (_examples/.../debugger/eval.go), adapted from
// an arithmetic grammar to this postfix field/index grammar.
func (tab *Table) Resolve(t Transport, path string) (Cursor, error) {
	name, rest, err := splitIdent(path)
	if err != nil {
		return Cursor{}, err
	}

	cur, err := tab.Cursor(name)
	if err != nil {
		return Cursor{}, err
	}

	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			var field string
			field, rest, err = splitIdent(rest[1:])
			if err != nil {
				return Cursor{}, err
			}
			cur, err = fieldOf(t, cur, field)
			if err != nil {
				return Cursor{}, err
			}

		case '[':
			var idx uint64
			idx, rest, err = splitIndex(rest)
			if err != nil {
				return Cursor{}, err
			}
			cur, err = indexOf(t, cur, idx)
			if err != nil {
				return Cursor{}, err
			}

		default:
			return Cursor{}, fmt.Errorf("walker: unexpected character %q in path %q", rest[0], path)
		}
	}

	return cur, nil
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// splitIdent consumes a leading run of identifier bytes from s and
// returns it along with whatever follows.
func splitIdent(s string) (ident, rest string, err error) {
	end := 0
	for end < len(s) && isIdentByte(s[end]) {
		end++
	}
	if end == 0 {
		return "", "", fmt.Errorf("walker: expected an identifier in path, got %q", s)
	}
	return s[:end], s[end:], nil
}

// splitIndex consumes a leading "[N]" from s and returns the parsed
// index along with whatever follows.
func splitIndex(s string) (idx uint64, rest string, err error) {
	if len(s) == 0 || s[0] != '[' {
		return 0, "", fmt.Errorf("walker: expected '[' in path, got %q", s)
	}
	close := 1
	for close < len(s) && s[close] != ']' {
		close++
	}
	if close >= len(s) {
		return 0, "", fmt.Errorf("walker: unterminated '[' in path %q", s)
	}
	n, err := strconv.ParseUint(s[1:close], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("walker: invalid array index %q: %w", s[1:close], err)
	}
	return n, s[close+1:], nil
}

func fieldOf(t Transport, cur Cursor, name string) (Cursor, error) {
	children, err := cur.Children(t)
	if err != nil {
		return Cursor{}, err
	}
	for _, c := range children {
		if c.Value.Name == name {
			return c, nil
		}
	}
	return Cursor{}, fmt.Errorf("walker: no field %q on %s", name, cur.Value.Pretty())
}

func indexOf(t Transport, cur Cursor, idx uint64) (Cursor, error) {
	children, err := cur.Children(t)
	if err != nil {
		return Cursor{}, err
	}
	if idx >= uint64(len(children)) {
		return Cursor{}, fmt.Errorf("walker: index %d out of range (%d elements)", idx, len(children))
	}
	return children[idx], nil
}
