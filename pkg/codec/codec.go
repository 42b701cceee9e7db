package codec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dbgtable/inspect/pkg/value"
)

// Encode writes root's reachable graph to w in the striped columnar
// layout described in the package doc. Encoding is byte-deterministic
// for a given graph: id assignment is pre-order, first-visit, following
// child insertion order, so the encoder never reorders children.
func Encode(w io.Writer, root *value.Value) error {
	order := flatten(root)

	bw := bufio.NewWriter(w)
	if err := putUvarint(bw, uint64(len(order))); err != nil {
		return fmt.Errorf("codec: write count: %w", err)
	}

	for _, v := range order {
		if err := putUvarint(bw, uint64(v.Tag)); err != nil {
			return fmt.Errorf("codec: write tag: %w", err)
		}
	}

	for _, v := range order {
		if err := putUvarint(bw, uint64(len(v.Name))); err != nil {
			return fmt.Errorf("codec: write name length: %w", err)
		}
	}

	for _, v := range order {
		if _, err := bw.WriteString(v.Name); err != nil {
			return fmt.Errorf("codec: write name: %w", err)
		}
	}

	for _, v := range order {
		if err := putUvarint(bw, v.Value); err != nil {
			return fmt.Errorf("codec: write value: %w", err)
		}
	}

	for _, v := range order {
		if err := putUvarint(bw, uint64(len(v.Children))); err != nil {
			return fmt.Errorf("codec: write child count: %w", err)
		}
	}

	ids := idsOf(order)
	for _, v := range order {
		for _, c := range v.Children {
			if err := putUvarint(bw, uint64(ids[c])); err != nil {
				return fmt.Errorf("codec: write child id: %w", err)
			}
		}
	}

	return bw.Flush()
}

// flatten performs the pre-order, first-visit traversal used by both
// Encode and id assignment, returning Values in dense-id order (id 0 is
// always root).
func flatten(root *value.Value) []*value.Value {
	var order []*value.Value
	seen := map[*value.Value]bool{}

	var visit func(v *value.Value)
	visit = func(v *value.Value) {
		if seen[v] {
			return
		}
		seen[v] = true
		order = append(order, v)
		for _, c := range v.Children {
			visit(c)
		}
	}
	visit(root)
	return order
}

func idsOf(order []*value.Value) map[*value.Value]int {
	ids := make(map[*value.Value]int, len(order))
	for i, v := range order {
		ids[v] = i
	}
	return ids
}

// Decode inverts Encode, returning the Root Value (values[0]). Child
// resolution is a final pass over pre-allocated skeleton Values, so
// cyclic graphs decode correctly.
func Decode(r io.Reader) (*value.Value, error) {
	br := bufio.NewReader(r)

	n, err := readUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("codec: read count: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("codec: empty table")
	}

	values := make([]*value.Value, n)
	for i := range values {
		values[i] = &value.Value{}
	}

	for i := range values {
		tag, err := readUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("codec: read tag %d: %w", i, err)
		}
		if tag > uint64(value.Typedef) {
			return nil, fmt.Errorf("codec: node %d: unknown tag %d", i, tag)
		}
		values[i].Tag = value.Tag(tag)
	}

	nameLens := make([]uint64, n)
	for i := range nameLens {
		l, err := readUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("codec: read name length %d: %w", i, err)
		}
		nameLens[i] = l
	}

	for i, l := range nameLens {
		buf := make([]byte, l)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("codec: read name %d: %w", i, err)
		}
		values[i].Name = string(buf)
	}

	for i := range values {
		v, err := readUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("codec: read value %d: %w", i, err)
		}
		values[i].Value = v
	}

	childCounts := make([]uint64, n)
	for i := range childCounts {
		c, err := readUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("codec: read child count %d: %w", i, err)
		}
		childCounts[i] = c
	}

	for i, count := range childCounts {
		children := make([]*value.Value, count)
		for j := range children {
			id, err := readUvarint(br)
			if err != nil {
				return nil, fmt.Errorf("codec: read child id (value %d, child %d): %w", i, j, err)
			}
			if id >= n {
				return nil, fmt.Errorf("codec: child id %d out of range (table has %d values)", id, n)
			}
			children[j] = values[id]
		}
		values[i].Children = children
	}

	return values[0], nil
}
