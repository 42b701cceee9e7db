package value

// Structural deduplication: given a Root, rewrite every maximal subtree
// that is deeply equal to another into a shared Value, producing a
// minimal DAG. DWARF emits identical "int", "char", common structs, and
// typedef chains in every compile unit; without this pass the encoded
// table is several times larger than it needs to be.
//
// Grounded on the original tool's value.py `deduplicate`/`value_contents`
// (_examples/original_source/src/value.py): group by a cheap key, then
// compare deeply within the bucket, memoizing per-Value so the whole
// pass is O(N*k) in the number of nodes times bucket size.

// pairKey identifies an in-progress comparison of two Values, used to
// detect when a comparison has looped back on itself through a cycle.
type pairKey struct {
	a, b *Value
}

// bucketKey is the cheap pre-filter used to group candidates before the
// expensive deep comparison: two Values can only be deeply equal if
// this tuple matches.
type bucketKey struct {
	tag      Tag
	name     string
	value    uint64
	children int
}

func keyOf(v *Value) bucketKey {
	return bucketKey{v.Tag, v.Name, v.Value, len(v.Children)}
}

// DeepEqual reports whether a and b are structurally identical: same
// tag, name, value and children, recursively. Cycles are handled with a
// coinductive rule: if the comparison loops back to a pair already
// being compared, the pair is treated as equal only if it closes the
// cycle at the exact same comparison depth it was opened at. This is a
// deliberately conservative rule that
// never produces a false positive, at the cost of treating distinct
// instances of an isomorphic cycle (e.g. two separate `struct node
// *next` chains) as merely "not proven different" rather than "proven
// equal", so such cycles are never merged by Deduplicate. The spec
// explicitly allows this: an implementation that treats any
// cycle-participant as unique is acceptable, the encoder and walker
// still work correctly, the encoded table is just not maximally
// compact.
func DeepEqual(a, b *Value) bool {
	return deepEqual(a, b, map[pairKey]int{}, 0)
}

func deepEqual(a, b *Value, stack map[pairKey]int, depth int) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	key := pairKey{a, b}
	if openedAt, active := stack[key]; active {
		return openedAt == depth
	}

	if a.Tag != b.Tag || a.Name != b.Name || a.Value != b.Value || len(a.Children) != len(b.Children) {
		return false
	}

	stack[key] = depth
	defer delete(stack, key)

	for i := range a.Children {
		if !deepEqual(a.Children[i], b.Children[i], stack, depth+1) {
			return false
		}
	}
	return true
}

// Deduplicate rewrites the graph reachable from root so that every
// maximal subtree deeply equal to another is replaced by a single
// shared Value, and returns the (possibly unchanged) root. The
// operation mutates Children in place, is idempotent, and never alters
// observable shape: a walker run against the graph before and after
// dedup reads back identical results.
func Deduplicate(root *Value) *Value {
	d := &deduplicator{
		memo:    map[*Value]*Value{},
		buckets: map[bucketKey][]*Value{},
	}
	return d.run(root)
}

type deduplicator struct {
	memo    map[*Value]*Value
	buckets map[bucketKey][]*Value
}

func (d *deduplicator) run(v *Value) *Value {
	if rep, ok := d.memo[v]; ok {
		return rep
	}

	// Provisionally map v to itself before recursing, so that a cycle
	// reaching back to v during its own walk resolves to v rather than
	// recursing forever.
	d.memo[v] = v

	for i, c := range v.Children {
		v.Children[i] = d.run(c)
	}

	key := keyOf(v)
	for _, rep := range d.buckets[key] {
		if DeepEqual(v, rep) {
			d.memo[v] = rep
			return rep
		}
	}

	d.buckets[key] = append(d.buckets[key], v)
	return v
}
