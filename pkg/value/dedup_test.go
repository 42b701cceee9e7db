package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgtable/inspect/pkg/value"
)

// buildTwoEquivalentCUs mirrors spec scenario 6: two compile units each
// declaring `int x; char y;` as independent Value trees sharing no
// pointers, before dedup.
func buildTwoEquivalentCUs() *value.Value {
	mkCU := func(name string) *value.Value {
		intType := value.New(value.BaseType, "int", 4)
		charType := value.New(value.BaseType, "char", 1)
		x := value.New(value.Variable, "x", 0)
		x.Children = []*value.Value{intType}
		y := value.New(value.Variable, "y", 4)
		y.Children = []*value.Value{charType}
		cu := value.New(value.CompileUnit, name, 0)
		cu.Children = []*value.Value{x, y}
		return cu
	}

	root := value.New(value.Root, "", 0)
	root.Children = []*value.Value{mkCU("main.c"), mkCU("main.c")}
	return root
}

func TestDeduplicateMergesEquivalentCompileUnits(t *testing.T) {
	root := buildTwoEquivalentCUs()
	root = value.Deduplicate(root)

	require.Len(t, root.Children, 2)
	cuA, cuB := root.Children[0], root.Children[1]
	assert.Same(t, cuA, cuB, "equivalent CUs must collapse to the same pointer")
}

func TestDeduplicateSharesRepeatedBaseTypes(t *testing.T) {
	root := buildTwoEquivalentCUs()
	root = value.Deduplicate(root)

	xType := root.Children[0].Children[0].Type()
	yType := root.Children[0].Children[1].Type()
	require.NotNil(t, xType)
	require.NotNil(t, yType)
	assert.Same(t, xType, root.Children[1].Children[0].Type(), "both CUs must share one int")
	assert.NotSame(t, xType, yType, "int and char must remain distinct")
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	root := value.Deduplicate(buildTwoEquivalentCUs())
	again := value.Deduplicate(root)
	assert.Same(t, root, again)
	assert.Same(t, root.Children[0], again.Children[0])
}

func TestDeduplicateIsShapePreserving(t *testing.T) {
	before := buildTwoEquivalentCUs()
	wantVars := len(before.Variables())

	after := value.Deduplicate(before)
	assert.Equal(t, wantVars, len(after.Variables()))
	assert.Equal(t, "int x", after.Variables()[0].Pretty())
}

// TestDeduplicateTreatsSelfReferentialCyclesAsUnique exercises a
// `struct node { struct node *next; }` pointer cycle. Per the
// conservative cycle rule, dedup must not merge the two independent
// cyclic instances, but it must also not loop forever or corrupt the
// graph.
func TestDeduplicateTreatsSelfReferentialCyclesAsUnique(t *testing.T) {
	mkNode := func() *value.Value {
		node := value.New(value.Struct, "node", 8)
		next := value.New(value.Variable, "next", 0)
		ptr := value.New(value.Pointer, "", 8)
		ptr.Children = []*value.Value{node}
		next.Children = []*value.Value{ptr}
		node.Children = []*value.Value{next}
		return node
	}

	n1, n2 := mkNode(), mkNode()
	root := value.New(value.Root, "", 0)
	cu := value.New(value.CompileUnit, "list.c", 0)
	v1 := value.New(value.Variable, "head1", 0)
	v1.Children = []*value.Value{n1}
	v2 := value.New(value.Variable, "head2", 0)
	v2.Children = []*value.Value{n2}
	cu.Children = []*value.Value{v1, v2}
	root.Children = []*value.Value{cu}

	require.NotPanics(t, func() {
		root = value.Deduplicate(root)
	})

	assert.Equal(t, "struct node", root.Variables()[0].Type().Pretty())
	assert.Equal(t, "struct node", root.Variables()[1].Type().Pretty())
	assert.NotSame(t, root.Variables()[0].Type(), root.Variables()[1].Type())
}

func TestDeepEqualDetectsCycleShapeMismatch(t *testing.T) {
	// a: single-node cycle (period 1).
	a := value.New(value.Struct, "s", 8)
	aNext := value.New(value.Variable, "next", 0)
	aPtr := value.New(value.Pointer, "", 8)
	aPtr.Children = []*value.Value{a}
	aNext.Children = []*value.Value{aPtr}
	a.Children = []*value.Value{aNext}

	// b -> c -> b: two-node cycle (period 2), same tag/name/value shape.
	b := value.New(value.Struct, "s", 8)
	c := value.New(value.Struct, "s", 8)
	bNext := value.New(value.Variable, "next", 0)
	bPtr := value.New(value.Pointer, "", 8)
	bPtr.Children = []*value.Value{c}
	bNext.Children = []*value.Value{bPtr}
	b.Children = []*value.Value{bNext}

	cNext := value.New(value.Variable, "next", 0)
	cPtr := value.New(value.Pointer, "", 8)
	cPtr.Children = []*value.Value{b}
	cNext.Children = []*value.Value{cPtr}
	c.Children = []*value.Value{cNext}

	assert.False(t, value.DeepEqual(a, b))
}
