package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgtable/inspect/pkg/value"
)

func TestTagString(t *testing.T) {
	assert.Equal(t, "Struct", value.Struct.String())
	assert.Equal(t, "Tag(255)", value.Tag(255).String())
}

func TestTypeAndBottom(t *testing.T) {
	intType := value.New(value.BaseType, "int", 4)
	ptr := value.New(value.Pointer, "", 8)
	ptr.Children = []*value.Value{intType}
	td := value.New(value.Typedef, "int_ptr_t", 0)
	td.Children = []*value.Value{ptr}

	require.Equal(t, ptr, td.Type())
	require.Equal(t, intType, td.Bottom())
	require.Equal(t, ptr, td.Untypedef())
}

func TestVariablesAndFindVariable(t *testing.T) {
	intType := value.New(value.BaseType, "int", 4)
	x := value.New(value.Variable, "x", 0)
	x.Children = []*value.Value{intType}
	cu := value.New(value.CompileUnit, "main.c", 0)
	cu.Children = []*value.Value{x}
	root := value.New(value.Root, "", 0)
	root.Children = []*value.Value{cu}

	assert.Equal(t, []*value.Value{x}, root.Variables())
	assert.Same(t, x, root.FindVariable("x"))
	assert.Nil(t, root.FindVariable("missing"))
}

func TestPretty(t *testing.T) {
	intType := value.New(value.BaseType, "int", 4)
	arr := value.New(value.Array, "", 3)
	arr.Children = []*value.Value{intType}
	v := value.New(value.Variable, "buf", 0)
	v.Children = []*value.Value{arr}

	assert.Equal(t, "int[3] buf", v.Pretty())
}

func TestVoidTypeIsDistinctInstance(t *testing.T) {
	a := value.VoidType()
	b := value.VoidType()
	assert.NotSame(t, a, b)
	assert.True(t, value.DeepEqual(a, b))
}
