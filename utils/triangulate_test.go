package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = int32(i)
	}
	return v
}

func TestTriangulateMinimalCells(t *testing.T) {
	testCases := []struct {
		ct       CellType
		arity    int
		expected int
	}{
		{Triangle, 3, 1},
		{Polygon, 3, 1},
		{Polygon, 5, 3},
		{Polygon, 8, 6},
		{Quad, 4, 2},
		{Tetra, 4, 4},
		{Hexahedron, 8, 12},
		{Wedge, 6, 8},
		{Pyramid, 5, 6},
	}
	for _, tc := range testCases {
		t.Run(tc.ct.String(), func(t *testing.T) {
			out, count := Triangulate(nil, tc.ct, seq(tc.arity))
			assert.Equal(t, tc.expected, count)
			assert.Equal(t, 3*tc.expected, len(out))
			assert.Equal(t, tc.expected, TriangleCount(tc.ct, tc.arity))
		})
	}
}

func TestTriangulateExactIndices(t *testing.T) {
	{ // Quad splits along 0-2
		out, count := Triangulate(nil, Quad, []int32{10, 11, 12, 13})
		require.Equal(t, 2, count)
		assert.Equal(t, []uint32{10, 11, 12, 10, 12, 13}, out)
	}
	{ // Polygon fans from vertex 0
		out, _ := Triangulate(nil, Polygon, []int32{4, 5, 6, 7, 8})
		assert.Equal(t, []uint32{4, 5, 6, 4, 6, 7, 4, 7, 8}, out)
	}
	{
		out, _ := Triangulate(nil, Tetra, seq(4))
		assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 1, 1, 3, 2}, out)
	}
	{
		out, _ := Triangulate(nil, Pyramid, seq(5))
		assert.Equal(t, []uint32{
			0, 1, 2, 0, 2, 3,
			0, 1, 4, 1, 2, 4, 2, 3, 4, 3, 0, 4,
		}, out)
	}
	{
		out, _ := Triangulate(nil, Wedge, seq(6))
		assert.Equal(t, []uint32{
			0, 1, 2,
			3, 5, 4,
			0, 1, 4, 0, 4, 3,
			1, 2, 5, 1, 5, 4,
			2, 0, 3, 2, 3, 5,
		}, out)
	}
	{
		out, _ := Triangulate(nil, Hexahedron, seq(8))
		require.Len(t, out, 36)
		// First face {0,1,5,4} and last face {4,5,6,7}
		assert.Equal(t, []uint32{0, 1, 5, 0, 5, 4}, out[:6])
		assert.Equal(t, []uint32{4, 5, 6, 4, 6, 7}, out[30:])
	}
}

func TestTriangulateSkipsBadCells(t *testing.T) {
	dst := []uint32{9, 9, 9}
	testCases := []struct {
		name  string
		ct    CellType
		verts []int32
	}{
		{"short quad", Quad, seq(3)},
		{"short hex", Hexahedron, seq(7)},
		{"short polygon", Polygon, seq(2)},
		{"line", Line, seq(2)},
		{"vertex", Vertex, seq(1)},
		{"strip", TriangleStrip, seq(4)},
		{"voxel", Voxel, seq(8)},
		{"unknown code", CellType(42), seq(4)},
		{"empty", Triangle, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, count := Triangulate(dst, tc.ct, tc.verts)
			assert.Equal(t, 0, count)
			assert.Equal(t, []uint32{9, 9, 9}, out)
		})
	}
}

func TestTriangulateDoesNotMutateInput(t *testing.T) {
	verts := []int32{3, 1, 4, 1, 5, 9, 2, 6}
	orig := append([]int32(nil), verts...)
	Triangulate(nil, Hexahedron, verts)
	assert.Equal(t, orig, verts)
}

func TestCellTypeForArity(t *testing.T) {
	assert.Equal(t, Unknown, CellTypeForArity(0))
	assert.Equal(t, Vertex, CellTypeForArity(1))
	assert.Equal(t, Line, CellTypeForArity(2))
	assert.Equal(t, Triangle, CellTypeForArity(3))
	assert.Equal(t, Quad, CellTypeForArity(4))
	assert.Equal(t, Polygon, CellTypeForArity(5))
	assert.Equal(t, Polygon, CellTypeForArity(12))
}

func TestCellTypeStrings(t *testing.T) {
	assert.Equal(t, "Hexahedron", Hexahedron.String())
	assert.Equal(t, "Line", Line.String())
	assert.Equal(t, "Invalid", CellType(200).String())
	assert.Equal(t, 3, Wedge.GetDimension())
	assert.Equal(t, -1, CellType(99).GetDimension())
	assert.Equal(t, 1, Line.GetDimension())
	assert.Nil(t, GetCellFaces(Quad))
	assert.Len(t, GetCellFaces(Hexahedron), 6)
}

func TestCellTypeFromCode(t *testing.T) {
	assert.Equal(t, Triangle, CellTypeFromCode(5))
	assert.Equal(t, Pyramid, CellTypeFromCode(14))
	assert.Equal(t, Unknown, CellTypeFromCode(0))
	// 261 would wrap to Triangle as a uint8
	assert.Equal(t, Unknown, CellTypeFromCode(261))
	assert.Equal(t, Unknown, CellTypeFromCode(22))
	assert.Equal(t, Unknown, CellTypeFromCode(-1))
	assert.Equal(t, Unknown, CellTypeFromCode(-251))
}
