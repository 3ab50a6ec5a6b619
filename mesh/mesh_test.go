package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/vtkmesh/utils"
)

// unit square split into a quad and a triangle sharing the edge 1-2
func buildQuadTriMesh(t *testing.T) *Mesh {
	t.Helper()
	a := NewAssembler()
	a.SetPoints([]float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		2, 0, 0,
	})
	assert.Equal(t, 2, a.AddCell(utils.Quad, []int32{0, 1, 2, 3}))
	assert.Equal(t, 1, a.AddCell(utils.Triangle, []int32{1, 4, 2}))
	require.True(t, a.AddCellField("pressure", []float64{1, 4}))
	require.True(t, a.AddPointField("temp", []float64{5, -1, 3, 3, 0}))
	return a.Mesh()
}

func TestNewScalarField(t *testing.T) {
	sf, ok := NewScalarField("p", []float64{3, -2, 7, 7, 0})
	require.True(t, ok)
	assert.Equal(t, -2., sf.Min)
	assert.Equal(t, 7., sf.Max)
	assert.Equal(t, 5, sf.Len())

	_, ok = NewScalarField("empty", nil)
	assert.False(t, ok)

	sf, ok = NewScalarField("single", []float64{4.5})
	require.True(t, ok)
	assert.Equal(t, sf.Min, sf.Max)
}

func TestAssemblerMesh(t *testing.T) {
	m := buildQuadTriMesh(t)
	assert.Equal(t, 5, m.NumPoints)
	assert.Equal(t, 2, m.NumCells)
	assert.Equal(t, 3, m.NumTriangles())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 1, 4, 2}, m.Indices)
	assert.Equal(t, []int{0, 0, 1}, m.CellIDs)
	assert.Equal(t, len(m.Indices)/3, len(m.CellIDs))
	assert.Equal(t, 2, m.Dimension)
	assert.Empty(t, m.Warnings)

	p, ok := m.CellField("pressure")
	require.True(t, ok)
	assert.Equal(t, 1., p.Min)
	assert.Equal(t, 4., p.Max)
	_, ok = m.PointField("pressure")
	assert.False(t, ok)
}

func TestAssemblerNoTriangles(t *testing.T) {
	a := NewAssembler()
	a.SetPoints([]float32{0, 0, 0, 1, 1, 1})
	assert.Equal(t, 0, a.AddCell(utils.Line, []int32{0, 1}))
	m := a.Mesh()
	assert.Nil(t, m.Indices)
	assert.False(t, m.HasTriangles())
	assert.Empty(t, m.CellIDs)
	assert.Equal(t, 1, m.NumCells)
	assert.Equal(t, 1, m.Dimension)
	assert.Equal(t, 2, m.VertexCount())
}

func TestAssemblerMixedCells(t *testing.T) {
	a := NewAssembler()
	a.SetPoints(make([]float32, 3*8))
	assert.Equal(t, 0, a.AddCell(utils.Unknown, []int32{0, 1, 2}))
	assert.Equal(t, 12, a.AddCell(utils.Hexahedron, []int32{0, 1, 2, 3, 4, 5, 6, 7}))
	assert.Equal(t, 0, a.AddCell(utils.Hexahedron, []int32{0, 1, 2}))
	assert.Equal(t, 4, a.AddCell(utils.Tetra, []int32{0, 1, 2, 3}))
	m := a.Mesh()
	assert.Equal(t, 4, m.NumCells)
	assert.Equal(t, 16, m.NumTriangles())
	assert.Equal(t, 3, m.Dimension)
	assert.Len(t, m.CellIDs, 16)
	assert.Equal(t, 1, m.CellIDs[0])
	assert.Equal(t, 3, m.CellIDs[15])
}

func TestAssemblerWarnings(t *testing.T) {
	a := NewAssembler()
	a.SetPoints([]float32{0, 0, 0, 1, float32(math.NaN()), 0, 7})
	assert.Equal(t, 2, a.NumPoints())
	a.AddCell(utils.Vertex, []int32{0})
	assert.True(t, a.AddPointField("long", []float64{1, 2, 3}))
	assert.False(t, a.AddCellField("short", nil))
	m := a.Mesh()
	sf, ok := m.PointField("long")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, sf.Data)
	assert.Equal(t, 2., sf.Max)
	// trailing coordinate, NaN, long field, short field, empty field
	assert.Len(t, m.Warnings, 5)
}

func TestBounds(t *testing.T) {
	m := buildQuadTriMesh(t)
	box := m.Bounds()
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: 0}, box.Min)
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 0}, box.Max)

	empty := NewAssembler().Mesh()
	assert.Equal(t, r3.Box{}, empty.Bounds())
	assert.Equal(t, -1, empty.Dimension)
}

func TestTriangleValues(t *testing.T) {
	m := buildQuadTriMesh(t)
	p, _ := m.CellField("pressure")
	vals, err := m.TriangleValues(p)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 4}, vals)

	_, err = m.TriangleValues(ScalarField{Name: "short", Data: []float64{1}})
	assert.Error(t, err)
}

func TestCellToPointField(t *testing.T) {
	m := buildQuadTriMesh(t)
	p, _ := m.CellField("pressure")
	pf, err := m.CellToPointField(p)
	require.NoError(t, err)
	// Points 1 and 2 are shared by both cells
	assert.InDeltaSlice(t, []float64{1, 2.5, 2.5, 1, 4}, pf.Data, 1e-12)
	assert.Equal(t, 1., pf.Min)
	assert.Equal(t, 4., pf.Max)

	_, err = m.CellToPointField(ScalarField{Name: "short", Data: []float64{1}})
	assert.Error(t, err)
}
