package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ScalarField is one named value per point or per cell, with its range
type ScalarField struct {
	Name string    `json:"name"`
	Min  float64   `json:"min"`
	Max  float64   `json:"max"`
	Data []float64 `json:"-"`
}

// NewScalarField seals data into a field, computing the range once. Empty data
// produces no field and ok is false.
func NewScalarField(name string, data []float64) (sf ScalarField, ok bool) {
	if len(data) == 0 {
		return
	}
	return ScalarField{
		Name: name,
		Min:  floats.Min(data),
		Max:  floats.Max(data),
		Data: data,
	}, true
}

func (sf ScalarField) Len() int { return len(sf.Data) }

func (sf ScalarField) String() string {
	return fmt.Sprintf("%s[%d] range [%g, %g]", sf.Name, len(sf.Data), sf.Min, sf.Max)
}

// Mesh is the triangulated result of one decode.
// Points has 3 floats per point, Indices has 3 point positions per triangle
// and is nil when no cell produced a triangle. CellIDs has one entry per
// triangle holding the index of the source cell.
type Mesh struct {
	// Geometry
	Points  []float32 `json:"-"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices []uint32  `json:"-"` // [i0,i1,i2, ...] triangles

	// Attributes
	PointFields []ScalarField `json:"pointFields,omitempty"`
	CellFields  []ScalarField `json:"cellFields,omitempty"`
	CellIDs     []int         `json:"-"`

	// Mesh statistics
	NumPoints int `json:"numPoints"`
	NumCells  int `json:"numCells"`
	Dimension int `json:"dimension"` // highest cell dimension, -1 with no typed cells

	Title       string   `json:"title,omitempty"`
	DatasetType string   `json:"datasetType,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// VertexCount returns the number of points in the coordinate buffer
func (m *Mesh) VertexCount() int {
	return len(m.Points) / 3
}

// NumTriangles returns the number of triangles in the index buffer
func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// HasTriangles is false for meshes that should be drawn as a point cloud
func (m *Mesh) HasTriangles() bool {
	return m.Indices != nil
}

// PointField finds a point field by name
func (m *Mesh) PointField(name string) (ScalarField, bool) {
	return findField(m.PointFields, name)
}

// CellField finds a cell field by name
func (m *Mesh) CellField(name string) (ScalarField, bool) {
	return findField(m.CellFields, name)
}

func findField(fields []ScalarField, name string) (ScalarField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return ScalarField{}, false
}
