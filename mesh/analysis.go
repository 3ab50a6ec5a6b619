package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/vtkmesh/utils"
)

// Bounds returns the axis aligned box around every point. An empty mesh
// returns the zero box.
func (m *Mesh) Bounds() (box r3.Box) {
	np := m.VertexCount()
	if np == 0 {
		return
	}
	box.Min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	box.Max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < np; i++ {
		p := r3.Vec{
			X: float64(m.Points[3*i]),
			Y: float64(m.Points[3*i+1]),
			Z: float64(m.Points[3*i+2]),
		}
		box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	}
	return
}

// TriangleValues broadcasts a cell field onto the triangles through the
// cell-ID map, one value per triangle
func (m *Mesh) TriangleValues(sf ScalarField) (vals []float64, err error) {
	vals = make([]float64, len(m.CellIDs))
	for i, cellID := range m.CellIDs {
		if cellID >= len(sf.Data) {
			return nil, fmt.Errorf("field %q has %d values, triangle %d needs cell %d",
				sf.Name, len(sf.Data), i, cellID)
		}
		vals[i] = sf.Data[cellID]
	}
	return
}

// CellToPointField averages a cell field onto the points, each point taking
// the mean over the triangulated cells that reference it. Points touched by no
// triangle get zero.
func (m *Mesh) CellToPointField(sf ScalarField) (ScalarField, error) {
	np := m.VertexCount()
	if np == 0 || m.NumCells == 0 {
		return ScalarField{}, fmt.Errorf("mesh has %d points and %d cells", np, m.NumCells)
	}
	if len(sf.Data) < m.NumCells {
		return ScalarField{}, fmt.Errorf("field %q has %d values for %d cells",
			sf.Name, len(sf.Data), m.NumCells)
	}
	// Point to cell incidence, built from the triangles each cell produced
	incidence := utils.NewDOK(np, m.NumCells)
	for t, cellID := range m.CellIDs {
		for _, p := range m.Indices[3*t : 3*t+3] {
			if int(p) >= np {
				return ScalarField{}, fmt.Errorf("triangle %d references point %d of %d", t, p, np)
			}
			incidence.Set(int(p), cellID, 1)
		}
	}
	incidence.SetReadOnly("incidence")
	csr := incidence.ToCSR()

	sums := csr.MulVec(sf.Data[:m.NumCells], false)
	counts := csr.MulVec(utils.ConstArray(m.NumCells, 1), false)
	for i := range sums {
		if counts[i] != 0 {
			sums[i] /= counts[i]
		}
	}
	out, _ := NewScalarField(sf.Name, sums)
	return out, nil
}
