package mesh

import (
	"fmt"
	"slices"

	"github.com/notargets/vtkmesh/utils"
)

// Assembler collects the output of a decoder and produces the final Mesh.
// Decoders feed it points, cells and sealed fields in file order; cells are
// triangulated as they arrive and only their triangles and index survive.
type Assembler struct {
	points      []float32
	indices     []uint32
	cellIDs     []int
	numCells    int
	dimension   int
	pointFields []ScalarField
	cellFields  []ScalarField
	warnings    []string

	Title       string
	DatasetType string
}

func NewAssembler() *Assembler {
	return &Assembler{dimension: -1}
}

// SetPoints installs the coordinate buffer. A trailing partial point is
// dropped with a warning.
func (a *Assembler) SetPoints(points []float32) {
	if rem := len(points) % 3; rem != 0 {
		a.Warnf("point buffer has %d trailing coordinates, dropping them", rem)
		points = points[:len(points)-rem]
	}
	if nNan := utils.CountNan(points); nNan != 0 {
		a.Warnf("point buffer contains %d NaN coordinates", nNan)
	}
	a.points = points
}

// NumPoints returns the number of points installed so far
func (a *Assembler) NumPoints() int {
	return len(a.points) / 3
}

// NumCells returns the number of cells added so far, including those that
// produced no triangles
func (a *Assembler) NumCells() int {
	return a.numCells
}

// AddCell triangulates one cell and records its index once per triangle
// emitted. It returns the number of triangles the cell produced.
func (a *Assembler) AddCell(ct utils.CellType, verts []int32) (count int) {
	cellID := a.numCells
	a.numCells++
	a.dimension = max(a.dimension, ct.GetDimension())
	n := utils.TriangleCount(ct, len(verts))
	a.indices = slices.Grow(a.indices, 3*n)
	a.cellIDs = slices.Grow(a.cellIDs, n)
	a.indices, count = utils.Triangulate(a.indices, ct, verts)
	for i := 0; i < count; i++ {
		a.cellIDs = append(a.cellIDs, cellID)
	}
	return
}

// AddPointField seals and attaches a point field. Empty data is discarded.
func (a *Assembler) AddPointField(name string, data []float64) bool {
	sf, ok := a.sealField("point", name, data, a.NumPoints())
	if ok {
		a.pointFields = append(a.pointFields, sf)
	}
	return ok
}

// AddCellField seals and attaches a cell field. It must be called after every
// cell has been added, so the count check sees the final cell count.
func (a *Assembler) AddCellField(name string, data []float64) bool {
	sf, ok := a.sealField("cell", name, data, a.numCells)
	if ok {
		a.cellFields = append(a.cellFields, sf)
	}
	return ok
}

func (a *Assembler) sealField(kind, name string, data []float64, expected int) (ScalarField, bool) {
	if len(data) > expected {
		a.Warnf("%s field %q has %d values for %d %ss, truncating",
			kind, name, len(data), expected, kind)
		data = data[:expected]
	} else if len(data) < expected {
		a.Warnf("%s field %q has %d values for %d %ss",
			kind, name, len(data), expected, kind)
	}
	sf, ok := NewScalarField(name, data)
	if !ok {
		a.Warnf("%s field %q is empty, skipping", kind, name)
	}
	return sf, ok
}

// Warnf records a non fatal problem found while decoding
func (a *Assembler) Warnf(format string, args ...interface{}) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}

// Mesh hands the assembled buffers to the caller. The assembler must not be
// used afterwards.
func (a *Assembler) Mesh() *Mesh {
	m := &Mesh{
		Points:      a.points,
		PointFields: a.pointFields,
		CellFields:  a.cellFields,
		CellIDs:     a.cellIDs,
		NumPoints:   a.NumPoints(),
		NumCells:    a.numCells,
		Dimension:   a.dimension,
		Title:       a.Title,
		DatasetType: a.DatasetType,
		Warnings:    a.warnings,
	}
	if m.Points == nil {
		m.Points = []float32{}
	}
	// No triangles means the caller draws the points as they are
	if len(a.indices) != 0 {
		m.Indices = a.indices
	} else {
		m.CellIDs = []int{}
	}
	return m
}
