package utils

// CellType is the VTK linear cell type code, as stored in CELL_TYPES sections
// and in the "types" array of XML unstructured grids
type CellType uint8

const (
	Unknown       CellType = 0
	Vertex        CellType = 1
	PolyVertex    CellType = 2
	Line          CellType = 3
	PolyLine      CellType = 4
	Triangle      CellType = 5
	TriangleStrip CellType = 6
	Polygon       CellType = 7
	Pixel         CellType = 8
	Quad          CellType = 9
	Tetra         CellType = 10
	Voxel         CellType = 11
	Hexahedron    CellType = 12
	Wedge         CellType = 13
	Pyramid       CellType = 14
)

// CellTypeFromCode converts a type code read from a file. Codes outside the
// linear range, including nonlinear and negative ones, come back as Unknown.
func CellTypeFromCode(code int64) CellType {
	if code < int64(Unknown) || code > int64(Pyramid) {
		return Unknown
	}
	return CellType(code)
}

// String representation of cell types
func (c CellType) String() string {
	names := []string{
		"Unknown",
		"Vertex", "PolyVertex",
		"Line", "PolyLine",
		"Triangle", "TriangleStrip", "Polygon", "Pixel", "Quad",
		"Tetra", "Voxel", "Hexahedron", "Wedge", "Pyramid",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "Invalid"
}

// GetDimension returns the topological dimension of the cell
func (c CellType) GetDimension() int {
	switch c {
	case Vertex, PolyVertex:
		return 0
	case Line, PolyLine:
		return 1
	case Triangle, TriangleStrip, Polygon, Pixel, Quad:
		return 2
	case Tetra, Voxel, Hexahedron, Wedge, Pyramid:
		return 3
	default:
		return -1
	}
}

// MinNodes returns the smallest vertex list the cell type can be built from.
// Variable arity cells report their lower bound.
func (c CellType) MinNodes() int {
	switch c {
	case Vertex, PolyVertex:
		return 1
	case Line, PolyLine:
		return 2
	case Triangle, TriangleStrip, Polygon:
		return 3
	case Pixel, Quad, Tetra:
		return 4
	case Pyramid:
		return 5
	case Wedge:
		return 6
	case Voxel, Hexahedron:
		return 8
	default:
		return 0
	}
}

// CellTypeForArity guesses a cell type from its vertex count alone. It is the
// poly-data fallback used when a file carries no explicit cell types, and it
// is an approximation: a two point strip segment comes back as a Line and a
// three point polygon comes back as a Triangle.
func CellTypeForArity(n int) CellType {
	switch {
	case n <= 0:
		return Unknown
	case n == 1:
		return Vertex
	case n == 2:
		return Line
	case n == 3:
		return Triangle
	case n == 4:
		return Quad
	default:
		return Polygon
	}
}

// Local vertex positions of the boundary faces of each 3D cell. Quad faces are
// listed so that splitting along positions 0-2 gives the rendered triangles.
var (
	tetraFaces = [][]int{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 1},
		{1, 3, 2},
	}
	hexahedronFaces = [][]int{
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
		{0, 3, 2, 1},
		{4, 5, 6, 7},
	}
	wedgeFaces = [][]int{
		{0, 1, 2},    // bottom cap
		{3, 5, 4},    // top cap
		{0, 1, 4, 3}, // sides
		{1, 2, 5, 4},
		{2, 0, 3, 5},
	}
	pyramidFaces = [][]int{
		{0, 1, 2, 3}, // base
		{0, 1, 4},
		{1, 2, 4},
		{2, 3, 4},
		{3, 0, 4},
	}
)

// GetCellFaces returns the faces of a 3D cell as local vertex positions, nil
// for cells that are not volumes
func GetCellFaces(c CellType) [][]int {
	switch c {
	case Tetra:
		return tetraFaces
	case Hexahedron:
		return hexahedronFaces
	case Wedge:
		return wedgeFaces
	case Pyramid:
		return pyramidFaces
	default:
		return nil
	}
}
