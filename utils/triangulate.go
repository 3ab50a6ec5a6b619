package utils

// Triangulate appends the surface triangles of one cell to dst and returns the
// grown buffer together with the number of triangles appended. verts holds the
// cell's point indices in VTK order and is never modified.
//
// Cells with an unsupported type, or with fewer vertices than their type
// needs, append nothing. Quad faces are always split along their 0-2 diagonal.
func Triangulate(dst []uint32, ct CellType, verts []int32) ([]uint32, int) {
	n := len(verts)
	if n < ct.MinNodes() {
		return dst, 0
	}
	switch ct {
	case Triangle:
		dst = appendTri(dst, verts, 0, 1, 2)
		return dst, 1
	case Polygon:
		for k := 1; k < n-1; k++ {
			dst = appendTri(dst, verts, 0, k, k+1)
		}
		return dst, n - 2
	case Quad:
		dst = appendQuad(dst, verts, 0, 1, 2, 3)
		return dst, 2
	case Tetra, Hexahedron, Wedge, Pyramid:
		var count int
		for _, face := range GetCellFaces(ct) {
			switch len(face) {
			case 3:
				dst = appendTri(dst, verts, face[0], face[1], face[2])
				count++
			case 4:
				dst = appendQuad(dst, verts, face[0], face[1], face[2], face[3])
				count += 2
			}
		}
		return dst, count
	default:
		return dst, 0
	}
}

// TriangleCount reports how many triangles Triangulate would emit for a cell
// of type ct with n vertices
func TriangleCount(ct CellType, n int) int {
	if n < ct.MinNodes() {
		return 0
	}
	switch ct {
	case Triangle:
		return 1
	case Polygon:
		return n - 2
	case Quad:
		return 2
	case Tetra:
		return 4
	case Hexahedron:
		return 12
	case Wedge:
		return 8
	case Pyramid:
		return 6
	default:
		return 0
	}
}

func appendTri(dst []uint32, verts []int32, a, b, c int) []uint32 {
	return append(dst, uint32(verts[a]), uint32(verts[b]), uint32(verts[c]))
}

func appendQuad(dst []uint32, verts []int32, a, b, c, d int) []uint32 {
	dst = appendTri(dst, verts, a, b, c)
	return appendTri(dst, verts, a, c, d)
}
