package readers

import (
	"fmt"
	"os"
	"strings"

	"github.com/notargets/vtkmesh/mesh"
	"github.com/notargets/vtkmesh/utils"
)

const zlibCompressor = "vtkZLibDataCompressor"

var cellArrayNames = []string{"connectivity", "offsets", "types"}

// ReadVTU reads a VTK XML file (.vtu or .vtp)
func ReadVTU(filename string) (*mesh.Mesh, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseVTU(buf)
}

// ParseVTU decodes a VTK XML UnstructuredGrid or PolyData document. Only the
// first Piece is read. Arrays that fail to decode are dropped with a warning;
// a missing root, grid, piece, points array or cell array is an error.
func ParseVTU(buf []byte) (*mesh.Mesh, error) {
	doc, err := scanDocument(buf)
	if err != nil {
		return nil, err
	}
	switch {
	case !doc.HasRoot:
		return nil, ErrNoVTKFile
	case doc.GridTag == "":
		return nil, fmt.Errorf("%w: expected UnstructuredGrid or PolyData", ErrNoGrid)
	case doc.Piece == nil:
		return nil, ErrNoPiece
	}

	asm := mesh.NewAssembler()
	asm.DatasetType = doc.GridTag
	for _, w := range doc.Warnings {
		asm.Warnf("%s", w)
	}
	if doc.NumPieces > 1 {
		asm.Warnf("file has %d pieces, only the first is read", doc.NumPieces)
	}

	d := &arrayDecoder{doc: doc, buf: buf, asm: asm}
	piece := doc.Piece

	points := piece.Groups["Points"]
	if points == nil || len(points.Arrays) == 0 {
		return nil, ErrNoPoints
	}
	d.readPoints(points.Arrays[0], piece.Count("NumberOfPoints"))

	if doc.GridTag == "PolyData" {
		d.readPolyCells(piece)
	} else {
		cells := piece.Groups["Cells"]
		conn, offsets, types := cells.Find("connectivity"), cells.Find("offsets"), cells.Find("types")
		for i, a := range []*xmlArray{conn, offsets, types} {
			if a == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoCellArray, cellArrayNames[i])
			}
		}
		d.readCells(conn, offsets, types, piece.Count("NumberOfCells"))
	}

	for _, a := range groupArrays(piece.Groups["PointData"]) {
		if vals, ok := d.scalarValues(a); ok {
			asm.AddPointField(a.Name, vals)
		}
	}
	for _, a := range groupArrays(piece.Groups["CellData"]) {
		if vals, ok := d.scalarValues(a); ok {
			asm.AddCellField(a.Name, vals)
		}
	}
	return asm.Mesh(), nil
}

func groupArrays(g *xmlGroup) []*xmlArray {
	if g == nil {
		return nil
	}
	return g.Arrays
}

// arrayDecoder turns DataArray elements into values, resolving the appended
// segment the first time an appended array needs it
type arrayDecoder struct {
	doc *xmlDocument
	buf []byte
	asm *mesh.Assembler

	appended    []byte
	appendedErr error
	resolved    bool
}

func (d *arrayDecoder) readPoints(a *xmlArray, declared int) {
	da, err := d.decode(a)
	if err != nil {
		d.asm.Warnf("points array: %v", err)
		d.asm.SetPoints(nil)
		return
	}
	coords := da.Float32s()
	if a.Components != 3 {
		d.asm.Warnf("points array has %d components, expected 3", a.Components)
	}
	if declared >= 0 && len(coords) != 3*declared {
		d.asm.Warnf("NumberOfPoints is %d but the points array holds %d coordinates",
			declared, len(coords))
		if len(coords) > 3*declared {
			coords = coords[:3*declared]
		}
	}
	d.asm.SetPoints(coords)
}

// readCells walks the cells of an UnstructuredGrid piece. Cell i uses
// connectivity[offsets[i-1]:offsets[i]].
func (d *arrayDecoder) readCells(connA, offsetsA, typesA *xmlArray, declared int) {
	conn := d.int32Array("connectivity", connA)
	offsets := d.int32Array("offsets", offsetsA)
	types := d.int32Array("types", typesA)

	nCells := min(len(offsets), len(types))
	if declared >= 0 {
		nCells = min(nCells, declared)
		if declared != len(offsets) || declared != len(types) {
			d.asm.Warnf("NumberOfCells is %d but offsets has %d and types has %d entries",
				declared, len(offsets), len(types))
		}
	}
	var start int32
	for i := 0; i < nCells; i++ {
		end := offsets[i]
		if end < start || int(end) > len(conn) {
			d.asm.Warnf("cell %d has offset %d outside [%d, %d], stopping", i, end, start, len(conn))
			break
		}
		d.asm.AddCell(utils.CellTypeFromCode(int64(types[i])), conn[start:end])
		start = end
	}
}

// PolyData topology groups in the order VTK numbers their cells
var polyGroups = []struct {
	tag, count string
	cellType   func(n int) utils.CellType
}{
	{"Verts", "NumberOfVerts", func(n int) utils.CellType {
		if n == 1 {
			return utils.Vertex
		}
		return utils.PolyVertex
	}},
	{"Lines", "NumberOfLines", func(n int) utils.CellType {
		if n == 2 {
			return utils.Line
		}
		return utils.PolyLine
	}},
	{"Polys", "NumberOfPolys", func(int) utils.CellType { return utils.Polygon }},
	{"Strips", "NumberOfStrips", func(int) utils.CellType { return utils.TriangleStrip }},
}

func (d *arrayDecoder) readPolyCells(piece *xmlPiece) {
	for _, pg := range polyGroups {
		g := piece.Groups[pg.tag]
		if g == nil {
			continue
		}
		connA, offsetsA := g.Find("connectivity"), g.Find("offsets")
		if connA == nil || offsetsA == nil {
			d.asm.Warnf("%s is missing its connectivity or offsets array", pg.tag)
			continue
		}
		conn := d.int32Array(pg.tag+" connectivity", connA)
		offsets := d.int32Array(pg.tag+" offsets", offsetsA)
		nCells := len(offsets)
		if declared := piece.Count(pg.count); declared >= 0 && declared != nCells {
			d.asm.Warnf("%s is %d but offsets has %d entries", pg.count, declared, nCells)
			nCells = min(nCells, declared)
		}
		var start int32
		for i := 0; i < nCells; i++ {
			end := offsets[i]
			if end < start || int(end) > len(conn) {
				d.asm.Warnf("%s cell %d has offset %d outside [%d, %d], stopping",
					pg.tag, i, end, start, len(conn))
				break
			}
			verts := conn[start:end]
			d.asm.AddCell(pg.cellType(len(verts)), verts)
			start = end
		}
	}
}

func (d *arrayDecoder) int32Array(label string, a *xmlArray) []int32 {
	da, err := d.decode(a)
	if err != nil {
		d.asm.Warnf("%s array: %v", label, err)
		return nil
	}
	return da.Int32s()
}

// scalarValues decodes a single component attribute array. Arrays with more
// components are skipped.
func (d *arrayDecoder) scalarValues(a *xmlArray) ([]float64, bool) {
	if a.Components != 1 {
		return nil, false
	}
	da, err := d.decode(a)
	if err != nil {
		d.asm.Warnf("array %q: %v", a.Name, err)
		return nil, false
	}
	return da.Float64s(), true
}

// decode reads one array in whichever format it declares
func (d *arrayDecoder) decode(a *xmlArray) (da *DataArray, err error) {
	et, known := lookupElementType(a.Type)
	if !known {
		d.asm.Warnf("array %q has unknown type %q, reading as Float32", a.Name, a.Type)
	}
	order := d.doc.ByteOrder
	hs := d.doc.HeaderSize
	compressed, err := d.compressed()
	if err != nil && a.Format != "ascii" {
		return nil, err
	}

	switch a.Format {
	case "ascii":
		da, err = parseASCIIValues(a.Text(), et)
	case "binary":
		var payload []byte
		if compressed {
			payload, err = decodeInlineCompressed(a.Text(), hs, order)
		} else {
			payload, err = decodeInlinePayload(a.Text(), hs, order)
		}
		if err == nil {
			da = decodeBinaryValues(payload, et, order)
		}
	case "appended":
		if !a.HasOffset {
			return nil, fmt.Errorf("appended array has no offset")
		}
		var seg, payload []byte
		if seg, err = d.appendedSegment(); err != nil {
			return nil, err
		}
		if compressed {
			payload, err = readCompressedBlock(seg, a.Offset, hs, order)
		} else {
			payload, err = readBlock(seg, a.Offset, hs, order)
		}
		if err == nil {
			da = decodeBinaryValues(payload, et, order)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", a.Format)
	}
	if err != nil {
		return nil, err
	}
	da.Name, da.Components = a.Name, a.Components
	return da, nil
}

func (d *arrayDecoder) compressed() (bool, error) {
	switch d.doc.Compressor {
	case "":
		return false, nil
	case zlibCompressor:
		return true, nil
	}
	return false, fmt.Errorf("unsupported compressor %q", d.doc.Compressor)
}

// appendedSegment returns the bytes array offsets are relative to: a view of
// the file after the '_' marker for raw data, or the decoded text for base64
func (d *arrayDecoder) appendedSegment() ([]byte, error) {
	if d.resolved {
		return d.appended, d.appendedErr
	}
	d.resolved = true
	app := d.doc.Appended
	switch {
	case app == nil:
		d.appendedErr = fmt.Errorf("no AppendedData element")
	case app.Encoding == "base64":
		text := strings.TrimSpace(app.text.String())
		text = strings.TrimPrefix(text, "_")
		d.appended, d.appendedErr = decodeBase64(text)
	case app.Encoding == "raw":
		if app.RawStart < 0 {
			d.appendedErr = fmt.Errorf("AppendedData has no '_' marker")
		} else {
			d.appended = d.buf[app.RawStart:]
		}
	default:
		d.appendedErr = fmt.Errorf("unknown AppendedData encoding %q", app.Encoding)
	}
	return d.appended, d.appendedErr
}
