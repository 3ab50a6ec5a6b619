package readers

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/vtkmesh/mesh"
	"github.com/notargets/vtkmesh/utils"
)

// ReadLegacy reads a legacy ASCII .vtk file
func ReadLegacy(filename string) (*mesh.Mesh, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseLegacy(string(buf))
}

// ParseLegacy decodes legacy ASCII VTK text holding an unstructured grid or
// poly data. Unknown lines and malformed cells are skipped with a warning.
func ParseLegacy(text string) (*mesh.Mesh, error) {
	p := newLegacyParser()
	if err := p.parse(text); err != nil {
		return nil, err
	}
	return p.assemble(), nil
}

// legacySection is the top level section numbers are routed to
type legacySection uint8

const (
	sectionNone legacySection = iota
	sectionPoints
	sectionCells
	sectionCellTypes
	sectionPolygons
	sectionLines
	sectionTriangleStrips
	sectionVertices
	sectionPointData
	sectionCellData
	sectionMetadata
)

func (s legacySection) isTopology() bool {
	switch s {
	case sectionCells, sectionPolygons, sectionLines, sectionTriangleStrips, sectionVertices:
		return true
	}
	return false
}

// attributeState is the sub state inside POINT_DATA and CELL_DATA
type attributeState uint8

const (
	attrNone    attributeState = iota
	attrScalars                // inside SCALARS, values go to the open field
	attrField                  // inside FIELD, between or inside arrays
	attrSkip                   // inside an attribute that is not kept
)

// pointsAccumulator holds the POINTS section
type pointsAccumulator struct {
	declared int
	limit    int // 3*declared, saturated
	coords   []float32
	overflow int
}

func (pa *pointsAccumulator) begin(n, sizeHint int) {
	pa.declared = n
	pa.limit = mulCount(3, n)
	pa.coords = make([]float32, 0, min(pa.limit, sizeHint))
}

func (pa *pointsAccumulator) add(v float64) {
	if len(pa.coords) >= pa.limit {
		pa.overflow++
		return
	}
	pa.coords = append(pa.coords, float32(v))
}

// topologyPart says where the numbers of a topology section belong. VTK 5.1
// files split each section into OFFSETS and CONNECTIVITY lists.
type topologyPart uint8

const (
	partCells topologyPart = iota
	partOffsets
	partConnectivity
)

// topologyAccumulator collects every topology section into one count
// prefixed buffer: n, p0 .. pn-1, n, ...
type topologyAccumulator struct {
	cells    []int32
	declared int
	hasPoly  bool

	part    topologyPart
	offsets []int32
	conn    []int32
}

func (ta *topologyAccumulator) begin(n int, poly bool) {
	ta.declared = min(ta.declared, math.MaxInt-n) + n
	ta.hasPoly = ta.hasPoly || poly
	ta.part = partCells
}

func (ta *topologyAccumulator) add(v int32) {
	switch ta.part {
	case partCells:
		ta.cells = append(ta.cells, v)
	case partOffsets:
		ta.offsets = append(ta.offsets, v)
	case partConnectivity:
		ta.conn = append(ta.conn, v)
	}
}

// flush converts a pending OFFSETS/CONNECTIVITY pair into count prefixed cells
func (ta *topologyAccumulator) flush(asm *mesh.Assembler) {
	if len(ta.offsets) == 0 {
		ta.conn = ta.conn[:0]
		return
	}
	// The section count was the number of offsets, one more than the cells
	ta.declared--
	for i := 0; i+1 < len(ta.offsets); i++ {
		s, e := ta.offsets[i], ta.offsets[i+1]
		if s < 0 || e < s || int(e) > len(ta.conn) {
			asm.Warnf("OFFSETS entry %d (%d..%d) is outside the %d CONNECTIVITY values",
				i, s, e, len(ta.conn))
			break
		}
		ta.cells = append(ta.cells, e-s)
		ta.cells = append(ta.cells, ta.conn[s:e]...)
	}
	ta.offsets, ta.conn = ta.offsets[:0], ta.conn[:0]
	ta.part = partCells
}

// fieldAccumulator is one SCALARS or FIELD array being filled
type fieldAccumulator struct {
	name       string
	components int
	expected   int
	values     []float64
}

func (fa *fieldAccumulator) full() bool {
	return len(fa.values) >= fa.expected
}

// attributeAccumulator holds the sealed fields of POINT_DATA or CELL_DATA
type attributeAccumulator struct {
	count  int
	fields []mesh.ScalarField
}

type legacyParser struct {
	asm *mesh.Assembler

	section     legacySection
	resume      legacySection // section to return to after METADATA
	attr        attributeState
	attrTarget  *attributeAccumulator
	field       *fieldAccumulator
	fieldArrays int // arrays left in the current FIELD block

	points     pointsAccumulator
	topology   topologyAccumulator
	cellTypes  []utils.CellType
	hasTypes   bool
	pointData  attributeAccumulator
	cellData   attributeAccumulator
	badTokens  int
	firstToken string
	maxValues  int // most numbers the text can hold, bounds preallocation
}

func newLegacyParser() *legacyParser {
	return &legacyParser{asm: mesh.NewAssembler()}
}

func (p *legacyParser) parse(text string) error {
	p.maxValues = len(text)/2 + 1
	lines := strings.Split(text, "\n")
	start, err := p.parseHeader(lines)
	if err != nil {
		return err
	}
	for _, raw := range lines[start:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			if p.section == sectionMetadata {
				p.section = p.resume
			}
			continue
		}
		if p.section == sectionMetadata || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if p.fieldArrayHeader(fields) {
			continue
		}
		if p.keyword(strings.ToUpper(fields[0]), fields) {
			continue
		}
		p.data(fields)
	}
	p.endSection()
	p.closeField()
	return nil
}

// parseHeader consumes the "# vtk DataFile" line, the title and the format
// line when they are present, returning the index of the first body line
func (p *legacyParser) parseHeader(lines []string) (int, error) {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return i, nil
	}
	first := strings.ToLower(strings.TrimSpace(lines[i]))
	if !strings.HasPrefix(first, "#") || !strings.Contains(first, "vtk") {
		return i, nil
	}
	i++
	if i < len(lines) {
		p.asm.Title = strings.TrimSpace(lines[i])
		i++
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) {
		switch strings.ToUpper(strings.TrimSpace(lines[i])) {
		case "BINARY":
			return i, ErrLegacyBinary
		case "ASCII":
			i++
		}
	}
	return i, nil
}

// keyword handles a section or attribute keyword line, reporting false for
// lines that carry data
func (p *legacyParser) keyword(kw string, fields []string) bool {
	arg := func(i int) int {
		if i >= len(fields) {
			return 0
		}
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			p.asm.Warnf("%s: invalid count %q", kw, fields[i])
			return 0
		}
		return n
	}
	switch kw {
	case "DATASET":
		p.endSection()
		if len(fields) > 1 {
			p.asm.DatasetType = strings.ToUpper(fields[1])
		}
		switch p.asm.DatasetType {
		case "UNSTRUCTURED_GRID", "POLYDATA":
		default:
			p.asm.Warnf("dataset type %q is not supported, reading points and cells only",
				p.asm.DatasetType)
		}
	case "POINTS":
		p.endSection()
		p.section = sectionPoints
		p.points.begin(arg(1), p.maxValues)
	case "CELLS", "POLYGONS", "LINES", "TRIANGLE_STRIPS", "VERTICES":
		p.endSection()
		p.section = map[string]legacySection{
			"CELLS":           sectionCells,
			"POLYGONS":        sectionPolygons,
			"LINES":           sectionLines,
			"TRIANGLE_STRIPS": sectionTriangleStrips,
			"VERTICES":        sectionVertices,
		}[kw]
		p.topology.begin(arg(1), kw != "CELLS")
	case "OFFSETS", "CONNECTIVITY":
		if !p.section.isTopology() {
			p.asm.Warnf("%s outside a cell section", kw)
			p.endSection()
			return true
		}
		if kw == "OFFSETS" {
			p.topology.flush(p.asm)
			p.topology.part = partOffsets
		} else {
			p.topology.part = partConnectivity
		}
	case "CELL_TYPES":
		p.endSection()
		p.section = sectionCellTypes
		p.hasTypes = true
		p.cellTypes = make([]utils.CellType, 0, min(arg(1), p.maxValues))
	case "POINT_DATA", "CELL_DATA":
		p.endSection()
		p.closeField()
		if kw == "POINT_DATA" {
			p.section, p.attrTarget = sectionPointData, &p.pointData
		} else {
			p.section, p.attrTarget = sectionCellData, &p.cellData
		}
		p.attrTarget.count = arg(1)
		p.attr = attrNone
	case "SCALARS":
		p.closeField()
		if p.attrTarget == nil || len(fields) < 2 {
			p.attr = attrSkip
			return true
		}
		components := 1
		if len(fields) > 3 {
			if components = arg(3); components < 1 {
				components = 1
			}
		}
		p.attr = attrScalars
		p.openField(fields[1], components, mulCount(p.attrTarget.count, components))
	case "LOOKUP_TABLE":
		// The table named by SCALARS is ignored, and so is any table data
		if p.field == nil || len(p.field.values) != 0 {
			p.closeField()
			p.attr = attrSkip
		}
	case "FIELD":
		p.closeField()
		if p.attrTarget == nil {
			// Dataset level field data is not kept
			p.endSection()
			return true
		}
		p.fieldArrays = arg(2)
		p.attr = attrField
	case "VECTORS", "NORMALS", "TENSORS", "TEXTURE_COORDINATES", "COLOR_SCALARS",
		"GLOBAL_IDS", "PEDIGREE_IDS":
		p.closeField()
		p.attr = attrSkip
	case "METADATA":
		p.resume = p.section
		p.section = sectionMetadata
	default:
		return false
	}
	return true
}

// fieldArrayHeader recognizes "name components tuples type" inside a FIELD
// block, before keyword matching so arrays may carry keyword-like names
func (p *legacyParser) fieldArrayHeader(fields []string) bool {
	if p.attr != attrField || p.field != nil || len(fields) != 4 {
		return false
	}
	comps, err1 := strconv.Atoi(fields[1])
	tuples, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || comps < 1 || tuples < 0 {
		return false
	}
	if tuples != p.attrTarget.count {
		p.asm.Warnf("FIELD array %q has %d tuples, expected %d", fields[0], tuples, p.attrTarget.count)
	}
	p.openField(fields[0], comps, mulCount(comps, tuples))
	return true
}

func (p *legacyParser) openField(name string, components, expected int) {
	p.field = &fieldAccumulator{
		name:       name,
		components: components,
		expected:   expected,
		values:     make([]float64, 0, min(expected, p.maxValues)),
	}
	if expected == 0 {
		p.sealField()
	}
}

// sealField attaches a full field and moves to the next attribute state
func (p *legacyParser) sealField() {
	fa := p.field
	p.field = nil
	switch {
	case fa.components != 1:
		p.asm.Warnf("field %q has %d components, only scalars are kept", fa.name, fa.components)
	default:
		if sf, ok := mesh.NewScalarField(fa.name, fa.values); ok {
			p.attrTarget.fields = append(p.attrTarget.fields, sf)
		} else {
			p.asm.Warnf("field %q is empty, skipping", fa.name)
		}
	}
	switch p.attr {
	case attrField:
		if p.fieldArrays--; p.fieldArrays <= 0 {
			p.attr = attrNone
		}
	default:
		p.attr = attrNone
	}
}

// closeField drops a field whose values never all arrived
func (p *legacyParser) closeField() {
	if p.field == nil {
		return
	}
	p.asm.Warnf("field %q ended after %d of %d values, skipping",
		p.field.name, len(p.field.values), p.field.expected)
	p.field = nil
	p.attr = attrNone
}

// endSection finishes the current top level section
func (p *legacyParser) endSection() {
	if p.section.isTopology() {
		p.topology.flush(p.asm)
	}
	p.section = sectionNone
}

// data routes a line of numbers to the active accumulator
func (p *legacyParser) data(fields []string) {
	switch p.section {
	case sectionPoints:
		for _, tok := range fields {
			if v, ok := p.parseFloat(tok); ok {
				p.points.add(v)
			}
		}
	case sectionCells, sectionPolygons, sectionLines, sectionTriangleStrips, sectionVertices:
		for _, tok := range fields {
			if v, ok := p.parseInt(tok); ok {
				p.topology.add(int32(v))
			}
		}
	case sectionCellTypes:
		for _, tok := range fields {
			if v, ok := p.parseInt(tok); ok {
				p.cellTypes = append(p.cellTypes, utils.CellTypeFromCode(v))
			}
		}
	case sectionPointData, sectionCellData:
		if p.field == nil {
			return
		}
		for _, tok := range fields {
			if v, ok := p.parseFloat(tok); ok {
				p.field.values = append(p.field.values, v)
				if p.field.full() {
					p.sealField()
					return
				}
			}
		}
	}
}

func (p *legacyParser) parseFloat(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.badToken(tok)
		return 0, false
	}
	return v, true
}

func (p *legacyParser) parseInt(tok string) (int64, bool) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		p.badToken(tok)
		return 0, false
	}
	return v, true
}

func (p *legacyParser) badToken(tok string) {
	if p.badTokens == 0 {
		p.firstToken = tok
	}
	p.badTokens++
}

// assemble walks the collected cells and hands everything to the assembler
func (p *legacyParser) assemble() *mesh.Mesh {
	asm := p.asm
	if p.badTokens != 0 {
		asm.Warnf("skipped %d non numeric tokens, first was %q", p.badTokens, p.firstToken)
	}
	if len(p.points.coords) < p.points.limit {
		asm.Warnf("POINTS declares %d points, found %d coordinates",
			p.points.declared, len(p.points.coords))
	}
	if p.points.overflow != 0 {
		asm.Warnf("ignored %d coordinates past the declared POINTS count", p.points.overflow)
	}
	asm.SetPoints(p.points.coords)

	var inferred int
	cells := p.topology.cells
	for i, pos := 0, 0; pos < len(cells); i++ {
		n := int(cells[pos])
		if n < 0 || pos+1+n > len(cells) {
			asm.Warnf("cell %d declares %d points but only %d values remain, stopping",
				i, n, len(cells)-pos-1)
			break
		}
		verts := cells[pos+1 : pos+1+n]
		var ct utils.CellType
		if i < len(p.cellTypes) {
			ct = p.cellTypes[i]
		} else {
			// Poly data carries no types; guess from the arity
			ct = utils.CellTypeForArity(n)
			inferred++
		}
		asm.AddCell(ct, verts)
		pos += 1 + n
	}
	if p.hasTypes && len(p.cellTypes) != asm.NumCells() {
		asm.Warnf("CELL_TYPES has %d entries for %d cells", len(p.cellTypes), asm.NumCells())
	}
	if inferred != 0 && !p.topology.hasPoly {
		asm.Warnf("%d cells had no CELL_TYPES entry, types guessed from point counts", inferred)
	}
	if p.topology.declared != asm.NumCells() {
		asm.Warnf("sections declare %d cells, read %d", p.topology.declared, asm.NumCells())
	}

	for _, sf := range p.pointData.fields {
		asm.AddPointField(sf.Name, sf.Data)
	}
	for _, sf := range p.cellData.fields {
		asm.AddCellField(sf.Name, sf.Data)
	}
	return asm.Mesh()
}

// mulCount multiplies two non negative counts, saturating at math.MaxInt
func mulCount(a, b int) int {
	if a != 0 && b > math.MaxInt/a {
		return math.MaxInt
	}
	return a * b
}
