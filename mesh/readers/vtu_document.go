package readers

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// xmlArray is one DataArray element, with its text content still encoded
type xmlArray struct {
	Name       string
	Type       string
	Format     string
	Components int
	Offset     int64
	HasOffset  bool
	text       strings.Builder
}

func (a *xmlArray) Text() string { return a.text.String() }

// xmlGroup is a Points, Cells, PointData, CellData, Verts, Lines, Polys or
// Strips element
type xmlGroup struct {
	Tag    string
	Arrays []*xmlArray
}

// Find returns the array with the given Name attribute
func (g *xmlGroup) Find(name string) *xmlArray {
	if g == nil {
		return nil
	}
	for _, a := range g.Arrays {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// xmlPiece holds the counts and groups of the first Piece
type xmlPiece struct {
	Counts map[string]int // NumberOfPoints, NumberOfCells, NumberOfPolys ...
	Groups map[string]*xmlGroup
}

// Count returns a declared count, or -1 when the attribute is absent
func (p *xmlPiece) Count(attr string) int {
	if n, ok := p.Counts[attr]; ok {
		return n
	}
	return -1
}

// appendedSegment is the AppendedData element. Raw data is located by its
// byte position in the file; base64 data is collected as text.
type appendedSegment struct {
	Encoding string
	RawStart int // first byte after the '_' marker, -1 when not found
	text     strings.Builder
}

// xmlDocument is the structure of a VTK XML file, everything except payloads
type xmlDocument struct {
	HasRoot    bool
	FileType   string
	HeaderSize int
	ByteOrder  binary.ByteOrder
	Compressor string
	GridTag    string
	NumPieces  int
	Piece      *xmlPiece
	Appended   *appendedSegment
	Warnings   []string
}

func (d *xmlDocument) warnf(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

var pieceGroups = map[string]bool{
	"Points": true, "Cells": true, "PointData": true, "CellData": true,
	"Verts": true, "Lines": true, "Polys": true, "Strips": true,
}

// scanDocument walks the XML tokens of buf and records the mesh structure.
// Raw appended data is never tokenized: scanning stops at the AppendedData
// start tag and the payload position is taken from the decoder's byte offset.
func scanDocument(buf []byte) (doc *xmlDocument, err error) {
	doc = &xmlDocument{HeaderSize: 4, ByteOrder: binary.LittleEndian}
	var transcoded bool
	dec := xml.NewDecoder(bytes.NewReader(buf))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(label) {
		case "iso-8859-1", "latin1", "latin-1", "us-ascii", "ascii":
			transcoded = true
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		case "windows-1252", "cp1252":
			transcoded = true
			return charmap.Windows1252.NewDecoder().Reader(input), nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}

	var (
		inFirstPiece bool
		group        *xmlGroup
		array        *xmlArray
		inAppended   bool
	)
	for {
		tok, terr := dec.Token()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			if doc.Piece == nil {
				return doc, fmt.Errorf("malformed XML: %w", terr)
			}
			// Keep what was read; the arrays decode on their own
			doc.warnf("XML parsing stopped early: %v", terr)
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch name := t.Name.Local; {
			case name == "VTKFile":
				doc.HasRoot = true
				doc.readRootAttrs(t.Attr)
			case name == "UnstructuredGrid" || name == "PolyData":
				if doc.GridTag == "" {
					doc.GridTag = name
				}
			case name == "Piece":
				doc.NumPieces++
				if doc.NumPieces == 1 && doc.GridTag != "" {
					doc.Piece = newPiece(t.Attr)
					inFirstPiece = true
				}
			case pieceGroups[name] && inFirstPiece:
				group = &xmlGroup{Tag: name}
				doc.Piece.Groups[name] = group
			case name == "DataArray" && group != nil:
				array = newArray(t.Attr)
				group.Arrays = append(group.Arrays, array)
			case name == "AppendedData":
				doc.Appended = &appendedSegment{Encoding: "raw", RawStart: -1}
				for _, attr := range t.Attr {
					if attr.Name.Local == "encoding" {
						doc.Appended.Encoding = strings.ToLower(attr.Value)
					}
				}
				if doc.Appended.Encoding == "base64" {
					inAppended = true
					continue
				}
				// Raw bytes follow; stop before the tokenizer sees them
				start := int(dec.InputOffset())
				if transcoded {
					// Offsets count decoded text, not file bytes
					start = bytes.Index(buf, []byte("<AppendedData"))
				}
				doc.Appended.RawStart = findRawMarker(buf, start)
				return doc, nil
			}
		case xml.EndElement:
			switch name := t.Name.Local; {
			case name == "Piece":
				inFirstPiece = false
				group = nil
			case pieceGroups[name]:
				group = nil
			case name == "DataArray":
				array = nil
			case name == "AppendedData":
				inAppended = false
			}
		case xml.CharData:
			if array != nil {
				array.text.Write(t)
			} else if inAppended {
				doc.Appended.text.Write(t)
			}
		}
	}
	return doc, nil
}

// findRawMarker returns the position just after the first '_' at or after
// from, or -1
func findRawMarker(buf []byte, from int) int {
	if from < 0 || from > len(buf) {
		return -1
	}
	i := bytes.IndexByte(buf[from:], '_')
	if i < 0 {
		return -1
	}
	return from + i + 1
}

func (d *xmlDocument) readRootAttrs(attrs []xml.Attr) {
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "type":
			d.FileType = attr.Value
		case "header_type":
			switch attr.Value {
			case "UInt64":
				d.HeaderSize = 8
			case "UInt32":
				d.HeaderSize = 4
			default:
				d.warnf("unknown header_type %q, using UInt32", attr.Value)
			}
		case "byte_order":
			if attr.Value == "BigEndian" {
				d.ByteOrder = binary.BigEndian
			}
		case "compressor":
			d.Compressor = attr.Value
		}
	}
}

func newPiece(attrs []xml.Attr) *xmlPiece {
	p := &xmlPiece{
		Counts: make(map[string]int),
		Groups: make(map[string]*xmlGroup),
	}
	for _, attr := range attrs {
		if !strings.HasPrefix(attr.Name.Local, "NumberOf") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
			p.Counts[attr.Name.Local] = n
		}
	}
	return p
}

func newArray(attrs []xml.Attr) *xmlArray {
	a := &xmlArray{Components: 1, Format: "ascii", Type: "Float32"}
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "Name":
			a.Name = attr.Value
		case "type":
			a.Type = attr.Value
		case "format":
			a.Format = strings.ToLower(attr.Value)
		case "NumberOfComponents":
			if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
				a.Components = n
			}
		case "offset":
			if n, err := strconv.ParseInt(strings.TrimSpace(attr.Value), 10, 64); err == nil {
				a.Offset, a.HasOffset = n, true
			}
		}
	}
	return a
}
