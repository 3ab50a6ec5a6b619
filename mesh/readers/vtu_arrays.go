package readers

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ArrayKind tags which storage a decoded DataArray uses and how the declared
// element type was converted into it. Several conversions lose information;
// a renderer never needs the lost part:
//   - Float64Narrowed: doubles are stored as float32
//   - Int64Narrowed: 64 bit integers are truncated to their low 32 bits
//   - UInt32Reinterpreted: unsigned values above 2^31-1 read back negative
type ArrayKind uint8

const (
	Float32Kind ArrayKind = iota
	Float64Narrowed
	Int32Kind
	Int64Narrowed
	UInt32Reinterpreted
	UInt8Kind
	SmallIntWidened // Int8, Int16 and UInt16, stored exactly as int32
)

func (k ArrayKind) String() string {
	return [...]string{"Float32", "Float64Narrowed", "Int32", "Int64Narrowed",
		"UInt32Reinterpreted", "UInt8", "SmallIntWidened"}[k]
}

// elementType describes one declared XML "type" attribute
type elementType struct {
	kind   ArrayKind
	size   int // bytes per element in the file
	signed bool
}

var elementTypes = map[string]elementType{
	"Float32": {Float32Kind, 4, true},
	"Float64": {Float64Narrowed, 8, true},
	"Int8":    {SmallIntWidened, 1, true},
	"Int16":   {SmallIntWidened, 2, true},
	"UInt16":  {SmallIntWidened, 2, false},
	"Int32":   {Int32Kind, 4, true},
	"Int64":   {Int64Narrowed, 8, true},
	"UInt32":  {UInt32Reinterpreted, 4, false},
	"UInt64":  {Int64Narrowed, 8, false},
	"UInt8":   {UInt8Kind, 1, false},
}

// lookupElementType maps a declared type name to its storage. Unknown names
// are read as Float32 and reported through ok.
func lookupElementType(name string) (et elementType, ok bool) {
	if et, ok = elementTypes[name]; ok {
		return
	}
	return elementTypes["Float32"], false
}

// DataArray is a decoded numeric array. Exactly one of F32, I32 and U8 holds
// the values, selected by Kind.
type DataArray struct {
	Kind       ArrayKind
	Name       string
	Components int
	F32        []float32
	I32        []int32
	U8         []uint8
}

// Len is the number of scalar values, components included
func (da *DataArray) Len() int {
	switch da.Kind {
	case Float32Kind, Float64Narrowed:
		return len(da.F32)
	case Int32Kind, Int64Narrowed, UInt32Reinterpreted, SmallIntWidened:
		return len(da.I32)
	case UInt8Kind:
		return len(da.U8)
	}
	return 0
}

// Float32s returns the values as float32, sharing storage for float kinds
func (da *DataArray) Float32s() []float32 {
	switch da.Kind {
	case Float32Kind, Float64Narrowed:
		return da.F32
	case Int32Kind, Int64Narrowed, UInt32Reinterpreted, SmallIntWidened:
		out := make([]float32, len(da.I32))
		for i, v := range da.I32 {
			out[i] = float32(v)
		}
		return out
	case UInt8Kind:
		out := make([]float32, len(da.U8))
		for i, v := range da.U8 {
			out[i] = float32(v)
		}
		return out
	}
	return nil
}

// Int32s returns the values as int32, sharing storage for integer kinds.
// Float values are truncated toward zero.
func (da *DataArray) Int32s() []int32 {
	switch da.Kind {
	case Int32Kind, Int64Narrowed, UInt32Reinterpreted, SmallIntWidened:
		return da.I32
	case Float32Kind, Float64Narrowed:
		out := make([]int32, len(da.F32))
		for i, v := range da.F32 {
			out[i] = int32(v)
		}
		return out
	case UInt8Kind:
		out := make([]int32, len(da.U8))
		for i, v := range da.U8 {
			out[i] = int32(v)
		}
		return out
	}
	return nil
}

// Float64s returns a fresh float64 copy of the values
func (da *DataArray) Float64s() []float64 {
	out := make([]float64, 0, da.Len())
	switch da.Kind {
	case Float32Kind, Float64Narrowed:
		for _, v := range da.F32 {
			out = append(out, float64(v))
		}
	case Int32Kind, Int64Narrowed, UInt32Reinterpreted, SmallIntWidened:
		for _, v := range da.I32 {
			out = append(out, float64(v))
		}
	case UInt8Kind:
		for _, v := range da.U8 {
			out = append(out, float64(v))
		}
	}
	return out
}

// decodeBinaryValues reinterprets a payload as an array of the declared
// element type. A trailing partial element is ignored.
func decodeBinaryValues(payload []byte, et elementType, order binary.ByteOrder) (da *DataArray) {
	n := len(payload) / et.size
	da = &DataArray{Kind: et.kind}
	switch et.kind {
	case Float32Kind:
		da.F32 = make([]float32, n)
		for i := range da.F32 {
			da.F32[i] = math.Float32frombits(order.Uint32(payload[4*i:]))
		}
	case Float64Narrowed:
		da.F32 = make([]float32, n)
		for i := range da.F32 {
			da.F32[i] = float32(math.Float64frombits(order.Uint64(payload[8*i:])))
		}
	case Int32Kind, UInt32Reinterpreted:
		da.I32 = make([]int32, n)
		for i := range da.I32 {
			da.I32[i] = int32(order.Uint32(payload[4*i:]))
		}
	case Int64Narrowed:
		da.I32 = make([]int32, n)
		for i := range da.I32 {
			da.I32[i] = int32(int64(order.Uint64(payload[8*i:])))
		}
	case SmallIntWidened:
		da.I32 = make([]int32, n)
		for i := range da.I32 {
			switch {
			case et.size == 1:
				da.I32[i] = int32(int8(payload[i]))
			case et.signed:
				da.I32[i] = int32(int16(order.Uint16(payload[2*i:])))
			default:
				da.I32[i] = int32(order.Uint16(payload[2*i:]))
			}
		}
	case UInt8Kind:
		da.U8 = make([]uint8, n)
		copy(da.U8, payload)
	}
	return
}

// parseASCIIValues splits whitespace separated text and parses each token as
// the declared element type. Any bad token fails the whole array.
func parseASCIIValues(text string, et elementType) (da *DataArray, err error) {
	tokens := strings.Fields(text)
	da = &DataArray{Kind: et.kind}
	switch et.kind {
	case Float32Kind, Float64Narrowed:
		da.F32 = make([]float32, len(tokens))
	case UInt8Kind:
		da.U8 = make([]uint8, len(tokens))
	default:
		da.I32 = make([]int32, len(tokens))
	}
	for i, tok := range tokens {
		switch et.kind {
		case Float32Kind, Float64Narrowed:
			var f float64
			if f, err = strconv.ParseFloat(tok, 64); err != nil {
				return nil, fmt.Errorf("invalid value %q at %d: %w", tok, i, err)
			}
			da.F32[i] = float32(f)
		case UInt8Kind:
			var u uint64
			if u, err = strconv.ParseUint(tok, 10, 8); err != nil {
				return nil, fmt.Errorf("invalid value %q at %d: %w", tok, i, err)
			}
			da.U8[i] = uint8(u)
		default:
			if et.signed {
				var v int64
				if v, err = strconv.ParseInt(tok, 10, 64); err != nil {
					return nil, fmt.Errorf("invalid value %q at %d: %w", tok, i, err)
				}
				da.I32[i] = int32(v)
			} else {
				var u uint64
				if u, err = strconv.ParseUint(tok, 10, 64); err != nil {
					return nil, fmt.Errorf("invalid value %q at %d: %w", tok, i, err)
				}
				da.I32[i] = int32(u)
			}
		}
	}
	return da, nil
}

// readHeaderValue reads one header word of headerSize bytes at b[0:]. Eight
// byte little endian words are combined from two 32 bit halves as
// low + high*2^32.
func readHeaderValue(b []byte, headerSize int, order binary.ByteOrder) (v uint64, err error) {
	if len(b) < headerSize {
		return 0, fmt.Errorf("need %d header bytes, have %d", headerSize, len(b))
	}
	switch {
	case headerSize == 4:
		v = uint64(order.Uint32(b))
	case order == binary.LittleEndian:
		low, high := order.Uint32(b), order.Uint32(b[4:])
		v = uint64(low) + uint64(high)*(1<<32)
	default:
		v = order.Uint64(b)
	}
	return
}

// readBlock returns the payload of a length prefixed block starting at start.
// The result is a view into buf.
func readBlock(buf []byte, start int64, headerSize int, order binary.ByteOrder) ([]byte, error) {
	if start < 0 || start > int64(len(buf)) {
		return nil, fmt.Errorf("offset %d outside %d byte segment", start, len(buf))
	}
	n, err := readHeaderValue(buf[start:], headerSize, order)
	if err != nil {
		return nil, fmt.Errorf("block at offset %d: %w", start, err)
	}
	begin := start + int64(headerSize)
	if n > uint64(int64(len(buf))-begin) {
		return nil, fmt.Errorf("block at offset %d declares %d bytes, only %d remain",
			start, n, int64(len(buf))-begin)
	}
	return buf[begin : begin+int64(n)], nil
}

// readCompressedBlock inflates a zlib compressed block starting at start. The
// header is [nblocks, blockSize, lastBlockSize, compressedSize...] followed by
// the compressed blocks back to back.
func readCompressedBlock(buf []byte, start int64, headerSize int, order binary.ByteOrder) ([]byte, error) {
	if start < 0 || start > int64(len(buf)) {
		return nil, fmt.Errorf("offset %d outside %d byte segment", start, len(buf))
	}
	b := buf[start:]
	word := func(i int) (uint64, error) {
		if (i+1)*headerSize > len(b) {
			return 0, fmt.Errorf("compressed header truncated at word %d", i)
		}
		return readHeaderValue(b[i*headerSize:], headerSize, order)
	}
	nBlocks, err := word(0)
	if err != nil {
		return nil, err
	}
	if nBlocks > uint64(len(b)/headerSize) {
		return nil, fmt.Errorf("compressed header declares %d blocks", nBlocks)
	}
	blockSize, err := word(1)
	if err != nil {
		return nil, err
	}
	lastSize, err := word(2)
	if err != nil {
		return nil, err
	}
	pos := uint64((3 + nBlocks) * uint64(headerSize))
	var out bytes.Buffer
	for i := uint64(0); i < nBlocks; i++ {
		csize, err := word(3 + int(i))
		if err != nil {
			return nil, err
		}
		if pos+csize > uint64(len(b)) {
			return nil, fmt.Errorf("compressed block %d runs past the segment", i)
		}
		expected := blockSize
		if i == nBlocks-1 && lastSize != 0 {
			expected = lastSize
		}
		zr, err := zlib.NewReader(bytes.NewReader(b[pos : pos+csize]))
		if err != nil {
			return nil, fmt.Errorf("zlib error in block %d: %w", i, err)
		}
		nr, err := io.Copy(&out, zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("zlib error in block %d: %w", i, err)
		}
		if uint64(nr) != expected {
			return nil, fmt.Errorf("block %d inflated to %d bytes, expected %d", i, nr, expected)
		}
		pos += csize
	}
	return out.Bytes(), nil
}

// decodeBase64 decodes standard base64 text, ignoring whitespace. Several
// independently padded runs may follow each other, which is how VTK encodes
// a header and its data separately.
func decodeBase64(text string) ([]byte, error) {
	s := stripSpace(text)
	var out []byte
	for len(s) > 0 {
		end := len(s)
		if i := strings.IndexByte(s, '='); i >= 0 {
			end = i
			for end < len(s) && s[end] == '=' {
				end++
			}
		}
		chunk := s[:end]
		enc := base64.StdEncoding
		if len(chunk)%4 != 0 && !strings.HasSuffix(chunk, "=") {
			enc = base64.RawStdEncoding
		}
		b, err := enc.DecodeString(chunk)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		out = append(out, b...)
		s = s[end:]
	}
	return out, nil
}

// decodeInlinePayload decodes an uncompressed base64 array and drops its
// length header. The header bounds the payload when it is consistent.
func decodeInlinePayload(text string, headerSize int, order binary.ByteOrder) ([]byte, error) {
	b, err := decodeBase64(text)
	if err != nil {
		return nil, err
	}
	n, err := readHeaderValue(b, headerSize, order)
	if err != nil {
		return nil, err
	}
	payload := b[headerSize:]
	if n <= uint64(len(payload)) {
		payload = payload[:n]
	}
	return payload, nil
}

// decodeInlineCompressed decodes a base64 compressed array, where the header
// words and the compressed blocks are encoded as two separate base64 runs
func decodeInlineCompressed(text string, headerSize int, order binary.ByteOrder) ([]byte, error) {
	s := stripSpace(text)
	// The first three header words tell how long the whole header is
	first := base64Len(3 * headerSize)
	if len(s) < first {
		return nil, fmt.Errorf("compressed header truncated")
	}
	head, err := base64.StdEncoding.DecodeString(s[:first])
	if err != nil {
		return nil, fmt.Errorf("invalid base64 header: %w", err)
	}
	nBlocks, err := readHeaderValue(head, headerSize, order)
	if err != nil {
		return nil, err
	}
	if nBlocks > uint64(len(s)) {
		return nil, fmt.Errorf("compressed header declares %d blocks", nBlocks)
	}
	headerChars := base64Len((3 + int(nBlocks)) * headerSize)
	if len(s) < headerChars {
		return nil, fmt.Errorf("compressed header truncated")
	}
	header, err := base64.StdEncoding.DecodeString(s[:headerChars])
	if err != nil {
		return nil, fmt.Errorf("invalid base64 header: %w", err)
	}
	data, err := decodeBase64(s[headerChars:])
	if err != nil {
		return nil, err
	}
	return readCompressedBlock(append(header, data...), 0, headerSize, order)
}

func base64Len(n int) int {
	return 4 * ((n + 2) / 3)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return -1
		}
		return r
	}, s)
}
