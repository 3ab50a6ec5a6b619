package readers

import "errors"

// Structural errors. A decode that returns one of these produced no mesh.
var (
	ErrNoVTKFile    = errors.New("missing VTKFile root element")
	ErrNoGrid       = errors.New("missing grid element")
	ErrNoPiece      = errors.New("missing Piece element")
	ErrNoPoints     = errors.New("missing Points array")
	ErrNoCellArray  = errors.New("missing cell array")
	ErrLegacyBinary = errors.New("legacy VTK BINARY files are not supported")
	ErrUnknownFile  = errors.New("not a VTK file")
)
