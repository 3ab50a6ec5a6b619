package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// DOK is a dictionary of keys sparse matrix used while an incidence pattern is
// being assembled
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, val)
}

func (m *DOK) SetReadOnly(name ...string) {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:    m.M.ToCSR(),
		name: m.name,
	}
}

// CSR is the compressed row form used for products
type CSR struct {
	M    *sparse.CSR
	name string
}

func (m CSR) Dims() (r, c int) { return m.M.Dims() }

// MulVec returns A*x, or A^T*x when trans is set
func (m CSR) MulVec(x []float64, trans bool) (y []float64) {
	nr, nc := m.Dims()
	nIn, nOut := nc, nr
	if trans {
		nIn, nOut = nr, nc
	}
	if len(x) != nIn {
		panic(fmt.Errorf("dimension mismatch in %s: vector has %d entries, need %d",
			m.name, len(x), nIn))
	}
	y = make([]float64, nOut)
	m.M.MulVecTo(y, trans, x)
	return
}
