package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vtkmesh/mesh/readers"
)

const quadTriVTK = `# vtk DataFile Version 3.0
two cells
ASCII
DATASET UNSTRUCTURED_GRID
POINTS 5 float
0 0 0 1 0 0 1 1 0 0 1 0 2 0 0
CELLS 2 9
4 0 1 2 3
3 1 4 2
CELL_TYPES 2
9 5
POINT_DATA 5
SCALARS temp float
LOOKUP_TABLE default
5 -1 3 3 0
CELL_DATA 2
SCALARS pressure double 1
1 4
`

func writeGrid(t *testing.T) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "grid.vtk")
	require.NoError(t, os.WriteFile(fn, []byte(quadTriVTK), 0644))
	return fn
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	m, err := readers.ReadMeshFile(writeGrid(t))
	require.NoError(t, err)
	s := NewSummary("grid.vtk", m)
	assert.Equal(t, "two cells", s.Title)
	assert.Equal(t, 5, s.NumPoints)
	assert.Equal(t, 2, s.NumCells)
	assert.Equal(t, 3, s.NumTriangles)
	assert.Equal(t, 2, s.Dimension)
	assert.Equal(t, [3]float64{0, 0, 0}, s.BoundsMin)
	assert.Equal(t, [3]float64{2, 1, 0}, s.BoundsMax)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s, "yaml"))
	var back Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, s.NumTriangles, back.NumTriangles)
	assert.Equal(t, 2, back.Dimension)
	require.Len(t, back.CellFields, 1)
	assert.Equal(t, "pressure", back.CellFields[0].Name)
	assert.Equal(t, 4., back.CellFields[0].Max)

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, s, "text"))
	assert.Contains(t, buf.String(), "3\t\t= Triangles")
	assert.Contains(t, buf.String(), "2\t\t= Dimension")
	assert.Contains(t, buf.String(), "PointData temp[5] range [-1, 5]")

	assert.Error(t, WriteSummary(&buf, s, "xml"))
}

func TestListFields(t *testing.T) {
	m, err := readers.ReadMeshFile(writeGrid(t))
	require.NoError(t, err)

	fl, err := ListFields(m, "", false)
	require.NoError(t, err)
	require.Len(t, fl, 2)
	assert.Equal(t, FieldInfo{Location: "point", Name: "temp", Len: 5, Min: -1, Max: 5}, fl[0])
	assert.Equal(t, FieldInfo{Location: "cell", Name: "pressure", Len: 2, Min: 1, Max: 4}, fl[1])

	fl, err = ListFields(m, "pressure", true)
	require.NoError(t, err)
	require.Len(t, fl, 2)
	// points 1 and 2 are shared by both cells
	assert.Equal(t, FieldInfo{Location: "cell->point", Name: "pressure", Len: 5, Min: 1, Max: 4}, fl[1])

	_, err = ListFields(m, "missing", false)
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	fn := writeGrid(t)

	out, err := runRoot(t, "inspect", "--format", "text", fn)
	require.NoError(t, err)
	assert.Contains(t, out, "[UNSTRUCTURED_GRID]")

	out, err = runRoot(t, "fields", "--format", "yaml", "--to-points", fn)
	require.NoError(t, err)
	var fl []FieldInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &fl))
	assert.Len(t, fl, 3)

	_, err = runRoot(t, "inspect", "--format", "text", filepath.Join(filepath.Dir(fn), "none.vtu"))
	assert.Error(t, err)

	_, err = runRoot(t, "inspect", "--format", "text", "--profile", "gpu", fn)
	assert.Error(t, err)
}
