package readers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/notargets/vtkmesh/mesh"
	"github.com/notargets/vtkmesh/utils"
)

// ReadMeshFile reads a .vtk, .vtu or .vtp file. Other extensions are
// identified from their contents.
func ReadMeshFile(filename string) (m *mesh.Mesh, err error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".vtk":
		m, err = ParseLegacy(string(buf))
	case ".vtu", ".vtp":
		m, err = ParseVTU(buf)
	default:
		m, err = Decode(buf)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return
}

// ReadMeshFiles reads files concurrently, ParallelDegree goroutines each
// taking a contiguous run of names. Results keep the order of filenames.
func ReadMeshFiles(filenames []string, ParallelDegree int) (meshes []*mesh.Mesh, errs []error) {
	var (
		pm = utils.NewPartitionMap(min(ParallelDegree, max(len(filenames), 1)), len(filenames))
		wg = sync.WaitGroup{}
	)
	meshes = make([]*mesh.Mesh, len(filenames))
	errs = make([]error, len(filenames))
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			kMin, kMax := pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				meshes[k], errs[k] = ReadMeshFile(filenames[k])
			}
			wg.Done()
		}(np)
	}
	wg.Wait()
	return
}

// Decode picks the XML or legacy decoder by looking at the first bytes
func Decode(buf []byte) (*mesh.Mesh, error) {
	head := bytes.TrimLeft(buf, " \t\r\n\ufeff")
	if len(head) == 0 {
		return nil, ErrUnknownFile
	}
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case head[0] == '<' || bytes.Contains(head, []byte("<VTKFile")):
		return ParseVTU(buf)
	case bytes.HasPrefix(head, []byte("#")) && bytes.Contains(bytes.ToLower(head), []byte("vtk")):
		return ParseLegacy(string(buf))
	case bytes.Contains(bytes.ToUpper(head), []byte("POINTS")),
		bytes.Contains(bytes.ToUpper(head), []byte("DATASET")):
		return ParseLegacy(string(buf))
	}
	return nil, ErrUnknownFile
}
