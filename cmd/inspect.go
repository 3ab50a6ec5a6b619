/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/vtkmesh/mesh"
	"github.com/notargets/vtkmesh/mesh/readers"
	"github.com/notargets/vtkmesh/utils"
)

// InspectCmd represents the inspect command
var InspectCmd = &cobra.Command{
	Use:   "inspect FILE...",
	Short: "Summarize decoded VTK meshes",
	Long: `
Decodes each file and prints its point, cell and triangle counts, bounds and
scalar fields. Decode warnings are included in the summary.

vtkmesh inspect -o yaml grid.vtu`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		stop, err := startProfile()
		if err != nil {
			return err
		}
		defer stop()
		format := viper.GetString("format")
		jobs, _ := cmd.Flags().GetInt("jobs")
		meshes, errs := readers.ReadMeshFiles(args, jobs)
		for i, fn := range args {
			if errs[i] != nil {
				return errs[i]
			}
			logWarnings(fn, meshes[i])
			if err = WriteSummary(cmd.OutOrStdout(), NewSummary(fn, meshes[i]), format); err != nil {
				return err
			}
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(InspectCmd)
	InspectCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "number of files decoded in parallel")
}

// Summary is what inspect reports for one file
type Summary struct {
	File         string             `json:"file"`
	Title        string             `json:"title,omitempty"`
	DatasetType  string             `json:"datasetType,omitempty"`
	NumPoints    int                `json:"numPoints"`
	NumCells     int                `json:"numCells"`
	NumTriangles int                `json:"numTriangles"`
	Dimension    int                `json:"dimension"`
	BoundsMin    [3]float64         `json:"boundsMin"`
	BoundsMax    [3]float64         `json:"boundsMax"`
	PointFields  []mesh.ScalarField `json:"pointFields,omitempty"`
	CellFields   []mesh.ScalarField `json:"cellFields,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

func NewSummary(fn string, m *mesh.Mesh) (s Summary) {
	box := m.Bounds()
	s = Summary{
		File:         fn,
		Title:        m.Title,
		DatasetType:  m.DatasetType,
		NumPoints:    m.NumPoints,
		NumCells:     m.NumCells,
		NumTriangles: m.NumTriangles(),
		Dimension:    m.Dimension,
		BoundsMin:    [3]float64{box.Min.X, box.Min.Y, box.Min.Z},
		BoundsMax:    [3]float64{box.Max.X, box.Max.Y, box.Max.Z},
		PointFields:  m.PointFields,
		CellFields:   m.CellFields,
		Warnings:     m.Warnings,
	}
	return
}

// WriteSummary prints s as text or yaml
func WriteSummary(w io.Writer, s Summary, format string) (err error) {
	switch format {
	case "yaml":
		var data []byte
		if data, err = yaml.Marshal(s); err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "---\n%s", data)
	case "text", "":
		fmt.Fprintf(w, "%s\n", s.File)
		if s.Title != "" {
			fmt.Fprintf(w, "\"%s\"\t\t= Title\n", s.Title)
		}
		if s.DatasetType != "" {
			fmt.Fprintf(w, "[%s]\t= Dataset\n", s.DatasetType)
		}
		fmt.Fprintf(w, "%d\t\t= Points\n", s.NumPoints)
		fmt.Fprintf(w, "%d\t\t= Cells\n", s.NumCells)
		fmt.Fprintf(w, "%d\t\t= Triangles\n", s.NumTriangles)
		fmt.Fprintf(w, "%d\t\t= Dimension\n", s.Dimension)
		fmt.Fprintf(w, "%v - %v\t= Bounds\n", s.BoundsMin, s.BoundsMax)
		for _, sf := range s.PointFields {
			fmt.Fprintf(w, "PointData %s\n", sf)
		}
		for _, sf := range s.CellFields {
			fmt.Fprintf(w, "CellData %s\n", sf)
		}
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
	default:
		err = fmt.Errorf("unknown format %q, want text or yaml", format)
	}
	return
}

func logWarnings(fn string, m *mesh.Mesh) {
	if !viper.GetBool("verbose") {
		return
	}
	for _, w := range m.Warnings {
		log.Printf("%s: %s", fn, w)
	}
	log.Printf("%s: %s", fn, utils.GetMemUsage())
}
