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

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/vtkmesh/mesh"
	"github.com/notargets/vtkmesh/mesh/readers"
)

// FieldsCmd represents the fields command
var FieldsCmd = &cobra.Command{
	Use:   "fields FILE",
	Short: "List the scalar fields of a VTK mesh",
	Long: `
Lists every scalar point and cell field with its value range. With --to-points
each cell field is also averaged onto the points.

vtkmesh fields --to-points grid.vtk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		stop, err := startProfile()
		if err != nil {
			return err
		}
		defer stop()
		var m *mesh.Mesh
		if m, err = readers.ReadMeshFile(args[0]); err != nil {
			return err
		}
		logWarnings(args[0], m)
		toPoints, _ := cmd.Flags().GetBool("to-points")
		name, _ := cmd.Flags().GetString("name")
		var fl []FieldInfo
		if fl, err = ListFields(m, name, toPoints); err != nil {
			return err
		}
		return WriteFields(cmd.OutOrStdout(), fl, viper.GetString("format"))
	},
}

func init() {
	rootCmd.AddCommand(FieldsCmd)
	FieldsCmd.Flags().BoolP("to-points", "p", false, "also average each cell field onto the points")
	FieldsCmd.Flags().StringP("name", "n", "", "only report the field with this name")
}

type FieldInfo struct {
	Location string  `json:"location"` // point, cell or cell->point
	Name     string  `json:"name"`
	Len      int     `json:"len"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

func newFieldInfo(location string, sf mesh.ScalarField) FieldInfo {
	return FieldInfo{Location: location, Name: sf.Name, Len: sf.Len(), Min: sf.Min, Max: sf.Max}
}

// ListFields collects the fields of m, optionally restricted to one name
func ListFields(m *mesh.Mesh, name string, toPoints bool) (fl []FieldInfo, err error) {
	for _, sf := range m.PointFields {
		if name == "" || sf.Name == name {
			fl = append(fl, newFieldInfo("point", sf))
		}
	}
	for _, sf := range m.CellFields {
		if name != "" && sf.Name != name {
			continue
		}
		fl = append(fl, newFieldInfo("cell", sf))
		if !toPoints {
			continue
		}
		var avg mesh.ScalarField
		if avg, err = m.CellToPointField(sf); err != nil {
			return nil, err
		}
		fl = append(fl, newFieldInfo("cell->point", avg))
	}
	if name != "" && len(fl) == 0 {
		err = fmt.Errorf("no field named %q", name)
	}
	return
}

func WriteFields(w io.Writer, fl []FieldInfo, format string) (err error) {
	switch format {
	case "yaml":
		var data []byte
		if data, err = yaml.Marshal(fl); err != nil {
			return
		}
		_, err = w.Write(data)
	case "text", "":
		for _, f := range fl {
			fmt.Fprintf(w, "%-12s %-20s %8d [%g, %g]\n", f.Location, f.Name, f.Len, f.Min, f.Max)
		}
	default:
		err = fmt.Errorf("unknown format %q, want text or yaml", format)
	}
	return
}
