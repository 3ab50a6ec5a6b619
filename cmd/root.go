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
	"log"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vtkmesh",
	Short: "Decode VTK mesh files into triangle buffers",
	Long: `
Reads legacy ASCII VTK (.vtk) and VTK XML (.vtu, .vtp) files, triangulates
their cells and reports the resulting mesh and its scalar fields.

vtkmesh inspect grid.vtu
vtkmesh fields --to-points grid.vtk`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vtkmesh.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log decode warnings and memory usage")
	rootCmd.PersistentFlags().StringP("format", "o", "text", "output format: text or yaml")
	rootCmd.PersistentFlags().String("profile", "", "write a profile of the run: cpu or mem")
	for _, name := range []string{"verbose", "format", "profile"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".vtkmesh" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".vtkmesh")
	}

	viper.SetEnvPrefix("VTKMESH")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		log.Printf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// startProfile starts the profiler named by the profile setting. The returned
// func stops it and is safe to call when profiling is off.
func startProfile() (stop func(), err error) {
	switch strings.ToLower(viper.GetString("profile")) {
	case "":
		return func() {}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop, nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop, nil
	}
	return nil, fmt.Errorf("unknown profile %q, want cpu or mem", viper.GetString("profile"))
}
