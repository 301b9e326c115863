// Package cmd provides the command-line interface for svsim.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "svsim",
	Short: "svsim CLI tool can perform common tasks related to developing " +
		"testbenches with svsim.",
	Long: `svsim CLI tool can perform common tasks related to developing ` +
		`testbenches with svsim. Currently, it supports running the bundled ` +
		`example testbenches and creating testbench scaffolds.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
