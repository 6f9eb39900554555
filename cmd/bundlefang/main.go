// Package main provides the entry point for the bundlefang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlefang/cmd/bundlefang/commands"
	"github.com/Sumatoshi-tech/bundlefang/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bundlefang",
		Short: "Bundlefang - zero-config bundler for npm packages",
		Long: `Bundlefang reads a package.json, resolves the export surface it
promises, compiles code and declaration bundles, and reconciles the
result against the manifest.

Commands:
  build     Compile the package and reconcile its manifest
  inspect   Show the resolved export surface without building`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "bundlefang %s\n", version.String())
		},
	}
}
