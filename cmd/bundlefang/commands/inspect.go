package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/manifest"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
)

// InspectCommand holds configuration for the inspect command.
type InspectCommand struct {
	declaration string
	noColor     bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	ic := &InspectCommand{}

	cmd := &cobra.Command{
		Use:   "inspect [path]",
		Short: "Show the resolved export surface without building",
		Long: "Resolve the export surface a package.json promises and print the " +
			"derived artifact list and legacy typesVersions table.",
		Args: cobra.MaximumNArgs(1),
		RunE: ic.run,
	}

	cmd.Flags().StringVar(&ic.declaration, "declaration", "compatible",
		"Declaration output: true, false, compatible, node16")
	cmd.Flags().BoolVar(&ic.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (ic *InspectCommand) run(cmd *cobra.Command, args []string) error {
	if ic.noColor {
		color.NoColor = true
	}

	rootDir, err := filepath.Abs(resolvePath(args))
	if err != nil {
		return fmt.Errorf("resolve package path: %w", err)
	}

	mode, err := build.ParseDeclarationMode(ic.declaration)
	if err != nil {
		return err
	}

	pkg, err := manifest.Load(rootDir)
	if err != nil {
		return err
	}

	descs, err := build.CollectDescriptors(pkg, mode.Enabled())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(out, "%s@%s\n", pkg.Name, pkg.Version)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Field", "Subpath", "Condition", "File", "Format"})

	for _, desc := range descs {
		format := string(desc.Type)
		if format == "" {
			format = "-"
		}

		condition := desc.SubKey
		if condition == "" {
			condition = "-"
		}

		tw.AppendRow(table.Row{desc.FieldName, desc.Subpath, condition, desc.File, format})
	}

	fmt.Fprintln(out, tw.Render())

	if mode.Enabled() {
		tbl := node10.Synthesize(descs, mode.Node10Mode())
		if tbl.Len() > 0 {
			echoTypesVersions(out, tbl)
		}
	}

	return nil
}
