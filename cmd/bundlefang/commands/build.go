// Package commands implements CLI command handlers for bundlefang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlefang/internal/backends"
	"github.com/Sumatoshi-tech/bundlefang/internal/cache"
	"github.com/Sumatoshi-tech/bundlefang/internal/config"
	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/diagnostics"
	"github.com/Sumatoshi-tech/bundlefang/pkg/interop"
	"github.com/Sumatoshi-tech/bundlefang/pkg/manifest"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
	"github.com/Sumatoshi-tech/bundlefang/pkg/observability"
	"github.com/Sumatoshi-tech/bundlefang/pkg/validate"
	"github.com/Sumatoshi-tech/bundlefang/pkg/version"
)

var (
	// ErrBuildFailed is returned when error diagnostics were recorded.
	ErrBuildFailed = errors.New("build failed")
	// ErrWarningsEscalated is returned when fail-on-warn promotes warnings to
	// a failing exit.
	ErrWarningsEscalated = errors.New("build produced warnings and fail-on-warn is set")
)

// BuildCommand holds configuration and dependencies for the build command.
type BuildCommand struct {
	configPath  string
	outDir      string
	declaration string
	backend     string
	cacheDir    string
	chartPath   string
	externals   []string
	failOnWarn  bool
	cjsInterop  bool
	stub        bool
	writeTypes  bool
	noColor     bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	bc := &BuildCommand{}

	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Compile the package and reconcile its manifest",
		Long: "Compile the code and declaration bundles a package.json promises " +
			"and reconcile the emitted artifacts against the manifest.",
		Args: cobra.MaximumNArgs(1),
		RunE: bc.run,
	}

	cmd.Flags().StringVar(&bc.configPath, "config", "", "Config file path (default: .bundlefang.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&bc.outDir, "out-dir", "", "Output directory (default: dist)")
	cmd.Flags().StringVar(&bc.declaration, "declaration", "", "Declaration output: true, false, compatible, node16")
	cmd.Flags().StringVar(&bc.backend, "backend", "", "Compilation backend")
	cmd.Flags().StringVar(&bc.cacheDir, "cache-dir", "", "Transform cache directory (empty = memory only)")
	cmd.Flags().StringVar(&bc.chartPath, "chart", "", "Write an HTML bundle-size chart to this path")
	cmd.Flags().StringSliceVar(&bc.externals, "external", nil, "Import ids exempt from dependency validation")
	cmd.Flags().BoolVar(&bc.failOnWarn, "fail-on-warn", false, "Exit non-zero when warnings were recorded")
	cmd.Flags().BoolVar(&bc.cjsInterop, "cjs-interop", true, "Generate CommonJS default-export interop shims")
	cmd.Flags().BoolVar(&bc.stub, "jit", false, "Generate lazy dev-time stubs and skip reconciliation")
	cmd.Flags().BoolVar(&bc.writeTypes, "write-types-versions", false, "Write the synthesized typesVersions table into package.json")
	cmd.Flags().BoolVar(&bc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (bc *BuildCommand) run(cmd *cobra.Command, args []string) error {
	if bc.noColor {
		color.NoColor = true
	}

	rootDir, err := filepath.Abs(resolvePath(args))
	if err != nil {
		return fmt.Errorf("resolve package path: %w", err)
	}

	cfg, err := bc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := observability.Init(cfg.ObservabilityOptions(version.Version))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()

	logger := providers.Logger

	opts, err := cfg.BuildOptions(rootDir, bc.stub)
	if err != nil {
		return err
	}

	bctx, err := newBuildContext(rootDir, opts)
	if err != nil {
		return err
	}

	transformCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.MemoryEntries)
	if err != nil {
		return err
	}

	backendName := cfg.Backend
	if opts.Stub {
		backendName = backends.StubName
	}

	backend, err := backends.Lookup(backendName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	logger.InfoContext(ctx, "build started",
		slog.String("package", bctx.Manifest.Name),
		slog.String("backend", backend.Name()))

	runErr := build.Run(ctx, backend, bctx, transformCache)
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()

	if opts.Stub {
		// Stub builds generate shims for local development; the manifest is
		// not reconciled against them.
		fmt.Fprint(out, build.RenderSummary(bctx))

		return nil
	}

	if reconcileErr := bc.reconcile(ctx, bctx, cfg, logger, out); reconcileErr != nil {
		return reconcileErr
	}

	printDiagnostics(cmd.ErrOrStderr(), bctx.Diagnostics)
	fmt.Fprint(out, build.RenderSummary(bctx))

	if opts.ChartPath != "" {
		if chartErr := build.WriteChart(opts.ChartPath, bctx.Entries()); chartErr != nil {
			return chartErr
		}

		logger.InfoContext(ctx, "chart written", slog.String("path", opts.ChartPath))
	}

	hits, misses := transformCache.Stats()
	logger.InfoContext(ctx, "build finished",
		slog.Int64("cache_hits", hits),
		slog.Int64("cache_misses", misses))

	return exitPolicy(bctx)
}

// resolveConfig loads the file/env configuration and applies flag overrides.
func (bc *BuildCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(bc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("out-dir") {
		cfg.OutDir = bc.outDir
	}

	if flags.Changed("declaration") {
		cfg.Declaration = bc.declaration
	}

	if flags.Changed("backend") {
		cfg.Backend = bc.backend
	}

	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = bc.cacheDir
	}

	if flags.Changed("chart") {
		cfg.Chart.Path = bc.chartPath
	}

	if flags.Changed("external") {
		cfg.Externals = bc.externals
	}

	if flags.Changed("fail-on-warn") {
		cfg.FailOnWarn = bc.failOnWarn
	}

	if flags.Changed("cjs-interop") {
		cfg.CJSInterop = bc.cjsInterop
	}

	if flags.Changed("write-types-versions") {
		cfg.Node10.WriteToManifest = bc.writeTypes
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// newBuildContext loads the manifest and resolves the expected export surface.
func newBuildContext(rootDir string, opts build.Options) (*build.Context, error) {
	pkg, err := manifest.Load(rootDir)
	if err != nil {
		return nil, err
	}

	descs, err := build.CollectDescriptors(pkg, opts.Declaration.Enabled())
	if err != nil {
		return nil, err
	}

	bctx := build.NewContext(pkg, opts, descs)

	violations, err := manifest.ValidateSchema(pkg.Raw())
	if err != nil {
		return nil, err
	}

	for _, violation := range violations {
		bctx.Diagnostics.Warnf("package.json", "%s", violation)
	}

	return bctx, nil
}

// reconcile runs the post-build checks: typesVersions synthesis, manifest
// validation, and dependency validation.
func (bc *BuildCommand) reconcile(
	ctx context.Context,
	bctx *build.Context,
	cfg *config.Config,
	logger *slog.Logger,
	out io.Writer,
) error {
	validateOpts := cfg.ValidateOptions()

	// The node10 table maps subpaths to declaration paths; without a
	// declaration pass those paths are never emitted and the table would
	// promise files the build does not produce.
	if bctx.Options.Node10Enabled && bctx.Options.Declaration.Enabled() {
		table := node10.Synthesize(bctx.Descriptors, bctx.Options.Declaration.Node10Mode())

		if table.Len() > 0 {
			echoTypesVersions(out, table)

			if bctx.Options.Node10WriteToManifest {
				bctx.Manifest.SetTypesVersions(table.Object())

				diff, writeErr := bctx.Manifest.WriteFile()
				if writeErr != nil {
					return writeErr
				}

				if diff != "" {
					logger.InfoContext(ctx, "manifest updated", slog.String("diff", diff))
				}
			}
		}

		validate.CheckTypesVersions(bctx, table, validateOpts)
	}

	logInteropShims(ctx, bctx, logger)

	validate.ValidatePackage(bctx, validateOpts)
	validate.ValidateDependencies(bctx, validateOpts)

	return nil
}

// logInteropShims reports which CommonJS entries received default-export
// interop treatment.
func logInteropShims(ctx context.Context, bctx *build.Context, logger *slog.Logger) {
	for _, entry := range bctx.Entries() {
		if len(entry.Exports) == 0 {
			continue
		}

		shape := interop.Classify(entry.Exports)
		if interop.RequiresShim(shape, entry.Format, bctx.Options.CJSInterop) {
			logger.DebugContext(ctx, "cjs interop shim applied",
				slog.String("entry", entry.Path),
				slog.String("shape", shape.String()))
		}
	}
}

// echoTypesVersions prints the synthesized table so it can be copied into the
// manifest when write-back is off.
func echoTypesVersions(out io.Writer, table *node10.Table) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(out, "typesVersions:")
	fmt.Fprintln(out, table.Render())
}

// printDiagnostics writes the deduplicated diagnostic set, errors first.
func printDiagnostics(out io.Writer, set *diagnostics.Set) {
	errorLabel := color.New(color.FgRed, color.Bold)
	warnLabel := color.New(color.FgYellow, color.Bold)

	for _, d := range set.Items() {
		switch d.Severity {
		case diagnostics.SeverityError:
			errorLabel.Fprint(out, "error ")
		case diagnostics.SeverityWarn:
			warnLabel.Fprint(out, "warn  ")
		case diagnostics.SeverityInfo:
			fmt.Fprint(out, "info  ")
		}

		fmt.Fprintln(out, d.String())
	}
}

// exitPolicy decides the process outcome from the accumulated diagnostics.
func exitPolicy(bctx *build.Context) error {
	if bctx.Diagnostics.HasErrors() {
		return fmt.Errorf("%w: %d error(s)", ErrBuildFailed, bctx.Diagnostics.Count(diagnostics.SeverityError))
	}

	if bctx.Options.FailOnWarn && bctx.Diagnostics.HasWarnings() {
		return ErrWarningsEscalated
	}

	return nil
}

func resolvePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return "."
}
