// Package config loads bundler configuration from file, environment, and
// defaults. Field tags use mapstructure for viper unmarshalling.
package config

import (
	"errors"
	"log/slog"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/observability"
	"github.com/Sumatoshi-tech/bundlefang/pkg/validate"
)

// Config is the top-level configuration struct for bundlefang.
type Config struct {
	OutDir      string   `mapstructure:"out_dir"`
	Backend     string   `mapstructure:"backend"`
	Declaration string   `mapstructure:"declaration"`
	CJSInterop  bool     `mapstructure:"cjs_interop"`
	FailOnWarn  bool     `mapstructure:"fail_on_warn"`
	Externals   []string `mapstructure:"externals"`

	Cache         CacheConfig         `mapstructure:"cache"`
	Node10        Node10Config        `mapstructure:"node10"`
	Validation    ValidationConfig    `mapstructure:"validation"`
	Chart         ChartConfig         `mapstructure:"chart"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// CacheConfig holds transform cache settings.
type CacheConfig struct {
	// Dir is the on-disk cache root; empty disables the disk tier.
	Dir           string `mapstructure:"dir"`
	MemoryEntries int    `mapstructure:"memory_entries"`
}

// Node10Config holds legacy typesVersions synthesis settings.
type Node10Config struct {
	Enabled bool `mapstructure:"enabled"`
	// WriteToManifest writes the synthesized table back into package.json
	// instead of only echoing it.
	WriteToManifest bool `mapstructure:"write_to_manifest"`
}

// ValidationConfig holds the per-field reconciliation toggles.
type ValidationConfig struct {
	Bin           bool `mapstructure:"bin"`
	Dependencies  bool `mapstructure:"dependencies"`
	Exports       bool `mapstructure:"exports"`
	Files         bool `mapstructure:"files"`
	Main          bool `mapstructure:"main"`
	Module        bool `mapstructure:"module"`
	Name          bool `mapstructure:"name"`
	Types         bool `mapstructure:"types"`
	TypesVersions bool `mapstructure:"types_versions"`
}

// ChartConfig holds bundle-size chart settings.
type ChartConfig struct {
	// Path is where the HTML chart is written; empty disables it.
	Path string `mapstructure:"path"`
}

// ObservabilityConfig holds tracing and logging settings.
type ObservabilityConfig struct {
	// OTLPEndpoint is the OTLP gRPC collector address; empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrEmptyOutDir indicates the output directory is empty.
	ErrEmptyOutDir = errors.New("out_dir must not be empty")
	// ErrEmptyBackend indicates no backend is named.
	ErrEmptyBackend = errors.New("backend must not be empty")
	// ErrInvalidMemoryEntries indicates the memory cache capacity is negative.
	ErrInvalidMemoryEntries = errors.New("cache.memory_entries must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return ErrEmptyOutDir
	}

	if c.Backend == "" {
		return ErrEmptyBackend
	}

	if c.Cache.MemoryEntries < 0 {
		return ErrInvalidMemoryEntries
	}

	_, err := build.ParseDeclarationMode(c.Declaration)

	return err
}

// BuildOptions resolves the configuration into build options for a package
// rooted at rootDir. Stub mode is a per-invocation flag, not configuration.
func (c *Config) BuildOptions(rootDir string, stub bool) (build.Options, error) {
	mode, err := build.ParseDeclarationMode(c.Declaration)
	if err != nil {
		return build.Options{}, err
	}

	return build.Options{
		RootDir:               rootDir,
		OutDir:                c.OutDir,
		Declaration:           mode,
		CJSInterop:            c.CJSInterop,
		FailOnWarn:            c.FailOnWarn,
		Stub:                  stub,
		Node10Enabled:         c.Node10.Enabled,
		Node10WriteToManifest: c.Node10.WriteToManifest,
		Externals:             c.Externals,
		ChartPath:             c.Chart.Path,
	}, nil
}

// ObservabilityOptions resolves the tracing and logging configuration.
func (c *Config) ObservabilityOptions(serviceVersion string) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = serviceVersion
	obsCfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = c.Observability.OTLPInsecure
	obsCfg.LogJSON = c.Observability.LogJSON

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Observability.LogLevel)); err == nil {
		obsCfg.LogLevel = level
	}

	return obsCfg
}

// ValidateOptions resolves the per-field reconciliation toggles.
func (c *Config) ValidateOptions() validate.Options {
	return validate.Options{
		Bin:           c.Validation.Bin,
		Dependencies:  c.Validation.Dependencies,
		Exports:       c.Validation.Exports,
		Files:         c.Validation.Files,
		Main:          c.Validation.Main,
		Module:        c.Validation.Module,
		Name:          c.Validation.Name,
		Types:         c.Validation.Types,
		TypesVersions: c.Validation.TypesVersions,
	}
}
