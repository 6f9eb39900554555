package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlefang/internal/config"
	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
)

func TestLoadConfig_ExplicitMissingFileErrors(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".bundlefang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
out_dir: build
declaration: node16
fail_on_warn: true
externals:
  - react
node10:
  write_to_manifest: true
validation:
  files: false
`), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "build", cfg.OutDir)
	assert.Equal(t, "node16", cfg.Declaration)
	assert.True(t, cfg.FailOnWarn)
	assert.Equal(t, []string{"react"}, cfg.Externals)
	assert.True(t, cfg.Node10.WriteToManifest)

	// Unset keys keep their defaults.
	assert.Equal(t, "stub", cfg.Backend)
	assert.True(t, cfg.CJSInterop)
	assert.True(t, cfg.Node10.Enabled)
	assert.True(t, cfg.Validation.Exports)
	assert.False(t, cfg.Validation.Files)
}

func TestLoadConfig_InvalidDeclaration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".bundlefang.yaml")
	require.NoError(t, os.WriteFile(path, []byte("declaration: maybe\n"), 0o644))

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, build.ErrBadDeclarationMode)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want error
	}{
		{
			name: "empty out dir",
			cfg:  config.Config{Backend: "stub"},
			want: config.ErrEmptyOutDir,
		},
		{
			name: "empty backend",
			cfg:  config.Config{OutDir: "dist"},
			want: config.ErrEmptyBackend,
		},
		{
			name: "negative memory entries",
			cfg: config.Config{
				OutDir:  "dist",
				Backend: "stub",
				Cache:   config.CacheConfig{MemoryEntries: -1},
			},
			want: config.ErrInvalidMemoryEntries,
		},
		{
			name: "valid",
			cfg:  config.Config{OutDir: "dist", Backend: "stub", Declaration: "compatible"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestConfig_BuildOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		OutDir:      "dist",
		Backend:     "stub",
		Declaration: "node16",
		CJSInterop:  true,
		Externals:   []string{"react"},
		Node10:      config.Node10Config{Enabled: true, WriteToManifest: true},
		Chart:       config.ChartConfig{Path: "sizes.html"},
	}

	opts, err := cfg.BuildOptions("/pkg", true)
	require.NoError(t, err)

	assert.Equal(t, "/pkg", opts.RootDir)
	assert.Equal(t, build.DeclarationNode16, opts.Declaration)
	assert.True(t, opts.Stub)
	assert.True(t, opts.Node10WriteToManifest)
	assert.Equal(t, "sizes.html", opts.ChartPath)
}

func TestConfig_ValidateOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Validation: config.ValidationConfig{Exports: true, Dependencies: true},
	}

	opts := cfg.ValidateOptions()
	assert.True(t, opts.Exports)
	assert.True(t, opts.Dependencies)
	assert.False(t, opts.Files)
}
