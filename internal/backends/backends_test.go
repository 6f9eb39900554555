package backends_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlefang/internal/backends"
	"github.com/Sumatoshi-tech/bundlefang/internal/cache"
	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

func TestLookup_Stub(t *testing.T) {
	t.Parallel()

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)
	assert.Equal(t, backends.StubName, backend.Name())
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := backends.Lookup("nope")
	require.ErrorIs(t, err, backends.ErrUnknownBackend)
	assert.Contains(t, err.Error(), backends.StubName)
}

func TestNames_Sorted(t *testing.T) {
	t.Parallel()

	assert.Contains(t, backends.Names(), backends.StubName)
}

func newTransformCache(t *testing.T) *cache.TransformCache {
	t.Helper()

	c, err := cache.New("", 0)
	require.NoError(t, err)

	return c
}

func TestStub_WritesShims(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)

	result, err := backend.Compile(context.Background(), build.CompileRequest{
		RootDir: dir,
		Pass:    build.PassBundle,
		Cache:   newTransformCache(t),
		Descriptors: []exports.Descriptor{
			{File: "./dist/index.mjs", Key: exports.KeyExports, Subpath: ".", Type: exports.FormatESM},
			{File: "./dist/index.cjs", Key: exports.KeyExports, Subpath: ".", Type: exports.FormatCJS},
			{File: "./dist/utils.mjs", Key: exports.KeyExports, Subpath: "./utils", Type: exports.FormatESM},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 3)

	esm, err := os.ReadFile(filepath.Join(dir, "dist", "index.mjs"))
	require.NoError(t, err)
	assert.Equal(t, "export * from \"../src/index\";\n", string(esm))

	cjs, err := os.ReadFile(filepath.Join(dir, "dist", "index.cjs"))
	require.NoError(t, err)
	assert.Equal(t, "module.exports = require(\"../src/index\");\n", string(cjs))

	utils, err := os.ReadFile(filepath.Join(dir, "dist", "utils.mjs"))
	require.NoError(t, err)
	assert.Equal(t, "export * from \"../src/utils\";\n", string(utils))
}

func TestStub_DeclarationShim(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)

	result, err := backend.Compile(context.Background(), build.CompileRequest{
		RootDir: dir,
		Pass:    build.PassDeclaration,
		Cache:   newTransformCache(t),
		Descriptors: []exports.Descriptor{
			{File: "./dist/index.d.ts", Key: exports.KeyExports, Subpath: ".", SubKey: "types"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, build.PassDeclaration, result.Entries[0].Pass)

	decl, err := os.ReadFile(filepath.Join(dir, "dist", "index.d.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export * from \"../src/index\";\n", string(decl))
}

func TestStub_SkipsWildcards(t *testing.T) {
	t.Parallel()

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)

	result, err := backend.Compile(context.Background(), build.CompileRequest{
		RootDir: t.TempDir(),
		Pass:    build.PassBundle,
		Cache:   newTransformCache(t),
		Descriptors: []exports.Descriptor{
			{File: "./dist/*.mjs", Key: exports.KeyExports, Subpath: "./*", Type: exports.FormatESM},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestStub_CacheSkipsRewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	transformCache := newTransformCache(t)

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)

	req := build.CompileRequest{
		RootDir: dir,
		Pass:    build.PassBundle,
		Cache:   transformCache,
		Descriptors: []exports.Descriptor{
			{File: "./dist/index.mjs", Key: exports.KeyExports, Subpath: ".", Type: exports.FormatESM},
		},
	}

	_, err = backend.Compile(context.Background(), req)
	require.NoError(t, err)

	shimPath := filepath.Join(dir, "dist", "index.mjs")

	first, err := os.Stat(shimPath)
	require.NoError(t, err)

	result, err := backend.Compile(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	second, err := os.Stat(shimPath)
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime())
}

func TestStub_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend, err := backends.Lookup(backends.StubName)
	require.NoError(t, err)

	_, err = backend.Compile(ctx, build.CompileRequest{
		RootDir: t.TempDir(),
		Cache:   newTransformCache(t),
		Descriptors: []exports.Descriptor{
			{File: "./dist/index.mjs", Key: exports.KeyExports, Subpath: ".", Type: exports.FormatESM},
		},
	})
	require.ErrorIs(t, err, context.Canceled)
}
