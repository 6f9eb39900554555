package backends

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/internal/cache"
	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

// StubName is the registry name of the stub backend.
const StubName = "stub"

// sourceDir is the conventional source directory stubs re-export from.
const sourceDir = "src"

// stubFileMode is the permission mode for generated shim files.
const stubFileMode = 0o644

func init() {
	Register(StubName, func() build.Backend { return &stubBackend{} })
}

// stubBackend generates lazy re-export shims instead of compiling. Each
// promised artifact becomes a one-line file that defers to the source tree,
// so local consumers resolve the package without a real build.
type stubBackend struct{}

func (b *stubBackend) Name() string { return StubName }

// Compile writes one shim per descriptor. Wildcard subpaths have no single
// source module and are skipped.
func (b *stubBackend) Compile(ctx context.Context, req build.CompileRequest) (build.Result, error) {
	var result build.Result

	for _, desc := range req.Descriptors {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if strings.Contains(desc.Subpath, "*") || strings.Contains(desc.File, "*") {
			continue
		}

		content := shimContent(desc)
		if content == "" {
			continue
		}

		outPath := filepath.Join(req.RootDir, build.NormalizePath(desc.File))

		key := cache.Key([]byte(content), "stub", desc.File)

		if req.Cache != nil {
			if _, cached := req.Cache.Get(key); cached {
				if _, statErr := os.Stat(outPath); statErr == nil {
					result.Entries = append(result.Entries, stubEntry(desc, content, req.Pass))

					continue
				}
			}
		}

		if mkErr := os.MkdirAll(filepath.Dir(outPath), 0o755); mkErr != nil {
			return result, fmt.Errorf("create shim dir: %w", mkErr)
		}

		if writeErr := os.WriteFile(outPath, []byte(content), stubFileMode); writeErr != nil {
			return result, fmt.Errorf("write shim %s: %w", desc.File, writeErr)
		}

		if req.Cache != nil {
			if putErr := req.Cache.Put(key, []byte(content)); putErr != nil {
				return result, fmt.Errorf("cache shim %s: %w", desc.File, putErr)
			}
		}

		result.Entries = append(result.Entries, stubEntry(desc, content, req.Pass))
	}

	return result, nil
}

func stubEntry(desc exports.Descriptor, content string, pass build.Pass) build.Entry {
	return build.Entry{
		Path:   desc.File,
		Bytes:  int64(len(content)),
		Format: desc.Type,
		Pass:   pass,
	}
}

// shimContent renders the re-export line for one artifact.
func shimContent(desc exports.Descriptor) string {
	source := sourceModule(desc)
	if source == "" {
		return ""
	}

	if exports.IsDeclarationPath(desc.File) {
		return fmt.Sprintf("export * from %q;\n", source)
	}

	switch desc.Type {
	case exports.FormatCJS:
		return fmt.Sprintf("module.exports = require(%q);\n", source)
	case exports.FormatESM:
		return fmt.Sprintf("export * from %q;\n", source)
	default:
		return ""
	}
}

// sourceModule computes the import path from a shim back to its source
// module: "." maps to src/index, "./foo" to src/foo.
func sourceModule(desc exports.Descriptor) string {
	name := "index"
	if desc.Subpath != "" && desc.Subpath != "." {
		name = strings.TrimPrefix(desc.Subpath, "./")
	}

	fromDir := path.Dir(build.NormalizePath(desc.File))

	rel, err := filepath.Rel(fromDir, path.Join(sourceDir, name))
	if err != nil {
		return ""
	}

	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}

	return rel
}
