package validate

import (
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
)

// ValidateDependencies checks that every non-relative import resolved during
// compilation is declared in the manifest, explicitly marked external, or a
// runtime builtin. Each implicit external is reported once per unique id;
// the memoization lives on the build context so repeats across modules and
// passes stay silent.
func ValidateDependencies(bctx *build.Context, opts Options) {
	if !opts.Dependencies {
		return
	}

	externals := make(map[string]struct{}, len(bctx.Options.Externals))
	for _, id := range bctx.Options.Externals {
		externals[id] = struct{}{}
	}

	for _, id := range bctx.Imports() {
		pkgName := packageName(id)
		if pkgName == "" || isBuiltin(pkgName) {
			continue
		}

		if _, external := externals[pkgName]; external {
			continue
		}

		if _, external := externals[id]; external {
			continue
		}

		if bctx.Manifest.DeclaresDependency(pkgName) {
			continue
		}

		if !bctx.WarnedImports.Add(pkgName) {
			continue
		}

		bctx.Diagnostics.Warnf("dependencies",
			"%q is imported but not declared; add it to dependencies or mark it external",
			pkgName)
	}
}

// packageName extracts the npm package name from an import id:
// "lodash/get" resolves to "lodash", "@scope/pkg/util" to "@scope/pkg".
// Relative and absolute ids are not packages and return "".
func packageName(id string) string {
	if id == "" || strings.HasPrefix(id, ".") || strings.HasPrefix(id, "/") {
		return ""
	}

	parts := strings.Split(id, "/")

	if strings.HasPrefix(id, "@") {
		if len(parts) < 2 {
			return ""
		}

		return parts[0] + "/" + parts[1]
	}

	return parts[0]
}

// nodeBuiltins are the Node.js runtime modules that need no declaration.
var nodeBuiltins = map[string]struct{}{
	"assert": {}, "async_hooks": {}, "buffer": {}, "child_process": {},
	"cluster": {}, "console": {}, "constants": {}, "crypto": {}, "dgram": {},
	"diagnostics_channel": {}, "dns": {}, "domain": {}, "events": {}, "fs": {},
	"http": {}, "http2": {}, "https": {}, "inspector": {}, "module": {},
	"net": {}, "os": {}, "path": {}, "perf_hooks": {}, "process": {},
	"punycode": {}, "querystring": {}, "readline": {}, "repl": {},
	"stream": {}, "string_decoder": {}, "timers": {}, "tls": {},
	"trace_events": {}, "tty": {}, "url": {}, "util": {}, "v8": {}, "vm": {},
	"wasi": {}, "worker_threads": {}, "zlib": {},
}

// isBuiltin reports whether id names a Node builtin, with or without the
// "node:" scheme prefix.
func isBuiltin(id string) bool {
	id = strings.TrimPrefix(id, "node:")

	// Subpath builtins like "fs/promises" reduce to their root module.
	if idx := strings.IndexByte(id, '/'); idx > 0 {
		id = id[:idx]
	}

	_, ok := nodeBuiltins[id]

	return ok
}
