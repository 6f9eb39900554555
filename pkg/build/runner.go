package build

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

// tracerName is the instrumentation scope for build spans.
const tracerName = "bundlefang"

// Run executes the compilation passes through the backend. The code and
// declaration passes run concurrently with no shared mutable state beyond
// the context's locked collections and the keyed transform cache. Failure in
// one pass does not cancel the other; both are awaited and their errors
// aggregated so the final report covers everything that happened.
func Run(ctx context.Context, backend Backend, bctx *Context, cache TransformCache) error {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "build",
		trace.WithAttributes(
			attribute.String("package", bctx.Manifest.Name),
			attribute.String("backend", backend.Name()),
		))
	defer span.End()

	passes := []Pass{PassBundle}
	if bctx.Options.Declaration.Enabled() {
		passes = append(passes, PassDeclaration)
	}

	var wg sync.WaitGroup

	passErrs := make([]error, len(passes))

	for i, pass := range passes {
		wg.Add(1)

		go func(i int, pass Pass) {
			defer wg.Done()

			passErrs[i] = runPass(ctx, tracer, backend, bctx, cache, pass)
		}(i, pass)
	}

	wg.Wait()

	err := errors.Join(passErrs...)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// runPass executes one pass and merges its result into the context.
func runPass(ctx context.Context, tracer trace.Tracer, backend Backend, bctx *Context, cache TransformCache, pass Pass) error {
	ctx, span := tracer.Start(ctx, "pass."+pass.String())
	defer span.End()

	req := CompileRequest{
		RootDir:     bctx.Options.RootDir,
		OutDir:      bctx.Options.OutDir,
		Pass:        pass,
		Descriptors: passDescriptors(bctx.Descriptors, pass),
		Cache:       cache,
		CJSInterop:  bctx.Options.CJSInterop,
	}

	started := time.Now()

	result, err := backend.Compile(ctx, req)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("%s pass: %w", pass, err)
	}

	bctx.AddResult(pass, result, time.Since(started))
	span.SetAttributes(attribute.Int("entries", len(result.Entries)))

	return nil
}

// passDescriptors selects the descriptors one pass is responsible for:
// declaration files for the declaration pass, code entries for the bundle
// pass. Non-code assets ride along with the bundle pass.
func passDescriptors(descs []exports.Descriptor, pass Pass) []exports.Descriptor {
	var out []exports.Descriptor

	for _, desc := range descs {
		isDecl := desc.SubKey == "types" || exports.IsDeclarationPath(desc.File)

		if (pass == PassDeclaration) == isDecl {
			out = append(out, desc)
		}
	}

	return out
}
