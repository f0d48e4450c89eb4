package spec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/medflow/medflow-openapi/internal/scan"
	"github.com/medflow/medflow-openapi/internal/schema"
	"github.com/rs/zerolog"
)

// Options configures one generator run.
type Options struct {
	// AppDir is the framework's app root; route paths are computed relative to it.
	AppDir string
	// RoutesDir is walked for route files. Usually <AppDir>/api.
	RoutesDir string
	// SchemaPath points at the declarative ORM schema. Empty disables linking.
	SchemaPath string
	// Extensions accepted for route.<ext> files; nil means scan.DefaultRouteExtensions.
	Extensions []string
	// Info fills the document's info object and server.
	Info   Info
	Logger zerolog.Logger
}

// Result is the outcome of Assemble.
type Result struct {
	Info       Info
	Builder    *Builder
	Schemas    *schema.Set // nil when the schema file was missing or unparseable
	RouteFiles int
	Skipped    int // route files that contributed nothing
	Warnings   int
}

// Document renders the assembled OpenAPI document.
func (r *Result) Document() map[string]any {
	return RenderDocument(r.Builder, r.Schemas, r.Info)
}

// Assemble scans the routes directory and builds the document paths, then
// links schema models. Only a missing routes directory is fatal; every
// per-file or per-block problem is logged and skipped.
func Assemble(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger

	files, err := scan.WalkFiles(opts.RoutesDir)
	if err != nil {
		return nil, err
	}

	res := &Result{Info: opts.Info, Builder: NewBuilder()}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !scan.IsRouteFile(file, opts.Extensions) {
			continue
		}
		res.RouteFiles++
		warnings, ok := assembleFile(res.Builder, opts.AppDir, file, log)
		res.Warnings += warnings
		if !ok {
			res.Skipped++
		}
	}

	if opts.SchemaPath != "" {
		set, err := loadSchemas(opts.SchemaPath)
		if err != nil {
			res.Warnings++
			log.Warn().Err(err).Str("file", opts.SchemaPath).Msg("schema linking skipped")
		} else {
			for _, w := range set.Warnings {
				res.Warnings++
				log.Warn().Str("file", opts.SchemaPath).Int("line", w.Line).Msg(w.Message)
			}
			res.Schemas = set
			linked := LinkSchemas(res.Builder, set)
			log.Debug().Int("models", len(set.Models)).Int("linked_paths", linked).Msg("schemas linked")
		}
	}

	Finalize(res.Builder)
	return res, nil
}

func loadSchemas(path string) (*schema.Set, error) {
	set, err := schema.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if set.Empty() {
		return nil, fmt.Errorf("schema %s declares no models", path)
	}
	return set, nil
}

// assembleFile merges one route file into b. It returns the number of
// warnings raised and whether the file contributed its own path.
func assembleFile(b *Builder, appDir, file string, log zerolog.Logger) (int, bool) {
	warnings := 0
	data, err := os.ReadFile(file)
	if err != nil {
		log.Warn().Err(err).Str("file", file).Msg("cannot read route file")
		return 1, false
	}
	text := string(data)

	blocks, errs := scan.ExtractInlineSpecs(text)
	for _, e := range errs {
		warnings++
		ev := log.Warn().Err(e).Str("file", file)
		var ise *scan.InlineSpecError
		if errors.As(e, &ise) {
			ev = ev.Int("block", ise.Index)
		}
		ev.Msg("skipping malformed inline spec")
	}

	// path-level injections come first and may target any path
	for _, blk := range blocks {
		if paths, ok := blk.Paths(); ok {
			b.Inject(paths)
		}
	}

	urlPath, ok := scan.MapRoutePath(appDir, file)
	if !ok {
		rel, _ := filepath.Rel(appDir, file)
		log.Warn().Str("file", file).Str("rel", filepath.ToSlash(rel)).Msg("route file is not under the api root")
		return warnings + 1, false
	}

	methods := scan.MethodsOrDefault(scan.ScanExports(text))
	entry := b.Entry(urlPath)
	body := scan.InferBody(text)
	query := scan.InferQuery(text)

	for _, m := range methods.Sorted() {
		entry.Ensure(m)
		for _, blk := range blocks {
			for _, override := range blk.Operations(m) {
				entry.Override(m, override)
			}
		}

		op := entry.Operations[m]
		lock := entry.Lock(m)
		op = withInferredParameters(op, lock, scan.PathParams(urlPath), query)
		if m != scan.GET {
			op = withInferredBody(op, lock, body)
		}
		entry.Set(m, op)
	}

	log.Debug().
		Str("file", file).
		Str("path", urlPath).
		Int("methods", len(methods)).
		Int("inline_blocks", len(blocks)).
		Msg("route scanned")
	return warnings, true
}

// withInferredParameters fills parameters from path placeholders and query
// accessors. Inline parameters replace inference entirely.
func withInferredParameters(op map[string]any, lock *Lock, pathParams, query []string) map[string]any {
	if lock.Parameters {
		return op
	}
	if _, ok := op["parameters"]; ok {
		return op
	}
	if len(pathParams) == 0 && len(query) == 0 {
		return op
	}
	params := make([]any, 0, len(pathParams)+len(query))
	for _, name := range pathParams {
		params = append(params, map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		})
	}
	for _, name := range query {
		params = append(params, map[string]any{
			"name":     name,
			"in":       "query",
			"required": false,
			"schema":   map[string]any{"type": "string"},
		})
	}
	return MergeObjects(op, map[string]any{"parameters": params})
}

// withInferredBody fills requestBody from the body hint when no inline spec
// or earlier stage set one.
func withInferredBody(op map[string]any, lock *Lock, hint *scan.BodyHint) map[string]any {
	if hint == nil || lock.RequestBody {
		return op
	}
	if _, ok := op["requestBody"]; ok {
		return op
	}
	props := make(map[string]any, len(hint.Fields))
	for _, f := range hint.Fields {
		props[f.Name] = map[string]any{}
	}
	objSchema := map[string]any{"type": "object", "properties": props}
	required := hint.Required()
	if len(required) > 0 {
		req := make([]any, 0, len(required))
		for _, r := range required {
			req = append(req, r)
		}
		objSchema["required"] = req
	}
	return MergeObjects(op, map[string]any{
		"requestBody": map[string]any{
			"required": len(required) > 0,
			"content": map[string]any{
				"application/json": map[string]any{"schema": objSchema},
			},
		},
	})
}

// Finalize guarantees every operation carries a 200 response.
func Finalize(b *Builder) {
	for _, p := range b.Paths() {
		e := b.entries[p]
		for _, m := range e.Methods() {
			op := e.Operations[m]
			responses := asObject(op["responses"])
			if _, ok := responses["200"]; ok {
				continue
			}
			e.Set(m, MergeObjects(op, map[string]any{
				"responses": MergeObjects(responses, map[string]any{
					"200": map[string]any{"description": "Success"},
				}),
			}))
		}
	}
}
