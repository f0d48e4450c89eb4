package spec

import (
	"strings"

	"github.com/medflow/medflow-openapi/internal/scan"
	"github.com/medflow/medflow-openapi/internal/schema"
)

const jsonMime = "application/json"

// LinkSchemas attaches model schemas to operations whose first resource
// segment names a model, singular or with a plain "s" plural. Only empty,
// unlocked slots are filled. It returns the number of paths linked.
func LinkSchemas(b *Builder, set *schema.Set) int {
	if set.Empty() {
		return 0
	}
	names := set.ModelNames()
	linked := 0
	for _, path := range b.Paths() {
		model := matchModel(resourceSegment(path), names)
		if model == "" {
			continue
		}
		linked++
		e := b.entries[path]
		collection := len(scan.PathParams(path)) == 0
		ref := schema.Ref(model)

		for _, m := range e.Methods() {
			op := e.Operations[m]
			lock := e.Lock(m)
			switch m {
			case scan.GET:
				if collection {
					op = withResponseSchema(op, lock, "200", "Success", map[string]any{"type": "array", "items": ref})
				} else {
					op = withResponseSchema(op, lock, "200", "Success", ref)
				}
			case scan.POST:
				op = withRequestSchema(op, lock, ref)
				op = withResponseSchema(op, lock, "201", "Created", ref)
			case scan.PUT, scan.PATCH, scan.DELETE:
				op = withResponseSchema(op, lock, "200", "Success", ref)
			}
			e.Set(m, op)
		}
	}
	return linked
}

// matchModel compares seg against each model name lower-cased, as is or with
// an "s" appended. names must be sorted so the first match is stable.
func matchModel(seg string, names []string) string {
	if seg == "" {
		return ""
	}
	seg = strings.ToLower(seg)
	for _, name := range names {
		lower := strings.ToLower(name)
		if seg == lower || seg == lower+"s" {
			return name
		}
	}
	return ""
}

func withResponseSchema(op map[string]any, lock *Lock, code, description string, s map[string]any) map[string]any {
	if lock.ResponseLocked(code) {
		return op
	}
	responses := asObject(op["responses"])
	current := asObject(responses[code])
	if hasContentSchema(current) {
		return op
	}
	patch := map[string]any{
		"content": map[string]any{jsonMime: map[string]any{"schema": s}},
	}
	if _, ok := current["description"]; !ok {
		patch["description"] = description
	}
	return MergeObjects(op, map[string]any{
		"responses": map[string]any{code: patch},
	})
}

func withRequestSchema(op map[string]any, lock *Lock, s map[string]any) map[string]any {
	if lock.RequestBody {
		return op
	}
	if hasContentSchema(asObject(op["requestBody"])) {
		return op
	}
	return MergeObjects(op, map[string]any{
		"requestBody": map[string]any{
			"required": true,
			"content":  map[string]any{jsonMime: map[string]any{"schema": s}},
		},
	})
}

// hasContentSchema reports whether any media type under obj.content has a schema.
func hasContentSchema(obj map[string]any) bool {
	content := asObject(obj["content"])
	for _, media := range content {
		if _, ok := asObject(media)["schema"]; ok {
			return true
		}
	}
	return false
}
