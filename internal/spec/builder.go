package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/medflow/medflow-openapi/internal/scan"
)

// Builder accumulates the paths of the document being generated. It is
// created per run and handed through every assembly stage; nothing else holds
// document state.
type Builder struct {
	entries map[string]*RouteEntry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{entries: map[string]*RouteEntry{}}
}

// RouteEntry collects every operation contributed to one URL path.
type RouteEntry struct {
	Path string
	// Extra holds path-level keys that are not operations (summary, parameters, ...).
	Extra      map[string]any
	Operations map[scan.HTTPMethod]map[string]any
	locks      map[scan.HTTPMethod]*Lock
}

// Lock records which operation keys an inline spec provided. Heuristic and
// schema-linking stages never write to locked slots.
type Lock struct {
	Responses   map[string]struct{}
	RequestBody bool
	Parameters  bool
}

// ResponseLocked reports whether the response for code came from an inline spec.
func (l *Lock) ResponseLocked(code string) bool {
	if l == nil {
		return false
	}
	_, ok := l.Responses[code]
	return ok
}

// Entry returns the entry for path, creating it on first use.
func (b *Builder) Entry(path string) *RouteEntry {
	if e, ok := b.entries[path]; ok {
		return e
	}
	e := &RouteEntry{
		Path:       path,
		Extra:      map[string]any{},
		Operations: map[scan.HTTPMethod]map[string]any{},
		locks:      map[scan.HTTPMethod]*Lock{},
	}
	b.entries[path] = e
	return e
}

// Lookup returns the entry for path if one exists.
func (b *Builder) Lookup(path string) (*RouteEntry, bool) {
	e, ok := b.entries[path]
	return e, ok
}

// Paths returns all URL paths in sorted order.
func (b *Builder) Paths() []string {
	out := make([]string, 0, len(b.entries))
	for p := range b.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct paths.
func (b *Builder) Len() int { return len(b.entries) }

// Inject merges an inline spec "paths" object. Injected paths may lie outside
// the file that declared them.
func (b *Builder) Inject(paths map[string]any) {
	for path, raw := range paths {
		item := asObject(raw)
		if item == nil {
			continue
		}
		e := b.Entry(path)
		keys := make([]string, 0, len(item))
		for key := range item {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			val := item[key]
			m := scan.HTTPMethod(strings.ToLower(key))
			if scan.IsMethod(string(m)) {
				if override := asObject(val); override != nil {
					e.Override(m, override)
				}
				continue
			}
			e.Extra = MergeObjects(e.Extra, map[string]any{key: val})
		}
	}
}

// Methods returns the methods present on the entry in canonical order.
func (e *RouteEntry) Methods() []scan.HTTPMethod {
	set := scan.MethodSet{}
	for m := range e.Operations {
		set[m] = struct{}{}
	}
	return set.Sorted()
}

// Lock returns the lock for method, creating it on first use.
func (e *RouteEntry) Lock(m scan.HTTPMethod) *Lock {
	l, ok := e.locks[m]
	if !ok {
		l = &Lock{Responses: map[string]struct{}{}}
		e.locks[m] = l
	}
	return l
}

// Ensure makes sure an operation exists for m. Existing keys win over the
// generated defaults.
func (e *RouteEntry) Ensure(m scan.HTTPMethod) {
	e.Operations[m] = MergeObjects(defaultOperation(m, e.Path), e.Operations[m])
}

// Override deep-merges an inline operation object over the current one and
// locks the keys it sets.
func (e *RouteEntry) Override(m scan.HTTPMethod, override map[string]any) {
	e.Operations[m] = MergeObjects(e.Operations[m], override)

	lock := e.Lock(m)
	if resp := asObject(override["responses"]); resp != nil {
		for code := range resp {
			lock.Responses[code] = struct{}{}
		}
	}
	if _, ok := override["requestBody"]; ok {
		lock.RequestBody = true
	}
	if _, ok := override["parameters"]; ok {
		lock.Parameters = true
	}
}

// Set replaces the operation for m. It is used by stages that compute a new
// operation from the current one.
func (e *RouteEntry) Set(m scan.HTTPMethod, op map[string]any) {
	e.Operations[m] = op
}

// Render returns the path item object for the entry.
func (e *RouteEntry) Render() map[string]any {
	item := MergeObjects(e.Extra, nil)
	for m, op := range e.Operations {
		item[string(m)] = copyValue(op)
	}
	return item
}

func defaultOperation(m scan.HTTPMethod, path string) map[string]any {
	return map[string]any{
		"summary":     fmt.Sprintf("%s %s", strings.ToUpper(string(m)), path),
		"operationId": operationID(m, path),
		"tags":        []any{resourceTag(path)},
		"responses": map[string]any{
			"200": map[string]any{"description": "Success"},
		},
	}
}

// operationID derives a camelCase id such as getClinicsById from method and path.
func operationID(m scan.HTTPMethod, path string) string {
	words := []string{string(m)}
	for _, seg := range resourceSegments(path) {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			words = append(words, "by", strings.Trim(seg, "{}"))
			continue
		}
		words = append(words, seg)
	}
	return strcase.ToLowerCamel(strings.Join(words, " "))
}

// resourceSegments returns the non-empty path segments after the api prefix.
func resourceSegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}
	if len(out) > 0 && out[0] == "api" {
		out = out[1:]
	}
	return out
}

// resourceSegment returns the first segment after the api prefix, or "".
func resourceSegment(path string) string {
	segs := resourceSegments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

func resourceTag(path string) string {
	if seg := resourceSegment(path); seg != "" && !strings.HasPrefix(seg, "{") {
		return seg
	}
	return "api"
}
