package spec

// MergeObjects deep-merges src over dst and returns a new map. Nested objects
// merge key by key; every other value in src (arrays included) replaces the
// value in dst. Neither input is modified.
func MergeObjects(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = copyValue(v)
	}
	for k, v := range src {
		srcObj, srcIsObj := v.(map[string]any)
		dstObj, dstIsObj := out[k].(map[string]any)
		if srcIsObj && dstIsObj {
			out[k] = MergeObjects(dstObj, srcObj)
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies JSON-shaped values so merged results never alias inputs.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = copyValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = copyValue(inner)
		}
		return out
	default:
		return v
	}
}

// asObject returns v as a JSON object, or nil.
func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}
