package spec

import (
	"reflect"
	"testing"
)

func TestMergeObjects(t *testing.T) {
	t.Parallel()
	dst := map[string]any{
		"summary": "GET /api/clinics",
		"responses": map[string]any{
			"200": map[string]any{"description": "Success"},
		},
		"tags": []any{"clinics"},
	}
	src := map[string]any{
		"summary": "List clinics",
		"responses": map[string]any{
			"200": map[string]any{"content": map[string]any{}},
			"404": map[string]any{"description": "Not found"},
		},
		"tags": []any{"admin"},
	}
	got := MergeObjects(dst, src)
	want := map[string]any{
		"summary": "List clinics",
		"responses": map[string]any{
			"200": map[string]any{"description": "Success", "content": map[string]any{}},
			"404": map[string]any{"description": "Not found"},
		},
		"tags": []any{"admin"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge mismatch:\nwant %v\ngot  %v", want, got)
	}

	// inputs untouched
	if dst["summary"] != "GET /api/clinics" {
		t.Fatalf("dst mutated: %v", dst)
	}
	if _, ok := dst["responses"].(map[string]any)["404"]; ok {
		t.Fatalf("nested dst mutated")
	}
	got["responses"].(map[string]any)["404"].(map[string]any)["description"] = "changed"
	if src["responses"].(map[string]any)["404"].(map[string]any)["description"] != "Not found" {
		t.Fatalf("result shares structure with src")
	}
}

func TestMergeObjects_ScalarReplacesObject(t *testing.T) {
	t.Parallel()
	got := MergeObjects(map[string]any{"a": map[string]any{"b": 1}}, map[string]any{"a": "flat"})
	if got["a"] != "flat" {
		t.Fatalf("want scalar replacement, got %v", got["a"])
	}
}

func TestMergeObjects_Nil(t *testing.T) {
	t.Parallel()
	if got := MergeObjects(nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil map, got %#v", got)
	}
	got := MergeObjects(nil, map[string]any{"x": []any{map[string]any{"y": 1}}})
	if !reflect.DeepEqual(got, map[string]any{"x": []any{map[string]any{"y": 1}}}) {
		t.Fatalf("unexpected %v", got)
	}
}
