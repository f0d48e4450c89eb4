package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `openapi: 3.0.3
info:
  title: MedFlow API
  version: "1.0.0"
paths:
  /api/clinics:
    get:
      operationId: getClinics
      tags: [clinics]
      responses:
        "200":
          description: Success
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: "#/components/schemas/Clinic"
components:
  schemas:
    Clinic:
      type: object
      properties:
        fee:
          type: string
          format: decimal
`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadDocument_Valid(t *testing.T) {
	t.Parallel()
	doc, err := LoadDocument(context.Background(), writeDoc(t, "openapi.yaml", validDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info.Title != "MedFlow API" {
		t.Fatalf("title: %q", doc.Info.Title)
	}
}

func TestLoadDocument_EmptyAndMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var se *SpecError
	if _, err := LoadDocument(ctx, "  "); !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError for empty input, got %v", err)
	}
	_, err := LoadDocument(ctx, filepath.Join(t.TempDir(), "nope.json"))
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError for missing file, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("cause should unwrap to ErrNotExist: %v", err)
	}
}

func TestLoadDocument_RejectsSwagger2(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "swagger.json", `{"swagger": "2.0", "info": {"title": "x", "version": "1"}, "paths": {}}`)
	_, err := LoadDocument(context.Background(), path)
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
	if !strings.Contains(se.Message, "swagger 2.0") {
		t.Fatalf("message should name swagger 2.0: %q", se.Message)
	}
}

func TestValidateDocument_Invalid(t *testing.T) {
	t.Parallel()
	content := strings.TrimSpace(`openapi: 3.0.3
info:
  title: Bad
  version: "1.0.0"
paths:
  "/api/clinics":
    get:
      responses: {}
`) + "\n"
	err := ValidateDocument(context.Background(), []byte(content), "<generated>")
	if err == nil {
		t.Fatalf("expected validation error for empty responses")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ValidationError || se.Location != "<generated>" {
		t.Fatalf("unexpected error %+v", se)
	}
}

func TestValidateDocument_BrokenRef(t *testing.T) {
	t.Parallel()
	content := `{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{"/api/x":{"get":{"responses":{"200":{"description":"ok","content":{"application/json":{"schema":{"$ref":"#/components/schemas/Missing"}}}}}}}}}`
	if err := ValidateDocument(context.Background(), []byte(content), "<generated>"); err == nil {
		t.Fatalf("expected error for unresolved $ref")
	}
}
