package spec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes document errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path, or "<generated>" for in-memory documents
	JSONPointer string // e.g. "#/paths/~1api~1clinics/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Decimal model fields are emitted as string/decimal; register the format so
// generated documents pass validation.
func init() {
	openapi3.DefineStringFormat("decimal", `^-?[0-9]+(\.[0-9]+)?$`)
}

// LoadDocument reads an OpenAPI v3 document from disk and validates it.
func LoadDocument(ctx context.Context, path string) (*openapi3.T, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return loadAndValidate(ctx, raw, abs)
}

// ParseDocument loads document bytes and validates them. When only validation
// fails the parsed document is returned together with the error.
func ParseDocument(ctx context.Context, data []byte, location string) (*openapi3.T, error) {
	return loadAndValidate(ctx, data, location)
}

// ValidateDocument checks rendered document bytes with the kin-openapi
// loader and validator. It returns nil for a valid document.
func ValidateDocument(ctx context.Context, data []byte, location string) error {
	_, err := loadAndValidate(ctx, data, location)
	return err
}

func loadAndValidate(ctx context.Context, raw []byte, location string) (*openapi3.T, error) {
	if err := checkSpecVersion(raw); err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, mapValidateOrParseErr(err, location)
	}
	if err := doc.Validate(ctx); err != nil {
		return doc, mapValidateOrParseErr(err, location)
	}
	return doc, nil
}

// checkSpecVersion accepts only OpenAPI 3.x documents.
func checkSpecVersion(data []byte) error {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return nil
		}
	}
	if _, ok := root["swagger"]; ok {
		return fmt.Errorf("spec: swagger 2.0 documents are not supported (expected 'openapi: 3.x')")
	}
	return fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x')")
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
