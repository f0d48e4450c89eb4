package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/medflow/medflow-openapi/internal/schema"
	"gopkg.in/yaml.v3"
)

// OpenAPIVersion is the document version emitted by the generator.
const OpenAPIVersion = "3.0.3"

// Info carries the document's info and server fields.
type Info struct {
	Title       string
	Version     string
	Description string
	ServerURL   string
}

// DefaultInfo returns the values used when nothing is configured.
func DefaultInfo() Info {
	return Info{
		Title:       "MedFlow API",
		Version:     "1.0.0",
		Description: "Clinic management API: clinics, patients, appointments, services, staff, invoices and prescriptions.",
		ServerURL:   "http://localhost:3000",
	}
}

// RenderDocument assembles the top-level OpenAPI object. components is
// omitted when set is nil or empty.
func RenderDocument(b *Builder, set *schema.Set, info Info) map[string]any {
	paths := make(map[string]any, b.Len())
	for _, p := range b.Paths() {
		paths[p] = b.entries[p].Render()
	}

	infoObj := map[string]any{
		"title":   info.Title,
		"version": info.Version,
	}
	if info.Description != "" {
		infoObj["description"] = info.Description
	}

	doc := map[string]any{
		"openapi": OpenAPIVersion,
		"info":    infoObj,
		"servers": []any{map[string]any{"url": info.ServerURL}},
		"paths":   paths,
	}
	if comps := set.Components(); len(comps) > 0 {
		doc["components"] = map[string]any{"schemas": comps}
	}
	return doc
}

// Format selects the serialization of the output document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from the output file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Render serializes doc. Map keys are emitted in sorted order by both
// encoders, so identical inputs always produce identical bytes.
func Render(doc map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteFile writes data to path, creating parent directories as needed. The
// write goes through a temp file and rename so readers never see a partial
// document.
func WriteFile(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), filepath.Base(abs)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", abs, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", abs, err)
	}
	return nil
}
