package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureGenerateConfig(t *testing.T, args ...string) *GenerateConfig {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}
	return captured
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured := captureGenerateConfig(t,
		"--verbose",
		"generate",
		"--root", "/srv/web",
		"--app-dir", "app",
		"--routes-dir", "app/api/v1",
		"--schema", "db/schema.prisma",
		"--out", "docs/openapi.yaml",
		"--ext", ".TS,js,ts",
		"--title", "Clinic API",
		"--version", "2.0.0",
		"--server", "https://api.example.test",
		"--dry-run",
		"--strict",
	)

	if captured.Root != "/srv/web" {
		t.Errorf("root mismatch: got %q", captured.Root)
	}
	if captured.AppDir != "app" || captured.RoutesDir != "app/api/v1" {
		t.Errorf("dirs mismatch: got %q %q", captured.AppDir, captured.RoutesDir)
	}
	if captured.Schema != "db/schema.prisma" {
		t.Errorf("schema mismatch: got %q", captured.Schema)
	}
	if captured.Out != "docs/openapi.yaml" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if want := []string{"ts", "js"}; !equalStringSlices(captured.Extensions, want) {
		t.Errorf("extensions mismatch: got %v", captured.Extensions)
	}
	if captured.Title != "Clinic API" || captured.Version != "2.0.0" {
		t.Errorf("info mismatch: got %q %q", captured.Title, captured.Version)
	}
	if captured.Server != "https://api.example.test" {
		t.Errorf("server mismatch: got %q", captured.Server)
	}
	if !captured.DryRun || !captured.Strict || !captured.Verbose {
		t.Errorf("expected dry-run, strict and verbose: %+v", captured)
	}
	if got := captured.routesDir(); got != filepath.Join("/srv/web", "app/api/v1") {
		t.Errorf("routes dir resolution: got %q", got)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`root: /from/config
app_dir: web/app
schema: db/schema.prisma
out: from-config.json
extensions: tsx
title: Config Title
dryRun: true
strict: "yes"
verbose: true
`) + "\n"

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	captured := captureGenerateConfig(t,
		"--config", configPath,
		"generate",
		"--out", "flag.json",
		"--ext", "ts",
		"--dry-run=false",
	)

	if captured.Root != "/from/config" {
		t.Errorf("root: want /from/config got %q", captured.Root)
	}
	if captured.AppDir != "web/app" {
		t.Errorf("app dir: want web/app got %q", captured.AppDir)
	}
	if captured.Out != "flag.json" {
		t.Errorf("out: want flag.json got %q", captured.Out)
	}
	if want := []string{"ts"}; !equalStringSlices(captured.Extensions, want) {
		t.Errorf("extensions: want %v got %v", want, captured.Extensions)
	}
	if captured.Title != "Config Title" {
		t.Errorf("title: got %q", captured.Title)
	}
	if captured.Version != "1.0.0" {
		t.Errorf("version should keep its default, got %q", captured.Version)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Strict || !captured.Verbose {
		t.Errorf("expected strict and verbose from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
	if got := captured.routesDir(); got != filepath.Join("/from/config", "web/app", "api") {
		t.Errorf("routes dir default: got %q", got)
	}
}

func TestRootRunsGenerateWithDefaults(t *testing.T) {
	captured := captureGenerateConfig(t)

	if captured.Root != "." || captured.AppDir != filepath.Join("src", "app") || captured.RoutesDir != "" {
		t.Errorf("unexpected defaults: %+v", captured)
	}
	if captured.routesDir() != filepath.Join("src", "app", "api") {
		t.Errorf("routes dir: got %q", captured.routesDir())
	}
	if captured.resolve(captured.Out) != filepath.Join("public", "openapi.json") {
		t.Errorf("out: got %q", captured.Out)
	}
	if captured.resolve(captured.Schema) != filepath.Join("prisma", "schema.prisma") {
		t.Errorf("schema: got %q", captured.Schema)
	}
	if captured.Title != "MedFlow API" || captured.Server != "http://localhost:3000" {
		t.Errorf("info defaults: %+v", captured)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "generate"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigBadValue(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("strict: maybe\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath})

	err := root.Execute()
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "invalid boolean") {
		t.Fatalf("expected invalid boolean usage error, got %v", err)
	}
}

func TestGenerateConfigMissingFile(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})

	err := root.Execute()
	if !errors.Is(err, ErrUsage) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want usage error wrapping fs.ErrNotExist, got %v", err)
	}
}

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()
	for _, args := range [][]string{
		{"generate", "--unknown-flag"},
		{"routes", "--nope"},
		{"--lang", "go"},
	} {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)

		err := root.Execute()
		if err == nil {
			t.Fatalf("%v: expected error for unknown flag", args)
		}
		if _, ok := err.(usageError); !ok {
			t.Fatalf("%v: expected usage error, got %T: %v", args, err, err)
		}
		if !strings.Contains(err.Error(), "unknown flag") || !strings.Contains(err.Error(), "Usage:") {
			t.Fatalf("%v: unexpected error text: %v", args, err)
		}
	}
}

func TestSanitizeExtensions(t *testing.T) {
	t.Parallel()
	got := sanitizeExtensions([]string{" .TSX", "tsx", "", "mjs"})
	if want := []string{"tsx", "mjs"}; !equalStringSlices(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
	if sanitizeExtensions([]string{" ", "."}) != nil {
		t.Fatalf("expected nil for blank input")
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
