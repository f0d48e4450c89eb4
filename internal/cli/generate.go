package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/medflow/medflow-openapi/internal/logging"
	"github.com/medflow/medflow-openapi/internal/scan"
	genspec "github.com/medflow/medflow-openapi/internal/spec"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Root        string
	AppDir      string
	RoutesDir   string // empty means <AppDir>/api
	Schema      string
	Out         string
	Extensions  []string
	Title       string
	Version     string
	Description string
	Server      string
	ConfigPath  string
	DryRun      bool
	Strict      bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	info := genspec.DefaultInfo()
	return GenerateConfig{
		Root:        ".",
		AppDir:      filepath.Join("src", "app"),
		Schema:      filepath.Join("prisma", "schema.prisma"),
		Out:         filepath.Join("public", "openapi.json"),
		Title:       info.Title,
		Version:     info.Version,
		Description: info.Description,
		Server:      info.ServerURL,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI document from route files and the ORM schema",
		Long: "Scan route.<ext> files under the routes directory, infer operations, link ORM models " +
			"and write an OpenAPI 3.0.3 document. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  medflow-openapi generate
  medflow-openapi generate --root ../web --out docs/openapi.yaml
  medflow-openapi --config medflow-openapi.yaml generate --strict --dry-run`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	addGenerateFlags(cmd.Flags())
	return cmd
}

// addGenerateFlags registers generate's flags. The root command carries them
// too so a bare invocation accepts the same options.
func addGenerateFlags(flags *pflag.FlagSet) {
	addSourceFlags(flags)
	flags.String("out", "", "Output file; .yaml/.yml selects YAML (default public/openapi.json)")
	flags.String("title", "", "Document info.title")
	flags.String("version", "", "Document info.version")
	flags.String("description", "", "Document info.description")
	flags.String("server", "", "Server URL listed under servers")
	flags.Bool("dry-run", false, "Print the planned document summary without writing")
	flags.Bool("strict", false, "Fail when the generated document does not validate")
}

// addSourceFlags registers the flags that locate the project inputs. They are
// shared by every command that assembles a document.
func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("root", "", "Project root that relative paths resolve against (default .)")
	flags.String("app-dir", "", "Framework app directory (default src/app)")
	flags.String("routes-dir", "", "Directory scanned for route files (default <app-dir>/api)")
	flags.String("schema", "", "ORM schema file (default prisma/schema.prisma)")
	flags.StringSlice("ext", nil, "Route file extensions (default js,jsx,ts,tsx,mjs)")
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateFlagOverrides copies explicitly set flags onto cfg. Flags a
// command does not define are never reported as changed.
func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"root", &cfg.Root},
		{"app-dir", &cfg.AppDir},
		{"routes-dir", &cfg.RoutesDir},
		{"schema", &cfg.Schema},
		{"out", &cfg.Out},
		{"title", &cfg.Title},
		{"version", &cfg.Version},
		{"description", &cfg.Description},
		{"server", &cfg.Server},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		value, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = strings.TrimSpace(value)
	}

	if flags.Changed("ext") {
		value, err := flags.GetStringSlice("ext")
		if err != nil {
			return err
		}
		cfg.Extensions = value
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"dry-run", &cfg.DryRun},
		{"strict", &cfg.Strict},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if !flags.Changed(b.name) {
			continue
		}
		value, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Root = strings.TrimSpace(c.Root)
	if c.Root == "" {
		c.Root = "."
	}
	c.AppDir = strings.TrimSpace(c.AppDir)
	c.RoutesDir = strings.TrimSpace(c.RoutesDir)
	c.Schema = strings.TrimSpace(c.Schema)
	c.Out = strings.TrimSpace(c.Out)
	c.Title = strings.TrimSpace(c.Title)
	c.Version = strings.TrimSpace(c.Version)
	c.Server = strings.TrimSpace(c.Server)
	c.Extensions = sanitizeExtensions(c.Extensions)
}

func (c *GenerateConfig) validate() error {
	if c.AppDir == "" {
		return newUsageError("generate: app directory must not be empty")
	}
	if c.Out == "" {
		return newUsageError("generate: --out must not be empty")
	}
	if c.Title == "" || c.Version == "" {
		return newUsageError("generate: --title and --version must not be empty")
	}
	return nil
}

// resolve joins p onto Root unless p is absolute.
func (c *GenerateConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func (c *GenerateConfig) routesDir() string {
	if c.RoutesDir != "" {
		return c.resolve(c.RoutesDir)
	}
	return filepath.Join(c.resolve(c.AppDir), "api")
}

func (c *GenerateConfig) info() genspec.Info {
	return genspec.Info{
		Title:       c.Title,
		Version:     c.Version,
		Description: c.Description,
		ServerURL:   c.Server,
	}
}

func (c *GenerateConfig) assembleOptions(log zerolog.Logger) genspec.Options {
	return genspec.Options{
		AppDir:     c.resolve(c.AppDir),
		RoutesDir:  c.routesDir(),
		SchemaPath: c.resolve(c.Schema),
		Extensions: c.Extensions,
		Info:       c.info(),
		Logger:     log,
	}
}

// assemble runs the scanner for cfg. A missing routes directory is reported
// with a hint since it is the one fatal precondition.
func assemble(ctx context.Context, cfg *GenerateConfig, log zerolog.Logger) (*genspec.Result, error) {
	res, err := genspec.Assemble(ctx, cfg.assembleOptions(log))
	if err != nil {
		if errors.Is(err, scan.ErrRouteRootMissing) {
			return nil, fmt.Errorf("%w\nHint: run from the project root or pass --root/--routes-dir", err)
		}
		return nil, err
	}
	return res, nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := logging.New(os.Stderr, cfg.Verbose)

	// 1) Scan routes, apply inline specs and inference, link schemas
	res, err := assemble(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	// 2) Serialize in the format implied by the output extension
	outPath := cfg.resolve(cfg.Out)
	data, err := genspec.Render(res.Document(), genspec.FormatFor(outPath))
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	// 3) Validate the result; only --strict turns problems into failures
	if err := genspec.ValidateDocument(ctx, data, outPath); err != nil {
		if cfg.Strict {
			return fmt.Errorf("generate: document failed validation: %s", describeSpecError(err))
		}
		log.Warn().Str("file", outPath).Str("problem", describeSpecError(err)).Msg("generated document did not validate")
	}

	absOut := outPath
	if ap, err := filepath.Abs(outPath); err == nil {
		absOut = ap
	}
	if cfg.DryRun {
		printPlan(absOut, res)
		return nil
	}

	// 4) Write once, atomically
	if err := genspec.WriteFile(outPath, data); err != nil {
		return wrapOutputError(err, absOut)
	}
	fmt.Fprintf(os.Stdout, "Wrote OpenAPI document to %s (%d paths, %d schemas)\n",
		absOut, res.Builder.Len(), len(res.Schemas.Components()))
	if res.Warnings > 0 {
		log.Info().Int("warnings", res.Warnings).Int("skipped_files", res.Skipped).Msg("generation finished with warnings")
	}
	return nil
}

func printPlan(outPath string, res *genspec.Result) {
	fmt.Fprintf(os.Stdout, "Planned write to %s (%d paths, %d schemas, %d route files):\n",
		outPath, res.Builder.Len(), len(res.Schemas.Components()), res.RouteFiles)
	for _, p := range res.Builder.Paths() {
		entry, _ := res.Builder.Lookup(p)
		methods := make([]string, 0, len(entry.Operations))
		for _, m := range entry.Methods() {
			methods = append(methods, strings.ToUpper(string(m)))
		}
		fmt.Fprintf(os.Stdout, "- %s [%s]\n", p, strings.Join(methods, ", "))
	}
}

// describeSpecError renders a SpecError with its location and pointer.
func describeSpecError(err error) string {
	var se *genspec.SpecError
	if !errors.As(err, &se) {
		return err.Error()
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return msg
}

func wrapOutputError(err error, outPath string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") {
		return usageErrorf("output error for %s: %s\nHint: choose a different --out or check directory permissions.", outPath, msg)
	}
	return fmt.Errorf("generate: %w", err)
}

func sanitizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(exts))
	result := make([]string, 0, len(exts))
	for _, ext := range exts {
		trimmed := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("read config file %q: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	strs := map[string]*string{
		"root":        &cfg.Root,
		"appdir":      &cfg.AppDir,
		"routesdir":   &cfg.RoutesDir,
		"schema":      &cfg.Schema,
		"out":         &cfg.Out,
		"title":       &cfg.Title,
		"version":     &cfg.Version,
		"description": &cfg.Description,
		"server":      &cfg.Server,
	}
	bools := map[string]*bool{
		"dryrun":  &cfg.DryRun,
		"strict":  &cfg.Strict,
		"verbose": &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			*dst = val
			continue
		}
		switch normalized {
		case "extensions", "ext":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			cfg.Extensions = list
		default:
			return usageErrorf("config file %q: unknown field %q", path, key)
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
