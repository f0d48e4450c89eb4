package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/medflow/medflow-openapi/internal/scan"
	genspec "github.com/medflow/medflow-openapi/internal/spec"
	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Print      bool
	Verbose    bool
}

const defaultConfigName = "medflow-openapi.yaml"

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cfg := &InitConfig{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample medflow-openapi configuration file",
		Long: "Write a commented configuration file listing every option with its default. " +
			"Uncomment a line to override it; flags still take precedence.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg.Verbose = verbose
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.OutputPath, "out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().BoolVar(&cfg.Force, "force", false, "Overwrite the target file if it already exists")
	cmd.Flags().BoolVar(&cfg.Print, "print", false, "Print the sample to stdout instead of writing a file")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig) error {
	content, err := renderSampleConfig(defaultGenerateConfig())
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if cfg.Print {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	target, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}
	if fi, err := os.Stat(target); err == nil {
		if !fi.Mode().IsRegular() {
			return usageErrorf("init: %s is not a regular file", target)
		}
		if !cfg.Force {
			return usageErrorf("init: %q already exists (use --force to overwrite)", target)
		}
	}

	if err := genspec.WriteFile(target, []byte(content)); err != nil {
		return usageErrorf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", target, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", target)
	if cfg.Verbose {
		fmt.Fprintf(os.Stdout, "Use it with: medflow-openapi --config %s\n", out)
	}
	return nil
}

func renderSampleConfig(def GenerateConfig) (string, error) {
	exts := def.Extensions
	if len(exts) == 0 {
		exts = scan.DefaultRouteExtensions
	}
	data := struct {
		GenerateConfig
		RoutesDir string
		Exts      string
	}{
		GenerateConfig: def,
		RoutesDir:      filepath.ToSlash(def.routesDir()),
		Exts:           strings.Join(exts, ", "),
	}
	var buf bytes.Buffer
	if err := sampleConfigTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Every line stays commented: loading the sample unchanged yields the defaults.
var sampleConfigTmpl = template.Must(template.New("config").Parse(`# medflow-openapi configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Project root; every relative path below resolves against it.
# root: {{.Root}}

# Framework app directory. Route URLs are computed relative to it.
# appDir: {{.AppDir}}

# Directory scanned for route files. Defaults to <appDir>/api.
# routesDir: {{.RoutesDir}}

# ORM schema used for components.schemas and response linking.
# A missing or unparseable file only disables linking.
# schema: {{.Schema}}

# Output document. A .yaml or .yml extension writes YAML instead of JSON.
# out: {{.Out}}

# Route file extensions (comma-separated or list).
# extensions: [{{.Exts}}]

# Document info and server.
# title: {{.Title}}
# version: {{.Version}}
# description: {{.Description}}
# server: {{.Server}}

# Print the planned document summary without writing.
# dryRun: false

# Fail when the generated document does not validate.
# strict: false

# Enable verbose logging.
# verbose: false
`))
