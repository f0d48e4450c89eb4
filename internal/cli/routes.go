package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/medflow/medflow-openapi/internal/logging"
	"github.com/medflow/medflow-openapi/internal/scan"
	genspec "github.com/medflow/medflow-openapi/internal/spec"
	"github.com/spf13/cobra"
)

// RoutesConfig captures the options for the routes command.
type RoutesConfig struct {
	Generate GenerateConfig
	// Input lists an existing document instead of scanning the project.
	Input   string
	Methods []scan.HTTPMethod
	Paths   []string
	Tags    []string
}

var routesRunner = runRoutes

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the operations the generator detects",
		Long: "Scan the project the same way generate does and print one line per operation. " +
			"With --input an existing document is listed instead.",
		Example: strings.TrimSpace(`  medflow-openapi routes
  medflow-openapi routes --method get,post --path '^/api/clinics'
  medflow-openapi routes --input public/openapi.json --tag patients`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveRoutesConfig(cmd)
			if err != nil {
				return err
			}
			return routesRunner(cmd.Context(), cfg)
		},
	}

	addSourceFlags(cmd.Flags())
	flags := cmd.Flags()
	flags.String("input", "", "List an existing OpenAPI document instead of scanning")
	flags.StringSlice("method", nil, "Only list these HTTP methods")
	flags.StringSlice("path", nil, "Only list paths matching one of these regular expressions")
	flags.StringSlice("tag", nil, "Only list operations carrying one of these tags")
	return cmd
}

func resolveRoutesConfig(cmd *cobra.Command) (*RoutesConfig, error) {
	gen, err := resolveGenerateConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg := &RoutesConfig{Generate: *gen}

	flags := cmd.Flags()
	if cfg.Input, err = flags.GetString("input"); err != nil {
		return nil, err
	}
	cfg.Input = strings.TrimSpace(cfg.Input)

	methods, err := flags.GetStringSlice("method")
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if !scan.IsMethod(m) {
			return nil, usageErrorf("routes: unsupported --method %q", m)
		}
		cfg.Methods = append(cfg.Methods, scan.HTTPMethod(m))
	}
	if cfg.Paths, err = flags.GetStringSlice("path"); err != nil {
		return nil, err
	}
	if cfg.Tags, err = flags.GetStringSlice("tag"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRoutes(ctx context.Context, cfg *RoutesConfig) error {
	doc, err := loadRoutesDocument(ctx, cfg)
	if err != nil {
		return err
	}

	inv, err := genspec.BuildInventory(doc,
		genspec.WithMethods(cfg.Methods),
		genspec.WithPathPatterns(cfg.Paths),
		genspec.WithTags(cfg.Tags),
	)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tSUMMARY")
	for _, ep := range inv.Endpoints {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToUpper(string(ep.Method)), ep.Path, ep.Summary)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d operations, %d schemas\n", len(inv.Endpoints), len(inv.Schemas))
	return nil
}

// loadRoutesDocument returns the document to list. A generated document that
// fails validation is still listed; the problem is logged.
func loadRoutesDocument(ctx context.Context, cfg *RoutesConfig) (*openapi3.T, error) {
	if cfg.Input != "" {
		doc, err := genspec.LoadDocument(ctx, cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("routes: %s", describeSpecError(err))
		}
		return doc, nil
	}

	log := logging.New(os.Stderr, cfg.Generate.Verbose)
	res, err := assemble(ctx, &cfg.Generate, log)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	data, err := genspec.Render(res.Document(), genspec.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	doc, err := genspec.ParseDocument(ctx, data, "<generated>")
	if err != nil {
		if doc == nil {
			return nil, fmt.Errorf("routes: %s", describeSpecError(err))
		}
		log.Warn().Str("problem", describeSpecError(err)).Msg("generated document did not validate")
	}
	return doc, nil
}
