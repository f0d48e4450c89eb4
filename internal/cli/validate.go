package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	genspec "github.com/medflow/medflow-openapi/internal/spec"
	"github.com/spf13/cobra"
)

// ValidateConfig captures the options for the validate command.
type ValidateConfig struct {
	Input   string
	Verbose bool
}

var validateRunner = runValidate

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an existing OpenAPI document",
		Long:  "Load an OpenAPI 3.x document (JSON or YAML) and report structural problems and unresolved references.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := cmd.Flags().GetString("input")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return validateRunner(cmd.Context(), &ValidateConfig{
				Input:   strings.TrimSpace(input),
				Verbose: verbose,
			})
		},
	}

	cmd.Flags().String("input", filepath.Join("public", "openapi.json"), "Document to validate")
	return cmd
}

func runValidate(ctx context.Context, cfg *ValidateConfig) error {
	doc, err := genspec.LoadDocument(ctx, cfg.Input)
	if err != nil {
		return fmt.Errorf("validate: %s", describeSpecError(err))
	}

	schemas := 0
	if doc.Components != nil {
		schemas = len(doc.Components.Schemas)
	}
	fmt.Fprintf(os.Stdout, "OK: %s (OpenAPI %s, %d paths, %d schemas)\n", cfg.Input, doc.OpenAPI, len(doc.Paths), schemas)
	if cfg.Verbose && doc.Info != nil {
		fmt.Fprintf(os.Stdout, "Title: %s\nVersion: %s\n", doc.Info.Title, doc.Info.Version)
	}
	return nil
}
