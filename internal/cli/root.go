package cli

import "github.com/spf13/cobra"

// Execute runs the medflow-openapi CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
// Invoked without a subcommand it behaves like generate with default options.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medflow-openapi",
		Short: "Generate the MedFlow OpenAPI document from route files",
		Long: "medflow-openapi statically scans file-routed API handlers and the ORM schema " +
			"and writes an OpenAPI 3.0.3 document. Nothing is executed or imported.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagUsageError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	addGenerateFlags(cmd.Flags())

	for _, sub := range []*cobra.Command{
		newGenerateCmd(),
		newValidateCmd(),
		newRoutesCmd(),
		newInitCmd(),
	} {
		sub.SetFlagErrorFunc(flagUsageError)
		cmd.AddCommand(sub)
	}

	return cmd
}

func flagUsageError(c *cobra.Command, err error) error {
	return usageErrorf("%v\n\n%s", err, c.UsageString())
}
