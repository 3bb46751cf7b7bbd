package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/probeplot/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a probeplot configuration file without parsing any logs.

Checks:
  - YAML or TOML syntax
  - Size and dimension values
  - Band colors (#RRGGBB)
  - Webhook URLs and triggers`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Logging:      %s (%s)\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Fprintf(w, "  Strict parse: %v\n", cfg.Parser.Strict)
	fmt.Fprintf(w, "  Max log size: %s\n", cfg.Parser.MaxLogSize)
	if cfg.Accuracy.MaxRange > 0 {
		fmt.Fprintf(w, "  Max range:    %g mm\n", cfg.Accuracy.MaxRange)
	} else {
		fmt.Fprintf(w, "  Max range:    disabled\n")
	}
	fmt.Fprintf(w, "  Chart:        %dx%d, %d band color(s)\n", cfg.Chart.Width, cfg.Chart.Height, len(cfg.Chart.BandColors))

	auth := "disabled"
	if cfg.Server.BearerToken != "" {
		auth = "bearer token"
	}
	fmt.Fprintf(w, "  Server:       %s (auth: %s, max upload %s)\n", cfg.Server.Listen, auth, cfg.Server.MaxUploadSize)

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, wh.Trigger, wh.DisplayName())
		}
	}

	return nil
}
