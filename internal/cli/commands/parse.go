package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/config"
	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/output"
	"github.com/ccollicutt/probeplot/pkg/probelog"
	"github.com/ccollicutt/probeplot/pkg/webhook"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Output   string
	Strict   bool
	Verbose  bool
	Quiet    bool
	NoColor  bool
	MaxRange float64
	Runs     []int

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewParseCommand creates the parse command.
func NewParseCommand(g *GlobalOptions) *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <log-file>...",
		Short: "Extract probe samples, temperatures and PROBE_ACCURACY runs from a log",
		Long: `Parse Klipper log files and report probe samples, temperature series and
PROBE_ACCURACY calibration runs. Arguments may be glob patterns.

Each run is checked for:
  - Truncation (fewer samples logged than requested)
  - Overlap (the next run started before this one finished)
  - Range (Z spread above --max-range, when set)

Exit codes:
  0 - No issues detected
  1 - Issues detected in at least one run
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|highcharts)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on matched lines with malformed numbers")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show run metadata and temperature summaries")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored text output")
	cmd.Flags().Float64Var(&opts.MaxRange, "max-range", 0, "Flag runs whose Z range exceeds this many mm (0 disables)")
	cmd.Flags().IntSliceVar(&opts.Runs, "run", nil, "Check specific run number(s) only (can be repeated)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := g.LoadConfig(ctx)
	if err != nil {
		return err
	}
	logger := g.Logger(cfg, cmd.ErrOrStderr(), opts.Output != "text")

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose:    opts.Verbose,
		Quiet:      opts.Quiet,
		Color:      !opts.NoColor,
		Title:      cfg.Chart.Title,
		BandColors: cfg.Chart.BandColors,
	})
	if err != nil {
		return err
	}

	hooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	files, err := logfile.Expand(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched: %v", args)
	}

	maxRange := cfg.Accuracy.MaxRange
	if cmd.Flags().Changed("max-range") {
		maxRange = opts.MaxRange
	}
	analyzer := accuracy.New(accuracy.WithMaxRange(maxRange), accuracy.WithRunFilter(opts.Runs))
	strict := opts.Strict || cfg.Parser.Strict
	client := webhook.NewClient(webhook.WithLogger(logger))

	for _, path := range files {
		start := time.Now()

		log, err := logfile.Load(ctx, path, int64(cfg.Parser.MaxLogSize))
		if err != nil {
			return err
		}

		var res *probelog.Result
		if strict {
			res, err = probelog.ParseStrict(log.Text)
			if err != nil {
				return fmt.Errorf("%s: %w", log.Name, err)
			}
		} else {
			res = probelog.Parse(log.Text)
		}

		if res.IsEmpty() {
			logger.Warn("no probe, PROBE_ACCURACY or Stats lines found", "file", log.Path)
		}

		report := output.NewReport(log, res, analyzer.Analyze(res))
		report.Metadata.ConfigFile = g.ConfigFile
		report.Metadata.Duration = time.Since(start)

		logger.Debug("parsed log",
			"file", log.Path,
			"size", log.HumanSize(),
			"samples", len(res.Samples),
			"runs", len(res.Runs),
			"sensors", len(res.Sensors))

		if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}

		// Webhook errors are logged but don't fail the parse
		client.Dispatch(ctx, report, hooks)

		if report.HasIssues() {
			ExitCode = 1
		}
	}

	return nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ParseOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL == "" {
		return webhooks, nil
	}

	trigger := config.WebhookTrigger(opts.WebhookTrigger)
	switch trigger {
	case "":
		trigger = config.WebhookTriggerOnIssues
	case config.WebhookTriggerOnIssues, config.WebhookTriggerAlways, config.WebhookTriggerNever:
	default:
		return nil, fmt.Errorf("invalid --webhook-trigger %q (use on_issues, always, or never)", opts.WebhookTrigger)
	}

	return append(webhooks, config.WebhookConfig{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: trigger,
		Timeout: config.Duration(config.DefaultWebhookTimeout),
	}), nil
}
