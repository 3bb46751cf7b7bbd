package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/config"
	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// maxListedLines caps how many malformed lines are listed per check.
const maxListedLines = 10

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Diagnose why a log does not plot the way you expect",
		Long: `Diagnose common problems with a Klipper log.

This command checks:
- Log file existence and size
- Configuration (--config, or defaults)
- Which lines were recognised as probe, accuracy header and stats lines
- Lines skipped because of malformed numbers
- Calibration runs with issues
- Webhook configuration (and connectivity with -v)

Example:
  probeplot diagnose klippy.log
  probeplot diagnose -v --config probeplot.yaml klippy.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args[0], g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, logPath string, g *GlobalOptions, opts *DiagnoseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()
	results := []DiagnosticResult{}

	// 1. Log file
	result := checkLogFile(logPath)
	results = append(results, result)
	if result.Status == StatusError {
		return finishDiagnostics(w, results, opts)
	}

	// 2. Config
	cfg, result := checkConfig(ctx, g)
	results = append(results, result)
	if result.Status == StatusError {
		return finishDiagnostics(w, results, opts)
	}

	log, err := logfile.Load(ctx, logPath, int64(cfg.Parser.MaxLogSize))
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Log Contents",
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot read log: %v", err),
			Suggests: []string{
				"Raise parser.max_log_size if the log is larger than the limit",
			},
		})
		return finishDiagnostics(w, results, opts)
	}

	in := probelog.Inspect(log.Text)

	// 3. Recognised lines
	results = append(results, checkLineKinds(in)...)

	// 4. Malformed lines
	results = append(results, checkMalformed(in, cfg, opts))

	// 5. Calibration runs
	acc := accuracy.New(accuracy.WithMaxRange(cfg.Accuracy.MaxRange)).Analyze(in.Result)
	results = append(results, checkRuns(acc, opts)...)

	// 6. Webhooks
	results = append(results, checkWebhooks(cfg, opts)...)

	return finishDiagnostics(w, results, opts)
}

func finishDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) error {
	if printDiagnostics(w, results, opts) > 0 {
		ExitCode = 1
	}
	return nil
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Log file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Klipper writes klippy.log next to printer.cfg by default",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Log file is empty"
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%s)", path, logfile.HumanSize(info.Size(), false, 1))
	return result
}

func checkConfig(ctx context.Context, g *GlobalOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := g.LoadConfig(ctx)
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		if strings.Contains(err.Error(), "yaml") || strings.Contains(err.Error(), "toml") {
			result.Suggests = []string{
				"Check the file syntax - YAML needs spaces for indentation, not tabs",
				"Run 'probeplot validate <config-file>' for details",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	if g.ConfigFile != "" {
		result.Message = fmt.Sprintf("Loaded %s", g.ConfigFile)
	} else {
		result.Message = "Using defaults"
	}
	result.Details = []string{
		fmt.Sprintf("Strict parsing: %v", cfg.Parser.Strict),
		fmt.Sprintf("Max log size: %s", cfg.Parser.MaxLogSize),
		fmt.Sprintf("Max range: %g mm", cfg.Accuracy.MaxRange),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkLineKinds(in *probelog.Inspection) []DiagnosticResult {
	probes := in.Counts[probelog.LineKindProbe]
	headers := in.Counts[probelog.LineKindAccuracyHeader]
	stats := in.Counts[probelog.LineKindStats]

	lines := DiagnosticResult{
		Check:   "Recognised Lines",
		Status:  StatusOK,
		Message: fmt.Sprintf("%d of %d lines recognised", probes+headers+stats, in.Lines),
		Details: []string{
			fmt.Sprintf("probe: %d", probes),
			fmt.Sprintf("accuracy_header: %d", headers),
			fmt.Sprintf("stats: %d", stats),
			fmt.Sprintf("other: %d", in.Counts[probelog.LineKindNone]),
		},
	}

	if probes == 0 {
		lines.Status = StatusError
		lines.Message = "No probe result lines found"
		lines.Suggests = []string{
			"Probe lines look like: probe at 10.000,20.000 is z=1.234",
			"Run PROBE_ACCURACY or a bed mesh before collecting the log",
		}
		return []DiagnosticResult{lines}
	}

	results := []DiagnosticResult{lines}

	if headers == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Calibration Runs",
			Status:  StatusWarning,
			Message: "No PROBE_ACCURACY headers found, samples will not be grouped into runs",
			Suggests: []string{
				"Run PROBE_ACCURACY from the console to record calibration runs",
			},
		})
	}

	if stats == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Temperatures",
			Status:  StatusWarning,
			Message: "No Stats lines found, temperature series will be empty",
			Suggests: []string{
				"Klipper logs Stats lines once per second while the printer is connected",
			},
		})
	} else {
		sensors := in.Result.Sensors
		results = append(results, DiagnosticResult{
			Check:   "Temperatures",
			Status:  StatusOK,
			Message: fmt.Sprintf("%d sensor(s): %s", len(sensors), strings.Join(sensors, ", ")),
		})
	}

	return results
}

func checkMalformed(in *probelog.Inspection, cfg *config.Config, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Malformed Lines",
	}

	if len(in.Malformed) == 0 {
		result.Status = StatusOK
		result.Message = "No malformed numeric fields"
		return result
	}

	status := StatusWarning
	if cfg.Parser.Strict {
		status = StatusError
		result.Suggests = []string{
			"Strict parsing is enabled, parse and render will fail on this log",
		}
	}
	result.Status = status
	result.Message = fmt.Sprintf("%d line(s) skipped because of malformed numbers", len(in.Malformed))

	listed := in.Malformed
	if !opts.Verbose && len(listed) > maxListedLines {
		listed = listed[:maxListedLines]
	}
	for _, lerr := range listed {
		result.Details = append(result.Details, truncate(lerr.Error(), 100))
	}
	if len(listed) < len(in.Malformed) {
		result.Details = append(result.Details, fmt.Sprintf("... and %d more (use -v to list all)", len(in.Malformed)-len(listed)))
	}

	return result
}

func checkRuns(acc *accuracy.Result, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, run := range acc.Runs {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Run %d: X:%.3f Y:%.3f", run.Number, run.Run.Metadata.X, run.Run.Metadata.Y),
		}

		if run.HasIssues() {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d issue(s)", len(run.Issues))
			for _, issue := range run.Issues {
				result.Details = append(result.Details, fmt.Sprintf("%s: %s", issue.Type, issue.Description))
			}
		} else {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("%d samples, range %.5f mm", run.Stats.Observed, run.Stats.Range)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("Mean: %.5f", run.Stats.Mean),
					fmt.Sprintf("Median: %.5f", run.Stats.Median),
					fmt.Sprintf("Std dev: %.5f", run.Stats.StdDev),
				}
			}
		}

		results = append(results, result)
	}

	return results
}

// printDiagnostics writes the results and returns the number of errors.
func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== probeplot diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before plotting this log.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nLog is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nLog looks good!")
	}

	return errCount
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", wh.DisplayName()),
		}

		issues := []string{}
		warnings := []string{}

		u, err := url.Parse(wh.URL)
		if err != nil {
			issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
		} else if u.Scheme == "http" && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
			warnings = append(warnings, "URL is plain http, reports will be sent unencrypted")
		}

		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if wh.Trigger == config.WebhookTriggerNever {
			warnings = append(warnings, "Trigger is never, this webhook will not fire")
		}

		if len(issues) > 0 {
			result.Status = StatusError
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout.Std()),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", wh.DisplayName())
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response means the server is reachable.
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (it will still work for reports)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
