package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ccollicutt/probeplot/internal/logging"
	"github.com/ccollicutt/probeplot/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

// LoadConfig loads --config, or the defaults when no file was given, and
// applies the logging flags on top.
func (g *GlobalOptions) LoadConfig(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		cfg *config.Config
		err error
	)
	if g.ConfigFile != "" {
		cfg, err = config.Load(ctx, g.ConfigFile)
	} else {
		cfg, err = config.LoadDefault(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}

	return cfg, nil
}

// Logger installs and returns the process logger. Logs go to w (stderr);
// when the command's own output is machine-readable and no format was
// chosen explicitly, logs switch to JSON as well.
func (g *GlobalOptions) Logger(cfg *config.Config, w io.Writer, machineOutput bool) *slog.Logger {
	format := cfg.LogFormat
	if machineOutput && g.LogFormat == "" {
		format = "json"
	}
	return logging.Init(w, format, logging.ParseLevel(cfg.LogLevel))
}
