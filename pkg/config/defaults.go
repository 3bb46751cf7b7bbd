package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ccollicutt/probeplot/pkg/logfile"
)

// Default values for configuration.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultListen         = ":8080"
	DefaultChartWidth     = 1280
	DefaultChartHeight    = 600
	DefaultWebhookTimeout = 10 * time.Second
)

// DefaultBandColors alternate between adjacent calibration runs.
var DefaultBandColors = []string{"#EFFFFF", "#FFFFEF"}

// Environment variable names.
const (
	EnvLogLevel    = "PROBEPLOT_LOG_LEVEL"
	EnvListen      = "PROBEPLOT_LISTEN"
	EnvBearerToken = "PROBEPLOT_BEARER_TOKEN"
	EnvMaxLogSize  = "PROBEPLOT_MAX_LOG_SIZE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Parser: ParserConfig{
			MaxLogSize: ByteSize(logfile.DefaultMaxSize),
		},
		Chart: ChartConfig{
			Width:      DefaultChartWidth,
			Height:     DefaultChartHeight,
			BandColors: append([]string(nil), DefaultBandColors...),
		},
		Server: ServerConfig{
			Listen:        DefaultListen,
			MaxUploadSize: ByteSize(logfile.DefaultMaxSize),
		},
	}
}

// applyEnvironmentOverrides loads .env (if present) and applies
// environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	_ = godotenv.Load() // ignore missing file

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if listen := os.Getenv(EnvListen); listen != "" {
		c.Server.Listen = listen
	}
	if token := os.Getenv(EnvBearerToken); token != "" {
		c.Server.BearerToken = token
	}
	if size := os.Getenv(EnvMaxLogSize); size != "" {
		n, err := logfile.ParseSize(size)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxLogSize, err)
		}
		c.Parser.MaxLogSize = ByteSize(n)
	}
	return nil
}
