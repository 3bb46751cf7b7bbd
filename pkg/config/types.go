// Package config provides configuration loading and validation for probeplot.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/probeplot/pkg/logfile"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	Parser   ParserConfig    `yaml:"parser" toml:"parser"`
	Accuracy AccuracyConfig  `yaml:"accuracy" toml:"accuracy"`
	Chart    ChartConfig     `yaml:"chart" toml:"chart"`
	Server   ServerConfig    `yaml:"server" toml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`
}

// ParserConfig controls how logs are loaded and parsed.
type ParserConfig struct {
	// Strict makes a matched line with an unparsable number an error
	// instead of skipping it.
	Strict bool `yaml:"strict" toml:"strict"`

	// MaxLogSize bounds a single log file.
	MaxLogSize ByteSize `yaml:"max_log_size" toml:"max_log_size"`
}

// AccuracyConfig controls PROBE_ACCURACY run checks.
type AccuracyConfig struct {
	// MaxRange is the largest acceptable Z spread within a run, in mm.
	// Zero disables the check.
	MaxRange float64 `yaml:"max_range" toml:"max_range"`
}

// ChartConfig controls rendered charts.
type ChartConfig struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Title  string `yaml:"title,omitempty" toml:"title,omitempty"`

	// BandColors are cycled through for successive calibration runs.
	BandColors []string `yaml:"band_colors" toml:"band_colors"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen" toml:"listen"`

	// BearerToken protects /api when set. Supports ${VAR} expansion.
	BearerToken string `yaml:"bearer_token,omitempty" toml:"bearer_token,omitempty"`

	MaxUploadSize ByteSize `yaml:"max_upload_size" toml:"max_upload_size"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when accuracy issues are detected (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every parse.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger defaults to "on_issues" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout defaults to 10s if not specified.
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// DisplayName returns Name, or the URL when no name was given.
func (w WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}

// ByteSize is a byte count written as "1048576", "512KiB" or "64MiB".
type ByteSize int64

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := logfile.ParseSize(string(text))
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	return b.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", int64(b))), nil
}

// String renders the size for humans.
func (b ByteSize) String() string {
	return logfile.HumanSize(int64(b), false, 1)
}

// Duration is a time.Duration written as "10s" or "1m30s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
