package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/probeplot/pkg/logfile"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvLogLevel, EnvListen, EnvBearerToken, EnvMaxLogSize} {
		t.Setenv(name, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	content := `
log_level: debug
log_format: json
parser:
  strict: true
  max_log_size: 32MiB
accuracy:
  max_range: 0.025
chart:
  width: 800
  height: 400
  title: Probe repeatability
  band_colors: ["#EEEEEE", "#DDDDDD", "#CCCCCC"]
server:
  listen: "127.0.0.1:9090"
  max_upload_size: 8MiB
`
	path := writeTempFile(t, "probeplot.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %s/%s, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Parser.Strict {
		t.Error("Parser.Strict = false, want true")
	}
	if cfg.Parser.MaxLogSize != 32<<20 {
		t.Errorf("Parser.MaxLogSize = %d, want %d", cfg.Parser.MaxLogSize, 32<<20)
	}
	if cfg.Accuracy.MaxRange != 0.025 {
		t.Errorf("Accuracy.MaxRange = %v, want 0.025", cfg.Accuracy.MaxRange)
	}
	if cfg.Chart.Width != 800 || cfg.Chart.Height != 400 {
		t.Errorf("Chart = %dx%d, want 800x400", cfg.Chart.Width, cfg.Chart.Height)
	}
	if len(cfg.Chart.BandColors) != 3 {
		t.Errorf("BandColors = %v, want 3 colors", cfg.Chart.BandColors)
	}
	if cfg.Server.Listen != "127.0.0.1:9090" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.MaxUploadSize != 8<<20 {
		t.Errorf("Server.MaxUploadSize = %d, want %d", cfg.Server.MaxUploadSize, 8<<20)
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "probeplot.yaml", "accuracy:\n  max_range: 0.01\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chart.Width != DefaultChartWidth || cfg.Chart.Height != DefaultChartHeight {
		t.Errorf("Chart = %dx%d, want defaults", cfg.Chart.Width, cfg.Chart.Height)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, DefaultListen)
	}
	if int64(cfg.Parser.MaxLogSize) != logfile.DefaultMaxSize {
		t.Errorf("Parser.MaxLogSize = %d, want default", cfg.Parser.MaxLogSize)
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	content := `
log_level = "warn"

[parser]
max_log_size = "1MiB"

[chart]
width = 640
height = 480
band_colors = ["#101010"]

[[webhooks]]
name = "bench"
url = "https://example.com/hook"
trigger = "always"
timeout = "5s"
`
	path := writeTempFile(t, "probeplot.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Parser.MaxLogSize != 1<<20 {
		t.Errorf("Parser.MaxLogSize = %d, want %d", cfg.Parser.MaxLogSize, 1<<20)
	}
	if cfg.Chart.Width != 640 {
		t.Errorf("Chart.Width = %d, want 640", cfg.Chart.Width)
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Trigger = %q, want always", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout.Std() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Webhooks[0].Timeout.Std())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/probeplot.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidSize(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "probeplot.yaml", "parser:\n  max_log_size: lots\n")
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for unparsable size")
	}
}

func TestLoadDefault_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvListen, ":9999")
	t.Setenv(EnvBearerToken, "s3cret")
	t.Setenv(EnvMaxLogSize, "2MiB")

	cfg, err := LoadDefault(context.Background())
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.Server.Listen != ":9999" {
		t.Errorf("Server.Listen = %q, want :9999", cfg.Server.Listen)
	}
	if cfg.Server.BearerToken != "s3cret" {
		t.Errorf("Server.BearerToken = %q, want s3cret", cfg.Server.BearerToken)
	}
	if cfg.Parser.MaxLogSize != 2<<20 {
		t.Errorf("Parser.MaxLogSize = %d, want %d", cfg.Parser.MaxLogSize, 2<<20)
	}
}

func TestByteSize_UnitsAreConsistent(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"1k", 1000},
		{"1kB", 1000},
		{"1KiB", 1024},
		{"1.5GB", 1500000000},
		{"64MiB", 64 << 20},
	}

	for _, tt := range tests {
		var b ByteSize
		if err := b.UnmarshalText([]byte(tt.in)); err != nil {
			t.Errorf("UnmarshalText(%q) error = %v", tt.in, err)
			continue
		}
		if b != tt.want {
			t.Errorf("UnmarshalText(%q) = %d, want %d", tt.in, b, tt.want)
		}
	}

	clearEnv(t)
	t.Setenv(EnvMaxLogSize, "512k")
	cfg, err := LoadDefault(context.Background())
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if cfg.Parser.MaxLogSize != 512000 {
		t.Errorf("Parser.MaxLogSize = %d, want 512000", cfg.Parser.MaxLogSize)
	}
}

func TestLoadDefault_InvalidEnvironmentSize(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxLogSize, "huge")

	_, err := LoadDefault(context.Background())
	if err == nil || !strings.Contains(err.Error(), EnvMaxLogSize) {
		t.Errorf("LoadDefault() error = %v, want mention of %s", err, EnvMaxLogSize)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(DefaultConfig()) error = %v", err)
	}
	if len(cfg.Chart.BandColors) != 2 || cfg.Chart.BandColors[0] != "#EFFFFF" || cfg.Chart.BandColors[1] != "#FFFFEF" {
		t.Errorf("BandColors = %v", cfg.Chart.BandColors)
	}

	// Mutating one default must not leak into the next.
	cfg.Chart.BandColors[0] = "#000000"
	if DefaultConfig().Chart.BandColors[0] != "#EFFFFF" {
		t.Error("DefaultConfig() shares BandColors between calls")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"warning alias", func(c *Config) { c.LogLevel = "WARNING" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"zero max log size", func(c *Config) { c.Parser.MaxLogSize = 0 }, "max_log_size"},
		{"negative max range", func(c *Config) { c.Accuracy.MaxRange = -1 }, "max_range"},
		{"zero width", func(c *Config) { c.Chart.Width = 0 }, "chart"},
		{"no band colors", func(c *Config) { c.Chart.BandColors = nil }, "band_colors"},
		{"short color", func(c *Config) { c.Chart.BandColors = []string{"#FFF"} }, "band_colors[0]"},
		{"named color", func(c *Config) { c.Chart.BandColors = []string{"#EFFFFF", "red"} }, "band_colors[1]"},
		{"no listen", func(c *Config) { c.Server.Listen = "" }, "listen"},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadSize = 0 }, "max_upload_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ExpandsBearerToken(t *testing.T) {
	t.Setenv("TEST_PROBEPLOT_TOKEN", "from-env")
	cfg := DefaultConfig()
	cfg.Server.BearerToken = "${TEST_PROBEPLOT_TOKEN}"

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Server.BearerToken != "from-env" {
		t.Errorf("BearerToken = %q, want from-env", cfg.Server.BearerToken)
	}
}

func TestValidate_Webhook_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{
		Name:    "test",
		URL:     "https://example.com/webhook",
		Trigger: WebhookTriggerOnIssues,
	}}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Webhook_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr string
	}{
		{"missing url", WebhookConfig{Name: "x"}, "url is required"},
		{"ftp scheme", WebhookConfig{URL: "ftp://example.com/hook"}, "scheme"},
		{"no host", WebhookConfig{URL: "https:///hook"}, "host"},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "sometimes"}, "invalid trigger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Webhook_AllTriggers(t *testing.T) {
	for _, trigger := range []WebhookTrigger{WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever} {
		cfg := DefaultConfig()
		cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook", Trigger: trigger}}
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate() with trigger %q error = %v", trigger, err)
		}
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnIssues {
		t.Errorf("Trigger = %q, want on_issues", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout.Std() != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Webhooks[0].Timeout.Std(), DefaultWebhookTimeout)
	}
}

func TestValidate_Webhook_ErrorNamesWebhook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{
		{Name: "ok", URL: "https://example.com/a"},
		{Name: "broken", URL: "mailto:someone"},
	}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhooks[1] (broken)") {
		t.Errorf("Validate() error = %v, want webhooks[1] (broken)", err)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_HOOK_TOKEN", "tok")
	content := `
webhooks:
  - name: test-webhook
    url: "https://example.com/webhook"
    token: "${TEST_HOOK_TOKEN}"
    trigger: on_issues
    timeout: 30s
  - url: "https://backup.example.com/webhook"
    trigger: always
`
	path := writeTempFile(t, "config-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Name != "test-webhook" {
		t.Errorf("Webhook[0].Name = %q, want %q", cfg.Webhooks[0].Name, "test-webhook")
	}
	if cfg.Webhooks[0].Token != "tok" {
		t.Errorf("Webhook[0].Token = %q, want tok", cfg.Webhooks[0].Token)
	}
	if cfg.Webhooks[0].Timeout.Std() != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout.Std())
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[1].Trigger = %v, want %v", cfg.Webhooks[1].Trigger, WebhookTriggerAlways)
	}
	if cfg.Webhooks[1].DisplayName() != "https://backup.example.com/webhook" {
		t.Errorf("Webhook[1].DisplayName() = %q", cfg.Webhooks[1].DisplayName())
	}
}

func TestByteSize_String(t *testing.T) {
	if got := ByteSize(64 << 20).String(); got != "64.0 MiB" {
		t.Errorf("String() = %q, want 64.0 MiB", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
