package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their
// defaults and parses args into it.
func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}

	return &fakeBinder{fs: fs}
}

// chdirTemp moves into an empty temp dir so no spmencode.* file is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Logf("chdir restore failed: %v", err)
		}
	})

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.ModelPath != "" {
		t.Errorf("ModelPath = %q; want empty", cfg.Paths.ModelPath)
	}

	if strings.Join(cfg.Encode.Inputs, ",") != "-" {
		t.Errorf("Encode.Inputs = %v; want [-]", cfg.Encode.Inputs)
	}

	if strings.Join(cfg.Encode.Outputs, ",") != "-" {
		t.Errorf("Encode.Outputs = %v; want [-]", cfg.Encode.Outputs)
	}

	if cfg.Encode.OutputFormat != "piece" {
		t.Errorf("Encode.OutputFormat = %q; want %q", cfg.Encode.OutputFormat, "piece")
	}

	if cfg.Encode.MinLen != Unset || cfg.Encode.MaxLen != Unset {
		t.Errorf("Encode.MinLen/MaxLen = %d/%d; want unset", cfg.Encode.MinLen, cfg.Encode.MaxLen)
	}

	if cfg.Encode.ProgressEvery != 10000 {
		t.Errorf("Encode.ProgressEvery = %d; want 10000", cfg.Encode.ProgressEvery)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"model", ""},
		{"inputs", "[-]"},
		{"outputs", "[-]"},
		{"output-format", "piece"},
		{"min-len", "-1"},
		{"max-len", "-1"},
		{"progress-every", "10000"},
		{"metrics-textfile", ""},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

func TestRegisterFlags_BoundUsageExplainsNegative(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	if usage := fs.Lookup("min-len").Usage; !strings.Contains(usage, "negative means no lower bound") {
		t.Errorf("min-len usage = %q", usage)
	}

	usage := fs.Lookup("max-len").Usage
	for _, want := range []string{"negative means no upper bound", "-1 keeps lines of any length"} {
		if !strings.Contains(usage, want) {
			t.Errorf("max-len usage = %q; want it to mention %q", usage, want)
		}
	}
}

func TestFlagKeys_AllRegistered(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	for key, name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("config key %q maps to unregistered flag %q", key, name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Encode.Inputs, ",") != "-" {
		t.Errorf("Encode.Inputs = %v; want [-]", cfg.Encode.Inputs)
	}

	if cfg.Encode.MinLen != Unset {
		t.Errorf("Encode.MinLen = %d; want %d", cfg.Encode.MinLen, Unset)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	chdirTemp(t)

	defaults := DefaultConfig()
	binder := newFlagBinder(t, defaults,
		"--model=m.model",
		"--inputs=train.de,train.en",
		"--outputs", "train.spm.de",
		"--outputs", "train.spm.en",
		"--output-format=id",
		"--min-len=1",
		"--max-len=250",
		"--log-level=debug",
	)

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.ModelPath != "m.model" {
		t.Errorf("ModelPath = %q; want %q", cfg.Paths.ModelPath, "m.model")
	}

	if got := strings.Join(cfg.Encode.Inputs, "|"); got != "train.de|train.en" {
		t.Errorf("Encode.Inputs = %q", got)
	}

	if got := strings.Join(cfg.Encode.Outputs, "|"); got != "train.spm.de|train.spm.en" {
		t.Errorf("Encode.Outputs = %q", got)
	}

	if cfg.Encode.OutputFormat != "id" {
		t.Errorf("Encode.OutputFormat = %q; want id", cfg.Encode.OutputFormat)
	}

	if cfg.Encode.MinLen != 1 || cfg.Encode.MaxLen != 250 {
		t.Errorf("Encode.MinLen/MaxLen = %d/%d; want 1/250", cfg.Encode.MinLen, cfg.Encode.MaxLen)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SPMENCODE_LOG_LEVEL", "warn")
	t.Setenv("SPMENCODE_PATHS_MODEL_PATH", "/models/spm.model")
	t.Setenv("SPMENCODE_ENCODE_MAX_LEN", "128")

	cfg, err := Load(LoadOptions{
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Paths.ModelPath != "/models/spm.model" {
		t.Errorf("ModelPath = %q", cfg.Paths.ModelPath)
	}

	if cfg.Encode.MaxLen != 128 {
		t.Errorf("Encode.MaxLen = %d; want 128", cfg.Encode.MaxLen)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	chdirTemp(t)

	cfgFile := filepath.Join(t.TempDir(), "spmencode.yaml")

	content := `
log_level: error
paths:
  model_path: /models/joint.model
encode:
  inputs: [a.txt, b.txt]
  outputs: [a.spm, b.spm]
  output_format: id
  min_len: 2
metrics:
  textfile: /var/lib/node_exporter/spmencode.prom
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Paths.ModelPath != "/models/joint.model" {
		t.Errorf("ModelPath = %q", cfg.Paths.ModelPath)
	}

	if got := strings.Join(cfg.Encode.Inputs, "|"); got != "a.txt|b.txt" {
		t.Errorf("Encode.Inputs = %q", got)
	}

	if cfg.Encode.OutputFormat != "id" || cfg.Encode.MinLen != 2 || cfg.Encode.MaxLen != Unset {
		t.Errorf("Encode = %+v", cfg.Encode)
	}

	if cfg.Metrics.Textfile != "/var/lib/node_exporter/spmencode.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	chdirTemp(t)

	cfgFile := filepath.Join(t.TempDir(), "spmencode.yaml")
	if err := os.WriteFile(cfgFile, []byte("encode:\n  output_format: id\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults, "--output-format=piece"),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Encode.OutputFormat != "piece" {
		t.Errorf("Encode.OutputFormat = %q; want piece", cfg.Encode.OutputFormat)
	}
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	chdirTemp(t)

	if err := os.WriteFile("spmencode.yaml", []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "bad.yaml")

	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/spmencode.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrModelRequired) {
		t.Errorf("Validate() = %v; want ErrModelRequired", err)
	}

	cfg.Paths.ModelPath = "spm.model"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v; want nil", err)
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
		}

		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
