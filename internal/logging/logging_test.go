package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManager_DefaultConfig(t *testing.T) {
	mgr, logger := NewManager(DefaultConfig())
	defer mgr.Close() //nolint:errcheck

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if got := mgr.Config(); got.Level != "info" || got.Format != "json" || got.Output != OutputStdout {
		t.Errorf("unexpected default config: %+v", got)
	}
}

func TestManager_LevelSwap(t *testing.T) {
	mgr, logger := NewManager(Config{Level: "info", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	// A derived logger follows level changes.
	resolver := logger.With(slog.String("component", "resolver"))
	ctx := context.Background()

	if !resolver.Enabled(ctx, slog.LevelInfo) || resolver.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("expected info enabled and debug disabled initially")
	}

	if !mgr.Reconfigure(Config{Level: "debug", Format: "json"}) {
		t.Error("expected level change to be reported")
	}
	if !resolver.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be enabled after reconfigure")
	}

	mgr.Reconfigure(Config{Level: "error", Format: "json"})
	if resolver.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be disabled when level is error")
	}
}

func TestManager_FormatSwap(t *testing.T) {
	mgr, _ := NewManager(Config{Level: "info", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	mgr.Reconfigure(Config{Level: "info", Format: "text", Output: OutputStderr})
	got := mgr.Config()
	if got.Format != "text" || got.Output != OutputStderr {
		t.Errorf("unexpected config after reconfigure: %+v", got)
	}
}

func TestManager_ReconfigureUnchanged(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	mgr, _ := NewManager(cfg)
	defer mgr.Close() //nolint:errcheck

	if mgr.Reconfigure(cfg) {
		t.Error("expected identical config to report no change")
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "discresolve.log")

	mgr, logger := NewManager(Config{
		Level:          "info",
		Format:         "json",
		Output:         OutputStderr,
		FilePath:       logFile,
		FileMaxSizeMB:  1,
		FileMaxFiles:   1,
		FileMaxAgeDays: 1,
	})

	logger.Info("resolution complete", slog.String("source", "primary"))

	if err := mgr.Close(); err != nil {
		t.Fatalf("closing manager: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"source":"primary"`) {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, _ := NewManager(DefaultConfig())
	if err := mgr.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{DefaultConfig(), false},
		{Config{Level: "debug", Format: "text", Output: OutputStderr}, false},
		{Config{Level: "trace", Format: "json"}, true},
		{Config{Level: "info", Format: "xml"}, true},
		{Config{Level: "info", Format: "json", Output: "syslog"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	for _, l := range []string{"", "trace", "fatal", "DEBUG"} {
		if ValidLevel(l) {
			t.Errorf("expected %q to be invalid", l)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.out)
		}
	}
}

func TestFormatLevel(t *testing.T) {
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if got := parseLevel(FormatLevel(l)); got != l {
			t.Errorf("FormatLevel(%v) does not round-trip: %q", l, FormatLevel(l))
		}
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if s := cfg.String(); s != "level=info format=json" {
		t.Errorf("unexpected string: %s", s)
	}

	cfg.Output = OutputStderr
	cfg.FilePath = "/var/log/discresolve.log"
	cfg.FileMaxSizeMB = 50
	cfg.FileMaxFiles = 5
	cfg.FileMaxAgeDays = 7
	want := "level=info format=json output=stderr file=/var/log/discresolve.log max_size=50MB max_files=5 max_age=7d"
	if s := cfg.String(); s != want {
		t.Errorf("got %q, want %q", s, want)
	}

	// The summary reports the level the manager applies.
	if s := (Config{Format: "text"}).String(); s != "level=info format=text" {
		t.Errorf("empty level: got %q", s)
	}
}
