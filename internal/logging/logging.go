package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Console streams.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// Config is the logging block of the service configuration.
type Config struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	Output         string `yaml:"output,omitempty"`
	FilePath       string `yaml:"file_path,omitempty"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb,omitempty"`
	FileMaxFiles   int    `yaml:"file_max_files,omitempty"`
	FileMaxAgeDays int    `yaml:"file_max_age_days,omitempty"`
}

// DefaultConfig returns the service defaults: JSON at info to stdout.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "json",
		Output:         OutputStdout,
		FileMaxSizeMB:  100,
		FileMaxFiles:   3,
		FileMaxAgeDays: 30,
	}
}

// Validate rejects unknown levels, formats and outputs.
func (c Config) Validate() error {
	if !ValidLevel(c.Level) {
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	if !ValidFormat(c.Format) {
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	switch c.Output {
	case "", OutputStdout, OutputStderr:
	default:
		return fmt.Errorf("invalid log output %q", c.Output)
	}
	return nil
}

// String returns a human-readable summary of the config. The level is the
// one the manager applies, so an empty or unknown level reads as info.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", FormatLevel(parseLevel(c.Level)), c.Format)
	if c.Output == OutputStderr {
		s += " output=stderr"
	}
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}

// SwappableHandler is a slog.Handler whose delegate can be replaced while
// loggers derived from it are in use.
type SwappableHandler struct {
	inner atomic.Pointer[slog.Handler]
}

// NewSwappableHandler creates a SwappableHandler wrapping h.
func NewSwappableHandler(h slog.Handler) *SwappableHandler {
	s := &SwappableHandler{}
	s.inner.Store(&h)
	return s
}

// Swap replaces the inner handler.
func (s *SwappableHandler) Swap(h slog.Handler) {
	s.inner.Store(&h)
}

func (s *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*s.inner.Load()).Enabled(ctx, level)
}

func (s *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return (*s.inner.Load()).Handle(ctx, r)
}

func (s *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithAttrs(attrs))
}

func (s *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithGroup(name))
}

// Manager owns the process logger. Reconfigure is driven by the config
// file watcher so logging changes apply without a restart.
type Manager struct {
	levelVar *slog.LevelVar
	handler  *SwappableHandler
	config   Config
	mu       sync.Mutex
	closer   io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and returns it along with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	writer, closer := buildWriter(cfg)
	handler := NewSwappableHandler(buildHandler(writer, lvl, cfg.Format))

	m := &Manager{
		levelVar: lvl,
		handler:  handler,
		config:   cfg,
		closer:   closer,
	}
	return m, slog.New(handler)
}

// Reconfigure applies cfg and reports whether anything changed. Level
// changes take effect through the shared LevelVar; format or destination
// changes rebuild the handler.
//
// Loggers created with With before a rebuild keep the handler they were
// created with.
func (m *Manager) Reconfigure(cfg Config) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg == m.config {
		return false
	}

	m.levelVar.Set(parseLevel(cfg.Level))

	needSwap := cfg.Format != m.config.Format ||
		cfg.Output != m.config.Output ||
		cfg.FilePath != m.config.FilePath ||
		cfg.FileMaxSizeMB != m.config.FileMaxSizeMB ||
		cfg.FileMaxFiles != m.config.FileMaxFiles ||
		cfg.FileMaxAgeDays != m.config.FileMaxAgeDays

	if needSwap {
		if m.closer != nil {
			m.closer.Close() //nolint:errcheck
			m.closer = nil
		}
		writer, closer := buildWriter(cfg)
		m.handler.Swap(buildHandler(writer, m.levelVar, cfg.Format))
		m.closer = closer
	}

	m.config = cfg
	return true
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file writer, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FormatLevel converts a slog.Level to its string name.
func FormatLevel(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

// buildWriter returns the console stream, teed into a rotating file when
// a file path is configured. The closer is the lumberjack logger.
func buildWriter(cfg Config) (io.Writer, io.Closer) {
	var console io.Writer = os.Stdout
	if cfg.Output == OutputStderr {
		console = os.Stderr
	}
	if cfg.FilePath == "" {
		return console, nil
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    orDefault(cfg.FileMaxSizeMB, 100),
		MaxBackups: orDefault(cfg.FileMaxFiles, 3),
		MaxAge:     orDefault(cfg.FileMaxAgeDays, 30),
	}
	return io.MultiWriter(console, lj), lj
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}
