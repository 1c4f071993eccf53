// Package config loads Shutterbox configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Library   LibraryConfig
	Store     StoreConfig
	Server    ServerConfig
	Ingest    IngestConfig
	Layout    LayoutConfig
	Watcher   WatcherConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Environment string
}

type LoggerConfig struct {
	Level  string
	Format string // empty picks by environment
}

// LibraryConfig locates the library on disk. MediaPath, DatabasePath and
// IndexPath default to subdirectories of BasePath.
type LibraryConfig struct {
	BasePath     string
	MediaPath    string
	DatabasePath string
	IndexPath    string
}

type StoreConfig struct {
	Backend string // sqlite or badger
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
	MaxUploadMB  int

	AdvertiseMDNS bool // announce over Avahi; needs the system D-Bus
}

type IngestConfig struct {
	RetryAttempts   int
	RetryDelay      time.Duration
	Placeholders    bool
	BackfillWorkers int
}

// LayoutConfig holds masonry layout parameters for the live viewport.
type LayoutConfig struct {
	Spacing        float64
	MinColumnWidth float64
	MinColumns     int
	MaxColumns     int
	FallbackWidth  float64
	Debounce       time.Duration
	Settle         time.Duration
	PageSize       int
}

type WatcherConfig struct {
	InboxPath   string // empty disables the inbox
	SettleDelay time.Duration
}

type RateLimitConfig struct {
	UploadRPS   float64
	UploadBurst int
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Protocol    string // grpc or http/protobuf
	Endpoint    string
	SampleRatio float64
}

// source resolves a key through flag, environment and default in that
// order. The first parse failure is kept in err.
type source struct {
	flags *pflag.FlagSet
	err   error
}

func (s *source) str(flag, env, def string) string {
	if s.flags != nil && flag != "" {
		if f := s.flags.Lookup(flag); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func (s *source) boolean(flag, env string, def bool) bool {
	v := strings.ToLower(s.str(flag, env, ""))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func (s *source) integer(flag, env string, def int) int {
	v := s.str(flag, env, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.fail(env, v, err)
		return def
	}
	return n
}

func (s *source) float(flag, env string, def float64) float64 {
	v := s.str(flag, env, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.fail(env, v, err)
		return def
	}
	return f
}

func (s *source) duration(flag, env string, def time.Duration) time.Duration {
	v := s.str(flag, env, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		s.fail(env, v, err)
		return def
	}
	return d
}

func (s *source) fail(env, v string, err error) {
	if s.err == nil {
		s.err = fmt.Errorf("invalid %s %q: %w", env, v, err)
	}
}

// NewFlagSet registers every configuration flag on a fresh set.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("env", "", "Environment (development, staging, production)")
	fs.String("env-file", ".env", "Path to .env file")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (json, console)")
	fs.String("library-path", "", "Base directory of the photo library")
	fs.String("media-path", "", "Managed media directory (default: <library>/media)")
	fs.String("store", "", "Store backend (sqlite, badger)")
	fs.String("port", "", "Server port (default: 8080)")
	fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	fs.String("advertise-mdns", "", "Advertise the server via Avahi mDNS (default: false)")
	fs.String("retry-attempts", "", "Decode attempts before an import is reported locked (default: 3)")
	fs.String("retry-delay", "", "Delay between decode attempts (default: 250ms)")
	fs.String("placeholders", "", "Compute BlurHash placeholders on import (default: true)")
	fs.String("inbox", "", "Drop folder watched for new photos")
	fs.String("spacing", "", "Masonry spacing in points (default: 8)")
	fs.String("min-column-width", "", "Minimum masonry column width (default: 180)")
	fs.Bool("tracing", false, "Export OpenTelemetry traces")
	return fs
}

// Load parses args and resolves configuration with precedence
// flags > environment > .env file > defaults.
func Load(args []string) (*Config, error) {
	flags := NewFlagSet("shutterbox")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return FromFlags(flags)
}

// FromFlags resolves configuration against an already parsed flag set.
// A nil set resolves from the environment only.
func FromFlags(flags *pflag.FlagSet) (*Config, error) {
	src := &source{flags: flags}

	// godotenv never overrides variables that are already set.
	envFile := src.str("env-file", "ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: src.str("env", "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  src.str("log-level", "LOG_LEVEL", "info"),
			Format: src.str("log-format", "LOG_FORMAT", ""),
		},
		Library: LibraryConfig{
			BasePath:  src.str("library-path", "LIBRARY_PATH", ""),
			MediaPath: src.str("media-path", "MEDIA_PATH", ""),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(src.str("store", "STORE_BACKEND", BackendSQLite)),
		},
		Server: ServerConfig{
			Port:         src.str("port", "SERVER_PORT", "8080"),
			ReadTimeout:  src.duration("read-timeout", "SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: src.duration("write-timeout", "SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  src.duration("idle-timeout", "SERVER_IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:  splitList(src.str("cors-origins", "CORS_ORIGINS", "*")),
			MaxUploadMB:  src.integer("", "SERVER_MAX_UPLOAD_MB", 512),

			AdvertiseMDNS: src.boolean("advertise-mdns", "ADVERTISE_MDNS", false),
		},
		Ingest: IngestConfig{
			RetryAttempts:   src.integer("retry-attempts", "INGEST_RETRY_ATTEMPTS", 3),
			RetryDelay:      src.duration("retry-delay", "INGEST_RETRY_DELAY", 250*time.Millisecond),
			Placeholders:    src.boolean("placeholders", "INGEST_PLACEHOLDERS", true),
			BackfillWorkers: src.integer("", "INGEST_BACKFILL_WORKERS", 4),
		},
		Layout: LayoutConfig{
			Spacing:        src.float("spacing", "LAYOUT_SPACING", 8),
			MinColumnWidth: src.float("min-column-width", "LAYOUT_MIN_COLUMN_WIDTH", 180),
			MinColumns:     src.integer("", "LAYOUT_MIN_COLUMNS", 1),
			MaxColumns:     src.integer("", "LAYOUT_MAX_COLUMNS", 8),
			FallbackWidth:  src.float("", "LAYOUT_FALLBACK_WIDTH", 800),
			Debounce:       src.duration("", "LAYOUT_DEBOUNCE", 150*time.Millisecond),
			Settle:         src.duration("", "LAYOUT_SETTLE", 50*time.Millisecond),
			PageSize:       src.integer("", "PHOTOBOOK_PAGE_SIZE", 4),
		},
		Watcher: WatcherConfig{
			InboxPath:   src.str("inbox", "INBOX_PATH", ""),
			SettleDelay: src.duration("", "INBOX_SETTLE_DELAY", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			UploadRPS:   src.float("", "UPLOAD_RATE_LIMIT", 2),
			UploadBurst: src.integer("", "UPLOAD_RATE_BURST", 5),
		},
		Tracing: TracingConfig{
			Enabled:     src.boolean("tracing", "TRACING_ENABLED", false),
			ServiceName: src.str("", "OTEL_SERVICE_NAME", "shutterbox"),
			Protocol:    src.str("", "OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			Endpoint:    src.str("", "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRatio: src.float("", "OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	if src.err != nil {
		return nil, src.err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Library.BasePath == "" {
		return errors.New("library path cannot be empty after expansion")
	}
	if c.Store.Backend != BackendSQLite && c.Store.Backend != BackendBadger {
		return fmt.Errorf("invalid store backend: %s (must be sqlite or badger)", c.Store.Backend)
	}
	if c.Ingest.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Ingest.RetryAttempts)
	}
	if c.Ingest.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	if c.Layout.Spacing < 0 {
		return errors.New("layout spacing cannot be negative")
	}
	if c.Layout.MinColumnWidth <= 0 {
		return errors.New("minimum column width must be positive")
	}
	if c.Layout.MinColumns < 1 || c.Layout.MaxColumns < c.Layout.MinColumns {
		return fmt.Errorf("invalid column bounds %d..%d", c.Layout.MinColumns, c.Layout.MaxColumns)
	}
	if c.Layout.PageSize < 0 {
		return errors.New("photo-book page size cannot be negative")
	}
	if c.Tracing.Enabled && c.Tracing.Protocol != "grpc" && c.Tracing.Protocol != "http/protobuf" {
		return fmt.Errorf("unsupported OTLP protocol: %s", c.Tracing.Protocol)
	}
	return nil
}

func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Library.BasePath, err = expandPath(c.Library.BasePath, filepath.Join(home, "Shutterbox")); err != nil {
		return err
	}
	if c.Library.MediaPath, err = expandPath(c.Library.MediaPath, filepath.Join(c.Library.BasePath, "media")); err != nil {
		return err
	}
	c.Library.DatabasePath = filepath.Join(c.Library.BasePath, "db")
	c.Library.IndexPath = filepath.Join(c.Library.BasePath, "index")

	if c.Watcher.InboxPath != "" {
		if c.Watcher.InboxPath, err = expandPath(c.Watcher.InboxPath, ""); err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty input yields def.
func expandPath(path, def string) (string, error) {
	if path == "" {
		return def, nil
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
