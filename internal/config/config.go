package config

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Simplici0/maestro/internal/pricing"
)

const (
	defaultDBPath          = "./maestro.db"
	defaultPort            = "8080"
	defaultSolverTimeout   = 5 * time.Second
	defaultSolverNodeLimit = 100000
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	DBPath          string
	Port            string
	APIToken        string
	SolverTimeout   time.Duration
	SolverNodeLimit int
	LogLevel        slog.Level
	Pricing         pricing.Settings
}

// Load reads .env, then environment variables, and returns a populated Config.
func Load() Config {
	return LoadFile(".env", slog.Default())
}

// LoadFile is Load with an explicit dotenv path and a logger for warnings.
// A missing dotenv file is not an error; variables already present in the
// environment win over the file.
func LoadFile(dotenv string, logger *slog.Logger) Config {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not read dotenv file", "path", dotenv, "err", err)
	}

	r := reader{logger: logger}
	cfg := Config{
		DBPath:          r.str("DB_PATH", defaultDBPath),
		Port:            r.str("PORT", defaultPort),
		APIToken:        os.Getenv("MAESTRO_API_TOKEN"),
		SolverTimeout:   r.duration("SOLVER_TIMEOUT", defaultSolverTimeout),
		SolverNodeLimit: r.integer("SOLVER_NODE_LIMIT", defaultSolverNodeLimit),
		LogLevel:        r.level("LOG_LEVEL", slog.LevelInfo),
		Pricing: pricing.Settings{
			WastePercent:    r.percent("WASTE_PERCENT"),
			OverheadFixed:   r.amount("OVERHEAD_FIXED"),
			OverheadPercent: r.percent("OVERHEAD_PERCENT"),
			MarginPercent:   r.percent("MARGIN_PERCENT"),
			TaxPercent:      r.percent("TAX_PERCENT"),
			PackagingCost:   r.amount("PACKAGING_COST"),
		},
	}
	cfg.Pricing.TaxEnabled = cfg.Pricing.TaxPercent > 0

	if cfg.APIToken == "" {
		logger.Warn("MAESTRO_API_TOKEN is not set; menu changes are disabled")
	}

	return cfg
}

// NewLogger returns a text logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// reader parses optional variables, keeping the default and logging a
// warning when a value is malformed.
type reader struct {
	logger *slog.Logger
}

func (r reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r reader) warn(key, value string, err error) {
	r.logger.Warn("ignoring malformed config value", "key", key, "value", value, "err", err)
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		if err == nil {
			err = errors.New("negative duration")
		}
		r.warn(key, v, err)
		return def
	}
	return d
}

func (r reader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		if err == nil {
			err = errors.New("negative value")
		}
		r.warn(key, v, err)
		return def
	}
	return n
}

func (r reader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.warn(key, v, err)
		return def
	}
	return l
}

func (r reader) amount(key string) float64 {
	return r.float(key, os.Getenv(key))
}

// percent accepts "30" and "30%".
func (r reader) percent(key string) float64 {
	return r.float(key, strings.TrimSuffix(strings.TrimSpace(os.Getenv(key)), "%"))
}

func (r reader) float(key, raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		if err == nil {
			err = errors.New("negative value")
		}
		r.warn(key, v, err)
		return 0
	}
	return f
}
