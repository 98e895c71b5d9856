package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"DB_PATH", "PORT", "MAESTRO_API_TOKEN", "SOLVER_TIMEOUT", "SOLVER_NODE_LIMIT", "LOG_LEVEL",
	"WASTE_PERCENT", "OVERHEAD_FIXED", "OVERHEAD_PERCENT", "MARGIN_PERCENT", "TAX_PERCENT", "PACKAGING_COST",
}

// clearEnv unsets every config variable for the duration of the test so that
// dotenv files can populate them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.env"), discard())

	if cfg.DBPath != defaultDBPath {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("Port=%q, want %q", cfg.Port, defaultPort)
	}
	if cfg.SolverTimeout != defaultSolverTimeout {
		t.Fatalf("SolverTimeout=%v, want %v", cfg.SolverTimeout, defaultSolverTimeout)
	}
	if cfg.SolverNodeLimit != defaultSolverNodeLimit {
		t.Fatalf("SolverNodeLimit=%d, want %d", cfg.SolverNodeLimit, defaultSolverNodeLimit)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel=%v, want info", cfg.LogLevel)
	}
	if cfg.Pricing.TaxEnabled {
		t.Fatalf("TaxEnabled=true without TAX_PERCENT")
	}
}

func TestLoadFile_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeDotEnv(t, `
# local settings
DB_PATH=/tmp/pizza.db
export PORT=9090
MAESTRO_API_TOKEN="s3cret"
SOLVER_TIMEOUT=250ms
SOLVER_NODE_LIMIT=500
LOG_LEVEL=debug
MARGIN_PERCENT=30%
TAX_PERCENT=16
PACKAGING_COST=0.75
`)

	cfg := LoadFile(path, discard())

	if cfg.DBPath != "/tmp/pizza.db" {
		t.Fatalf("DBPath=%q", cfg.DBPath)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q", cfg.Port)
	}
	if cfg.APIToken != "s3cret" {
		t.Fatalf("APIToken=%q", cfg.APIToken)
	}
	if cfg.SolverTimeout != 250*time.Millisecond {
		t.Fatalf("SolverTimeout=%v", cfg.SolverTimeout)
	}
	if cfg.SolverNodeLimit != 500 {
		t.Fatalf("SolverNodeLimit=%d", cfg.SolverNodeLimit)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel=%v", cfg.LogLevel)
	}
	if cfg.Pricing.MarginPercent != 30 || cfg.Pricing.TaxPercent != 16 || !cfg.Pricing.TaxEnabled {
		t.Fatalf("Pricing=%+v", cfg.Pricing)
	}
	if cfg.Pricing.PackagingCost != 0.75 {
		t.Fatalf("PackagingCost=%v", cfg.Pricing.PackagingCost)
	}
}

func TestLoadFile_EnvironmentWinsOverDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	path := writeDotEnv(t, "PORT=9090\n")

	cfg := LoadFile(path, discard())

	if cfg.Port != "7070" {
		t.Fatalf("Port=%q, want %q", cfg.Port, "7070")
	}
}

func TestLoadFile_MalformedValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOLVER_TIMEOUT", "soon")
	t.Setenv("SOLVER_NODE_LIMIT", "-4")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("MARGIN_PERCENT", "lots")

	var buf bytes.Buffer
	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.env"), slog.New(slog.NewTextHandler(&buf, nil)))

	if cfg.SolverTimeout != defaultSolverTimeout {
		t.Fatalf("SolverTimeout=%v", cfg.SolverTimeout)
	}
	if cfg.SolverNodeLimit != defaultSolverNodeLimit {
		t.Fatalf("SolverNodeLimit=%d", cfg.SolverNodeLimit)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel=%v", cfg.LogLevel)
	}
	if cfg.Pricing.MarginPercent != 0 {
		t.Fatalf("MarginPercent=%v", cfg.Pricing.MarginPercent)
	}
	for _, key := range []string{"SOLVER_TIMEOUT", "SOLVER_NODE_LIMIT", "LOG_LEVEL", "MARGIN_PERCENT"} {
		if !strings.Contains(buf.String(), "key="+key) {
			t.Fatalf("no warning for %s in %q", key, buf.String())
		}
	}
}

func TestLoadFile_WarnsWithoutToken(t *testing.T) {
	clearEnv(t)

	var buf bytes.Buffer
	LoadFile(filepath.Join(t.TempDir(), "missing.env"), slog.New(slog.NewTextHandler(&buf, nil)))

	if !strings.Contains(buf.String(), "MAESTRO_API_TOKEN is not set") {
		t.Fatalf("missing token warning in %q", buf.String())
	}
}
