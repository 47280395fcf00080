package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected empty DBURL by default, got %q", cfg.DBURL)
	}
	if !cfg.SolverEnabled || cfg.SolverTimeout != 5*time.Second || cfg.SolverNodeLimit != 20000 {
		t.Fatalf("unexpected solver defaults: enabled=%v timeout=%s nodes=%d", cfg.SolverEnabled, cfg.SolverTimeout, cfg.SolverNodeLimit)
	}
	if cfg.Rules.SquadSize() != 15 || cfg.Rules.ClubCap != 3 || cfg.Rules.Starters != 11 {
		t.Fatalf("unexpected default rules: %s", cfg.Rules)
	}
	if cfg.AvailabilityMinChance != 50 {
		t.Fatalf("unexpected AvailabilityMinChance: %d", cfg.AvailabilityMinChance)
	}
	if len(cfg.AvailabilityExcludedStatus) != 3 {
		t.Fatalf("unexpected AvailabilityExcludedStatus: %v", cfg.AvailabilityExcludedStatus)
	}
	if cfg.BacktestWorkers != 4 {
		t.Fatalf("unexpected BacktestWorkers: %d", cfg.BacktestWorkers)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != time.Minute {
		t.Fatalf("unexpected cache defaults: enabled=%v ttl=%s", cfg.CacheEnabled, cfg.CacheTTL)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-other=1, uptrace-dsn='https://token@api.uptrace.dev?grpc=4317'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERVICE_NAME", "fantasy-autopick-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "fantasy-autopick-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[0] != "https://a.example.com" || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_SolverConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SOLVER_ENABLED", "false")
	t.Setenv("SOLVER_TIMEOUT", "750ms")
	t.Setenv("SOLVER_NODE_LIMIT", "500")
	t.Setenv("SOLVER_JOINT", "true")
	t.Setenv("SOLVER_BENCH_WEIGHT", "0.1")
	t.Setenv("SOLVER_CIRCUIT_FAILURE_COUNT", "5")
	t.Setenv("SOLVER_CIRCUIT_OPEN_TIMEOUT", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SolverEnabled {
		t.Fatalf("expected SolverEnabled=false")
	}
	if cfg.SolverTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected SolverTimeout: %s", cfg.SolverTimeout)
	}
	if cfg.SolverNodeLimit != 500 {
		t.Fatalf("unexpected SolverNodeLimit: %d", cfg.SolverNodeLimit)
	}
	if !cfg.SolverJoint || cfg.SolverBenchWeight != 0.1 {
		t.Fatalf("unexpected joint settings: joint=%v weight=%v", cfg.SolverJoint, cfg.SolverBenchWeight)
	}
	if cfg.SolverCircuitFailureCount != 5 || cfg.SolverCircuitOpenTimeout != time.Minute {
		t.Fatalf("unexpected circuit settings: count=%d timeout=%s", cfg.SolverCircuitFailureCount, cfg.SolverCircuitOpenTimeout)
	}
}

func TestLoad_SolverConfigValidation(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "SOLVER_TIMEOUT", value: "0s"},
		{key: "SOLVER_TIMEOUT", value: "soon"},
		{key: "SOLVER_NODE_LIMIT", value: "0"},
		{key: "SOLVER_BENCH_WEIGHT", value: "1.5"},
		{key: "SOLVER_CIRCUIT_FAILURE_COUNT", value: "0"},
		{key: "SOLVER_ENABLED", value: "maybe"},
		{key: "CACHE_TTL", value: "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_RulesOverride(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SQUAD_QUOTAS", "gk:2, def:4, mid:4, fwd:3")
	t.Setenv("FORMATION_MIN", "GK:1,DEF:3,MID:2,FWD:1")
	t.Setenv("CLUB_CAP", "2")
	t.Setenv("STARTERS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Rules.SquadSize() != 13 {
		t.Fatalf("unexpected squad size: %d", cfg.Rules.SquadSize())
	}
	if cfg.Rules.Quotas[player.PositionDefender] != 4 {
		t.Fatalf("unexpected defender quota: %d", cfg.Rules.Quotas[player.PositionDefender])
	}
	if cfg.Rules.ClubCap != 2 || cfg.Rules.Starters != 10 {
		t.Fatalf("unexpected rules: %s", cfg.Rules)
	}
}

func TestLoad_RulesValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown position", key: "SQUAD_QUOTAS", value: "GK:2,DEF:5,MID:5,WING:3"},
		{name: "missing number", key: "SQUAD_QUOTAS", value: "GK,DEF:5"},
		{name: "duplicate position", key: "FORMATION_MIN", value: "GK:1,GK:1"},
		{name: "negative value", key: "FORMATION_MIN", value: "DEF:-1"},
		{name: "starters above squad", key: "STARTERS", value: "16"},
		{name: "zero club cap", key: "CLUB_CAP", value: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_AvailabilityConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("AVAILABILITY_MIN_CHANCE", "75")
	t.Setenv("AVAILABILITY_EXCLUDED_STATUSES", "I, S")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AvailabilityMinChance != 75 {
		t.Fatalf("unexpected AvailabilityMinChance: %d", cfg.AvailabilityMinChance)
	}
	if len(cfg.AvailabilityExcludedStatus) != 2 || cfg.AvailabilityExcludedStatus[0] != "i" || cfg.AvailabilityExcludedStatus[1] != "s" {
		t.Fatalf("unexpected AvailabilityExcludedStatus: %v", cfg.AvailabilityExcludedStatus)
	}

	t.Setenv("AVAILABILITY_MIN_CHANCE", "101")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for AVAILABILITY_MIN_CHANCE=101")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		" WARN ":  logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"verbose": logging.LevelInfo,
		"":        logging.LevelInfo,
	}
	for raw, want := range tests {
		if got := parseLogLevel(raw); got != want {
			t.Fatalf("parseLogLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}
