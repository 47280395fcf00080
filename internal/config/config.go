package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	CORSAllowedOrigins         []string
	SwaggerEnabled             bool
	DBURL                      string
	DBBinaryParameters         bool
	CacheEnabled               bool
	CacheTTL                   time.Duration
	SolverEnabled              bool
	SolverTimeout              time.Duration
	SolverNodeLimit            int
	SolverJoint                bool
	SolverBenchWeight          float64
	SolverCircuitEnabled       bool
	SolverCircuitFailureCount  int
	SolverCircuitOpenTimeout   time.Duration
	Rules                      selection.Rules
	AvailabilityMinChance      int
	AvailabilityExcludedStatus []string
	BacktestWorkers            int
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	dbBinaryParameters, err := strconv.ParseBool(getEnv("DB_BINARY_PARAMETERS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_BINARY_PARAMETERS: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	solver, err := loadSolver()
	if err != nil {
		return Config{}, err
	}

	rules, err := loadRules()
	if err != nil {
		return Config{}, err
	}

	minChance, err := getEnvAsInt("AVAILABILITY_MIN_CHANCE", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse AVAILABILITY_MIN_CHANCE: %w", err)
	}
	if minChance < 0 || minChance > 100 {
		return Config{}, fmt.Errorf("AVAILABILITY_MIN_CHANCE must be between 0 and 100")
	}

	backtestWorkers, err := getEnvAsInt("BACKTEST_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKTEST_WORKERS: %w", err)
	}
	if backtestWorkers < 1 {
		return Config{}, fmt.Errorf("BACKTEST_WORKERS must be >= 1")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("SERVICE_NAME", "fantasy-autopick-api"),
		ServiceVersion:             getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:             swaggerEnabled,
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		DBBinaryParameters:         dbBinaryParameters,
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		SolverEnabled:              solver.enabled,
		SolverTimeout:              solver.timeout,
		SolverNodeLimit:            solver.nodeLimit,
		SolverJoint:                solver.joint,
		SolverBenchWeight:          solver.benchWeight,
		SolverCircuitEnabled:       solver.circuitEnabled,
		SolverCircuitFailureCount:  solver.circuitFailureCount,
		SolverCircuitOpenTimeout:   solver.circuitOpenTimeout,
		Rules:                      rules,
		AvailabilityMinChance:      minChance,
		AvailabilityExcludedStatus: splitCSV(strings.ToLower(getEnv("AVAILABILITY_EXCLUDED_STATUSES", "i,s,u"))),
		BacktestWorkers:            backtestWorkers,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

type solverConfig struct {
	enabled             bool
	timeout             time.Duration
	nodeLimit           int
	joint               bool
	benchWeight         float64
	circuitEnabled      bool
	circuitFailureCount int
	circuitOpenTimeout  time.Duration
}

func loadSolver() (solverConfig, error) {
	var out solverConfig
	var err error

	if out.enabled, err = strconv.ParseBool(getEnv("SOLVER_ENABLED", "true")); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_ENABLED: %w", err)
	}
	if out.timeout, err = time.ParseDuration(getEnv("SOLVER_TIMEOUT", "5s")); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_TIMEOUT: %w", err)
	}
	if out.timeout <= 0 {
		return solverConfig{}, fmt.Errorf("SOLVER_TIMEOUT must be > 0")
	}
	if out.nodeLimit, err = getEnvAsInt("SOLVER_NODE_LIMIT", 20000); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_NODE_LIMIT: %w", err)
	}
	if out.nodeLimit < 1 {
		return solverConfig{}, fmt.Errorf("SOLVER_NODE_LIMIT must be >= 1")
	}
	if out.joint, err = strconv.ParseBool(getEnv("SOLVER_JOINT", "false")); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_JOINT: %w", err)
	}
	if out.benchWeight, err = strconv.ParseFloat(getEnv("SOLVER_BENCH_WEIGHT", "0"), 64); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_BENCH_WEIGHT: %w", err)
	}
	if out.benchWeight < 0 || out.benchWeight > 1 {
		return solverConfig{}, fmt.Errorf("SOLVER_BENCH_WEIGHT must be between 0 and 1")
	}
	if out.circuitEnabled, err = strconv.ParseBool(getEnv("SOLVER_CIRCUIT_ENABLED", "true")); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_CIRCUIT_ENABLED: %w", err)
	}
	if out.circuitFailureCount, err = getEnvAsInt("SOLVER_CIRCUIT_FAILURE_COUNT", 3); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if out.circuitFailureCount < 1 {
		return solverConfig{}, fmt.Errorf("SOLVER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if out.circuitOpenTimeout, err = time.ParseDuration(getEnv("SOLVER_CIRCUIT_OPEN_TIMEOUT", "30s")); err != nil {
		return solverConfig{}, fmt.Errorf("parse SOLVER_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if out.circuitOpenTimeout <= 0 {
		return solverConfig{}, fmt.Errorf("SOLVER_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	return out, nil
}

// loadRules overlays env overrides on the default selection rules and
// rejects combinations that cannot produce a lineup.
func loadRules() (selection.Rules, error) {
	rules := selection.DefaultRules()

	if raw := strings.TrimSpace(os.Getenv("SQUAD_QUOTAS")); raw != "" {
		quotas, err := parsePositionMap(raw)
		if err != nil {
			return selection.Rules{}, fmt.Errorf("parse SQUAD_QUOTAS: %w", err)
		}
		rules.Quotas = quotas
	}
	if raw := strings.TrimSpace(os.Getenv("FORMATION_MIN")); raw != "" {
		mins, err := parsePositionMap(raw)
		if err != nil {
			return selection.Rules{}, fmt.Errorf("parse FORMATION_MIN: %w", err)
		}
		rules.FormationMin = mins
	}

	clubCap, err := getEnvAsInt("CLUB_CAP", rules.ClubCap)
	if err != nil {
		return selection.Rules{}, fmt.Errorf("parse CLUB_CAP: %w", err)
	}
	starters, err := getEnvAsInt("STARTERS", rules.Starters)
	if err != nil {
		return selection.Rules{}, fmt.Errorf("parse STARTERS: %w", err)
	}
	rules.ClubCap = clubCap
	rules.Starters = starters

	if err := rules.Validate(); err != nil {
		return selection.Rules{}, err
	}
	return rules, nil
}

// parsePositionMap reads "GK:2,DEF:5,MID:5,FWD:3".
func parsePositionMap(raw string) (map[player.Position]int, error) {
	out := make(map[player.Position]int)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected position:number", item)
		}

		pos, err := player.ParsePosition(segments[0])
		if err != nil {
			return nil, err
		}
		value, err := strconv.Atoi(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid number in item %q: %w", item, err)
		}
		if value < 0 {
			return nil, fmt.Errorf("value must be >= 0 in item %q", item)
		}
		if _, dup := out[pos]; dup {
			return nil, fmt.Errorf("position %s listed twice", pos)
		}

		out[pos] = value
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
