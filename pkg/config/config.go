package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	ServiceToken ServiceTokenConfig
	CORS         CORSConfig
	Log          LogConfig
	Scheduler    SchedulerConfig
	SchedulerGA  SchedulerGAConfig
	Export       ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServiceTokenConfig guards the GA-run endpoints with HS256-signed bearer
// JWTs that expire after Expiration and carry only a subject, no per-user
// claims — there is no login flow left in this API.
type ServiceTokenConfig struct {
	Secret     string
	Expiration time.Duration
	BcryptCost int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig toggles the constraint-based single-class schedule generator.
type SchedulerConfig struct {
	Enabled     bool
	ProposalTTL time.Duration
}

// SchedulerGAConfig holds the genetic-algorithm settings loaded from the
// environment. Only SnapshotDir is read by the server (where snapshots land);
// ParallelWorkers, ChangeInterval, SnapshotBackend and the domain-constant
// fields are loaded but not read elsewhere: the population is evaluated
// sequentially, the change interval comes with each request, and
// internal/ga reads the domain constants from the environment itself.
type SchedulerGAConfig struct {
	ParallelWorkers   int
	ChangeInterval    int
	SnapshotDir       string
	SnapshotBackend   string // "file" or "redis"
	DaysPerWeek       int
	ClassesPerDay     int
	MaxClassesPerDay  int
}

// ExportConfig controls where rendered GA-result files land and how long
// their signed download links stay valid.
type ExportConfig struct {
	Dir             string
	ResultTTL       time.Duration
	SignerSecret    string
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.ServiceToken = ServiceTokenConfig{
		Secret:     v.GetString("SERVICE_TOKEN_SECRET"),
		Expiration: parseDuration(v.GetString("SERVICE_TOKEN_EXPIRATION"), 24*time.Hour),
		BcryptCost: v.GetInt("SERVICE_TOKEN_BCRYPT_COST"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:     v.GetBool("ENABLE_SCHEDULER"),
		ProposalTTL: parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
	}

	cfg.SchedulerGA = SchedulerGAConfig{
		ParallelWorkers:  v.GetInt("SCHEDULER_GA_PARALLEL_WORKERS"),
		ChangeInterval:   v.GetInt("SCHEDULER_GA_CHANGE_INTERVAL"),
		SnapshotDir:      v.GetString("SCHEDULER_GA_SNAPSHOT_DIR"),
		SnapshotBackend:  v.GetString("SCHEDULER_GA_SNAPSHOT_BACKEND"),
		DaysPerWeek:      v.GetInt("SCHEDULER_GA_DAYS_PER_WEEK"),
		ClassesPerDay:    v.GetInt("SCHEDULER_GA_CLASSES_PER_DAY"),
		MaxClassesPerDay: v.GetInt("SCHEDULER_GA_MAX_CLASSES_PER_DAY"),
	}

	cfg.Export = ExportConfig{
		Dir:             v.GetString("EXPORT_DIR"),
		ResultTTL:       parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		SignerSecret:    v.GetString("EXPORT_SIGNER_SECRET"),
		CleanupInterval: parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable_ga")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SERVICE_TOKEN_SECRET", "dev_secret")
	v.SetDefault("SERVICE_TOKEN_EXPIRATION", "24h")
	v.SetDefault("SERVICE_TOKEN_BCRYPT_COST", 10)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", false)
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")

	v.SetDefault("SCHEDULER_GA_PARALLEL_WORKERS", 0)
	v.SetDefault("SCHEDULER_GA_CHANGE_INTERVAL", 10)
	v.SetDefault("SCHEDULER_GA_SNAPSHOT_DIR", "./scheduler_runs")
	v.SetDefault("SCHEDULER_GA_SNAPSHOT_BACKEND", "file")
	v.SetDefault("SCHEDULER_GA_DAYS_PER_WEEK", 6)
	v.SetDefault("SCHEDULER_GA_CLASSES_PER_DAY", 7)
	v.SetDefault("SCHEDULER_GA_MAX_CLASSES_PER_DAY", 4)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
	v.SetDefault("EXPORT_SIGNER_SECRET", "dev_export_secret")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
