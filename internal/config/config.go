package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Judge    JudgeConfig
	Logging  LoggingConfig
	Worker   WorkerConfig
}

type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	GRPCPort string
	HTTPPort string
}

// ExecutionMode selects how accepted jobs reach the execution engine.
type ExecutionMode string

const (
	ExecutionModeLocal ExecutionMode = "local"
	ExecutionModeRedis ExecutionMode = "redis"
)

type JudgeConfig struct {
	CatalogPath   string
	ExecutionMode ExecutionMode
	FlushData     bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

type WorkerConfig struct {
	MaxWorkers               int
	HeartbeatIntervalSeconds int
	JobTimeoutSeconds        int
	WorkDir                  string
	CompileTimeoutSeconds    int
	ServerGRPCAddr           string
}

func LoadConfig() *Config {
	config, _ := Load()
	return config
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "judge.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "judge"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "judge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			GRPCPort: getEnv("GRPC_PORT", "50051"),
			HTTPPort: getEnv("HTTP_PORT", "12345"),
		},
		Judge: JudgeConfig{
			CatalogPath:   getEnv("CATALOG_PATH", "catalog.json"),
			ExecutionMode: ExecutionMode(strings.ToLower(getEnv("EXECUTION_MODE", string(ExecutionModeLocal)))),
			FlushData:     getEnvAsBool("FLUSH_DATA", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Worker: WorkerConfig{
			MaxWorkers:               getEnvAsInt("MAX_WORKERS", 3),
			HeartbeatIntervalSeconds: getEnvAsInt("WORKER_HEARTBEAT_INTERVAL", 15),
			JobTimeoutSeconds:        getEnvAsInt("WORKER_JOB_TIMEOUT", 300),
			WorkDir:                  getEnv("WORKER_WORK_DIR", "/tmp/judge-execution"),
			CompileTimeoutSeconds:    getEnvAsInt("WORKER_COMPILE_TIMEOUT", 30),
			ServerGRPCAddr:           getEnv("JUDGE_SERVER_GRPC_ADDR", "localhost:50051"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
