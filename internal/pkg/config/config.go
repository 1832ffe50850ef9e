package config

import (
	"strconv"
	"time"
)

// Config 商品目录服务配置
type Config struct {
	Service  ServiceConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Executor ExecutorConfig
	Logging  LoggingConfig
}

// ServiceConfig 服务标识配置
type ServiceConfig struct {
	Name        string
	Environment string
}

// HTTPConfig HTTP 服务器配置
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// NATSConfig NATS 消息队列配置
type NATSConfig struct {
	URL           string
	Queue         string
	MaxReconnects int
	ReconnectWait time.Duration
}

// ExecutorConfig 异步执行器配置
type ExecutorConfig struct {
	Workers   int
	QueueSize int
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string
	Format string
}

// Load 从环境变量加载配置，环境变量 > 默认值
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        GetEnvOrDefault("SERVICE_NAME", "catalog"),
			Environment: GetEnvOrDefault("ENVIRONMENT", "development"),
		},
		HTTP: HTTPConfig{
			Host:            GetEnvOrDefault("HTTP_HOST", "0.0.0.0"),
			Port:            getEnvInt("HTTP_PORT", 8080),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:             GetDatabaseURL("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		NATS: NATSConfig{
			URL:           GetEnvOrDefault("NATS_URL", "nats://localhost:4222"),
			Queue:         GetEnvOrDefault("NATS_QUEUE", "catalog-workers"),
			MaxReconnects: getEnvInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Executor: ExecutorConfig{
			Workers:   getEnvInt("EXECUTOR_WORKERS", 4),
			QueueSize: getEnvInt("EXECUTOR_QUEUE_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:  GetEnvOrDefault("LOG_LEVEL", "info"),
			Format: GetEnvOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// getEnvInt 获取整型环境变量，解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	raw := GetEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration 获取时长环境变量（如 "30s"、"5m"），解析失败时返回默认值
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := GetEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
