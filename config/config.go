// Ininicializing common application configuration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFromEnv      = "env"
	BackendFromDocument = "document"

	PreviewStoreMemory = "memory"
	PreviewStoreRedis  = "redis"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

// AppConfig describes where the analysis backend lives and how uploads reach it.
type AppConfig struct {
	BackendStrategy string        `mapstructure:"backend_strategy"`
	BackendEnvKey   string        `mapstructure:"backend_env_key"`
	BackendDocument string        `mapstructure:"backend_document_url"`
	BackendPort     int           `mapstructure:"backend_port"`
	UploadPath      string        `mapstructure:"upload_path"`
	ClientTimeout   time.Duration `mapstructure:"client_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	UploadRate      float64       `mapstructure:"upload_rate"`
	UploadBurst     int           `mapstructure:"upload_burst"`
	ConfigDocument  string        `mapstructure:"config_document"`
	ViewTTL         time.Duration `mapstructure:"view_ttl"`
	HistoryDir      string        `mapstructure:"history_dir"`
}

type PreviewConfig struct {
	Store     string        `mapstructure:"store"`
	TTL       time.Duration `mapstructure:"ttl"`
	MaxWidth  int           `mapstructure:"max_width"`
	MaxHeight int           `mapstructure:"max_height"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// LoadConfigFrom reads config.yaml from dir on top of the defaults.
func LoadConfigFrom(dir string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath(dir)
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	switch c.App.BackendStrategy {
	case BackendFromEnv, BackendFromDocument:
	default:
		return nil, fmt.Errorf("unknown backend strategy %q", c.App.BackendStrategy)
	}

	switch c.Preview.Store {
	case PreviewStoreMemory, PreviewStoreRedis:
	default:
		return nil, fmt.Errorf("unknown preview store %q", c.Preview.Store)
	}

	return &c, nil
}

// Default returns the configuration used when no file overrides anything.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg, err := ParseConfig(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// KafkaBrokers splits the comma separated broker list.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// App defaults
	v.SetDefault("app.backend_strategy", BackendFromEnv)
	v.SetDefault("app.backend_env_key", "SKYSIGHT_BACKEND_HOST")
	v.SetDefault("app.backend_document_url", "http://localhost:8080/config.json")
	v.SetDefault("app.backend_port", 5000)
	v.SetDefault("app.upload_path", "/upload_and_analyze")
	v.SetDefault("app.client_timeout", 60*time.Second)
	v.SetDefault("app.max_upload_bytes", 10<<20)
	v.SetDefault("app.upload_rate", 5.0)
	v.SetDefault("app.upload_burst", 10)
	v.SetDefault("app.config_document", "./config/backend.json")
	v.SetDefault("app.view_ttl", 30*time.Minute)
	v.SetDefault("app.history_dir", "./storage")

	// Preview defaults
	v.SetDefault("preview.store", PreviewStoreMemory)
	v.SetDefault("preview.ttl", 30*time.Minute)
	v.SetDefault("preview.max_width", 800)
	v.SetDefault("preview.max_height", 600)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skysight")
	v.SetDefault("database.dbname", "skysight")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "image-analysis")
	v.SetDefault("kafka.group_id", "skysight-events")

	// Log defaults
	v.SetDefault("log.file", "app.log")
	v.SetDefault("log.level", "info")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
