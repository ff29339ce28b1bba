// Ininicializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EVENTHIVE"

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Server    ServerConfig    `mapstructure:"server"`
}

// APIConfig describes the remote event/booking API.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Retries        int           `mapstructure:"retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// StoreConfig selects where the session token and profile are persisted.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"` // memory | redis | postgres
	Namespace string `mapstructure:"namespace"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type DatabaseConfig struct {
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

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

// ReconcileConfig drives the background refresh that bounds optimistic staleness.
type ReconcileConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// ServerConfig is used by the sandbox API only.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	BasePath      string        `mapstructure:"base_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	Mode          string        `mapstructure:"mode"`
	PageSize      int           `mapstructure:"page_size"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	SeedEvents    bool          `mapstructure:"seed_events"`
}

func LoadConfig() (*viper.Viper, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads an explicit file, or ./config/config.yaml when path is
// empty. A missing default file is not an error: defaults and environment
// variables still apply.
func LoadConfigFrom(path string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if path != "" {
		viperInstance.SetConfigFile(path)
		if err := viperInstance.ReadInConfig(); err != nil {
			return nil, err
		}
		return viperInstance, nil
	}

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	if err := viperInstance.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/eventhive/api/")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retries", 2)
	v.SetDefault("api.retry_base_delay", 200*time.Millisecond)
	v.SetDefault("api.user_agent", "eventhive-go/1.0")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.namespace", "eventhive")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eventhive")
	v.SetDefault("database.dbname", "eventhive")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.interval", time.Minute)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_path", "/eventhive/api")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.page_size", 5)
	v.SetDefault("server.jwt_secret", "eventhive-sandbox-secret")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.admin_email", "admin@example.com")
	v.SetDefault("server.admin_password", "password")
	v.SetDefault("server.seed_events", true)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
