package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Backend  BackendConfig  `yaml:"backend"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Basket   BasketConfig   `yaml:"basket"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// BackendConfig points at the remote sales/returns service.
type BackendConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultsConfig seeds console settings that have not been stored yet.
type DefaultsConfig struct {
	Currency            string `yaml:"currency"`
	IVA                 string `yaml:"iva"`
	StockAlertThreshold int    `yaml:"stockAlertThreshold"`
}

// BasketConfig controls how long an untouched basket session is kept.
type BasketConfig struct {
	MaxIdle       time.Duration `yaml:"maxIdle"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "milsabores")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "milsabores")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_SETTINGS_CHANNEL", "milsabores:settings")
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_CURRENCY", "CLP")
	v.SetDefault("DEFAULT_IVA", "0.19")
	v.SetDefault("DEFAULT_STOCK_ALERT_THRESHOLD", 5)
	v.SetDefault("BASKET_MAX_IDLE", "8h")
	v.SetDefault("BASKET_SWEEP_INTERVAL", "10m")

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}

	backendTimeout, err := time.ParseDuration(v.GetString("BACKEND_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	basketMaxIdle, err := time.ParseDuration(v.GetString("BASKET_MAX_IDLE"))
	if err != nil {
		return nil, err
	}

	basketSweepInterval, err := time.ParseDuration(v.GetString("BASKET_SWEEP_INTERVAL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_SETTINGS_CHANNEL"),
		},
		Backend: BackendConfig{
			BaseURL: v.GetString("BACKEND_BASE_URL"),
			Timeout: backendTimeout,
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Defaults: DefaultsConfig{
			Currency:            v.GetString("DEFAULT_CURRENCY"),
			IVA:                 v.GetString("DEFAULT_IVA"),
			StockAlertThreshold: v.GetInt("DEFAULT_STOCK_ALERT_THRESHOLD"),
		},
		Basket: BasketConfig{
			MaxIdle:       basketMaxIdle,
			SweepInterval: basketSweepInterval,
		},
	}

	return cfg, nil
}
