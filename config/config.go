package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Content   ContentConfig   `mapstructure:"content"`
	Rooms     RoomsConfig     `mapstructure:"rooms"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	ClientOrigin   string `mapstructure:"client_origin"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	// Driver picks the store implementation: "gorm" or "pq".
	Driver string `mapstructure:"driver"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	HePassword  string        `mapstructure:"he_password"`
	ShePassword string        `mapstructure:"she_password"`
	CookieName  string        `mapstructure:"cookie_name"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Secure      bool          `mapstructure:"secure"`
}

type ContentConfig struct {
	// URL of the external riddle API. Empty means the embedded pool is used.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RoomsConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type RateLimitConfig struct {
	APIPerSecond  float64 `mapstructure:"api_per_second"`
	APIBurst      int     `mapstructure:"api_burst"`
	AuthPerMinute float64 `mapstructure:"auth_per_minute"`
	AuthBurst     int     `mapstructure:"auth_burst"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PAIRPLAY")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":5000")
	viper.SetDefault("server.rpc_address", ":5001")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.client_origin", "http://localhost:5173")

	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.user", "pairplay")
	viper.SetDefault("database.postgres.dbname", "pairplay")
	viper.SetDefault("database.postgres.driver", "gorm")

	viper.SetDefault("auth.jwt_secret", "supersecretkey")
	viper.SetDefault("auth.cookie_name", "session")
	viper.SetDefault("auth.token_ttl", 7*24*time.Hour)

	viper.SetDefault("content.timeout", 5*time.Second)

	viper.SetDefault("rooms.idle_timeout", 60*time.Minute)
	viper.SetDefault("rooms.sweep_interval", 5*time.Minute)

	viper.SetDefault("rate_limit.api_per_second", 4.0)
	viper.SetDefault("rate_limit.api_burst", 20)
	viper.SetDefault("rate_limit.auth_per_minute", 2.0)
	viper.SetDefault("rate_limit.auth_burst", 5)
}
