package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Database struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Auth struct {
	Header        string `mapstructure:"header"`
	DBConcurrency int64  `mapstructure:"db_concurrency"`
}

type Quota struct {
	Timezone string         `mapstructure:"timezone"`
	Keys     []string       `mapstructure:"keys"`
	Caps     map[string]int `mapstructure:"caps"`
	Default  int            `mapstructure:"default"`
}

type Vin struct {
	MatchThreshold  int    `mapstructure:"match_threshold"`
	ScanLimit       int    `mapstructure:"scan_limit"`
	DBConcurrency   int64  `mapstructure:"db_concurrency"`
	FallbackEnabled bool   `mapstructure:"fallback_enabled"`
	FallbackURL     string `mapstructure:"fallback_url"`
	FallbackTimeout int    `mapstructure:"fallback_timeout"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Database Database `mapstructure:"database"`
	Redis    Redis    `mapstructure:"redis"`
	Auth     Auth     `mapstructure:"auth"`
	Quota    Quota    `mapstructure:"quota"`
	Vin      Vin      `mapstructure:"vin"`
}

var AppConfig Config

func Load(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("data")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(APP_NAME)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Infof("Config file not found, creating default config")
			if err := os.MkdirAll("data", 0755); err != nil {
				log.Errorf("Failed to create data directory: %v", err)
			}
			if err := viper.SafeWriteConfigAs("data/config.json"); err != nil {
				log.Errorf("Failed to create default config: %v", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.path", "data/data.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("redis.addr", "127.0.0.1:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("auth.header", "x-api-key")
	viper.SetDefault("auth.db_concurrency", 5)
	viper.SetDefault("quota.timezone", "Asia/Riyadh")
	viper.SetDefault("quota.keys", []string{})
	viper.SetDefault("quota.default", 1000)
	viper.SetDefault("vin.match_threshold", 10)
	viper.SetDefault("vin.scan_limit", 1000)
	viper.SetDefault("vin.db_concurrency", 10)
	viper.SetDefault("vin.fallback_enabled", false)
	viper.SetDefault("vin.fallback_url", "")
	viper.SetDefault("vin.fallback_timeout", 5)
}
