package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the device management API.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	API struct {
		// StrictNoContent answers unknown device type lookups with 404 and a
		// JSON error instead of 204.
		StrictNoContent bool `mapstructure:"strict_no_content"`
	} `mapstructure:"api"`
	StoreAPI struct {
		BaseURL        string        `mapstructure:"base_url"`
		Token          string        `mapstructure:"token"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"store_api"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Log struct {
		Level  string `mapstructure:"level"`
		Output string `mapstructure:"output"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
	Auth struct {
		Enabled   bool          `mapstructure:"enabled"`
		Username  string        `mapstructure:"username"`
		Password  string        `mapstructure:"password"`
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
}

// Load reads the configuration from disk/environment using Viper.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("devicemgt")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, env + defaults still apply
		if !isNotFound(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// SetConfigFile bypasses the search path, so a missing file surfaces as a
	// plain fs error.
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":9443")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("api.strict_no_content", false)

	v.SetDefault("store_api.base_url", "http://127.0.0.1:9763/api/am/store/v0.11")
	v.SetDefault("store_api.token", "")
	v.SetDefault("store_api.request_timeout", "10s")

	v.SetDefault("storage.path", "./data/devicemgt.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.pretty", false)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin")
	v.SetDefault("auth.jwt_secret", "change-me-secret")
	v.SetDefault("auth.token_ttl", "12h")
}
