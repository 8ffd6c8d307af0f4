// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration from environment using viper with typed defaults and validation.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, v := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, v)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "debug")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("ldap.url", "ldap://localhost:389")
	v.SetDefault("ldap.base_dn", "dc=example,dc=org")

	v.SetDefault("nextcloud.user", "admin")

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.from", "intranet@cspii.org")

	v.SetDefault("auth.reset_expiry", time.Hour)

	v.SetDefault("divisions.file", "config/divisions.yaml")
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"ldap.url",
		"ldap.bind_dn",
		"ldap.password",
		"ldap.base_dn",
		"nextcloud.url",
		"nextcloud.user",
		"nextcloud.password",
		"smtp.host",
		"smtp.port",
		"smtp.username",
		"smtp.password",
		"smtp.from",
		"auth.reset_secret",
		"auth.reset_expiry",
		"divisions.file",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
