package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LDAP      LDAPConfig      `mapstructure:"ldap"`
	Nextcloud NextcloudConfig `mapstructure:"nextcloud"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Divisions DivisionsConfig `mapstructure:"divisions"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.LDAP.URL == "" || c.LDAP.BaseDN == "" {
		return errors.New("ldap connection settings are required")
	}
	if c.LDAP.BindDN == "" || c.LDAP.Password == "" {
		return errors.New("ldap credentials are required")
	}
	if c.Nextcloud.URL == "" {
		return errors.New("nextcloud.url is required")
	}
	if c.Auth.ResetSecret == "" {
		return errors.New("auth.reset_secret is required")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LDAPConfig describes the directory server connection.
type LDAPConfig struct {
	URL      string `mapstructure:"url"`
	BindDN   string `mapstructure:"bind_dn"`
	Password string `mapstructure:"password"`
	BaseDN   string `mapstructure:"base_dn"`
}

// NextcloudConfig describes the groupware API endpoint.
type NextcloudConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AuthConfig contains password reset token settings.
type AuthConfig struct {
	ResetSecret string        `mapstructure:"reset_secret"`
	ResetExpiry time.Duration `mapstructure:"reset_expiry"`
}

// DivisionsConfig points at the division roster file.
type DivisionsConfig struct {
	File string `mapstructure:"file"`
}
