package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, ShutdownTimeout: 5 * time.Second},
		LDAP: LDAPConfig{
			URL:      "ldap://localhost:389",
			BindDN:   "cn=admin,dc=example,dc=org",
			Password: "admin",
			BaseDN:   "dc=example,dc=org",
		},
		Nextcloud: NextcloudConfig{URL: "http://localhost:8081", User: "admin", Password: "secret"},
		Auth:      AuthConfig{ResetSecret: "reset-secret", ResetExpiry: time.Hour},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedError string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:          "missing server port",
			mutate:        func(c *Config) { c.Server.Port = 0 },
			expectedError: "server.port is required",
		},
		{
			name:          "missing ldap url",
			mutate:        func(c *Config) { c.LDAP.URL = "" },
			expectedError: "ldap connection settings are required",
		},
		{
			name:          "missing ldap base dn",
			mutate:        func(c *Config) { c.LDAP.BaseDN = "" },
			expectedError: "ldap connection settings are required",
		},
		{
			name:          "missing ldap bind dn",
			mutate:        func(c *Config) { c.LDAP.BindDN = "" },
			expectedError: "ldap credentials are required",
		},
		{
			name:          "missing ldap password",
			mutate:        func(c *Config) { c.LDAP.Password = "" },
			expectedError: "ldap credentials are required",
		},
		{
			name:          "missing nextcloud url",
			mutate:        func(c *Config) { c.Nextcloud.URL = "" },
			expectedError: "nextcloud.url is required",
		},
		{
			name:          "missing reset secret",
			mutate:        func(c *Config) { c.Auth.ResetSecret = "" },
			expectedError: "auth.reset_secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
}
