package core

import (
	"fmt"
	"strings"
)

const (
	DefaultSecretMinLength = 8
	DefaultSecretMaxLength = 128
)

type SecurityConfig struct {
	// DisableHTTPSCheck is the documented local-development escape hatch:
	// it suppresses the transport-security rejection for non-loopback
	// plaintext requests.
	DisableHTTPSCheck bool `koanf:"disable_https_check" mapstructure:"disable_https_check"`
	SecretMinLength   int  `koanf:"secret_min_length" mapstructure:"secret_min_length"`
	SecretMaxLength   int  `koanf:"secret_max_length" mapstructure:"secret_max_length"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Security    SecurityConfig `koanf:"security" mapstructure:"security"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "receivers",
		Security: SecurityConfig{
			SecretMinLength: DefaultSecretMinLength,
			SecretMaxLength: DefaultSecretMaxLength,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Security.SecretMinLength < 0 || c.Security.SecretMaxLength < 0 {
		return fmt.Errorf("core: secret length bounds must be non-negative")
	}
	if c.Security.SecretMaxLength > 0 && c.Security.SecretMinLength > c.Security.SecretMaxLength {
		return fmt.Errorf(
			"core: secret_min_length %d exceeds secret_max_length %d",
			c.Security.SecretMinLength,
			c.Security.SecretMaxLength,
		)
	}
	return nil
}
