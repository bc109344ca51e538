package udpsender

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPort is the collector port used when none is configured
const DefaultPort = 12999

// ErrConfigInvalid is returned (wrapped) when a required configuration value is missing or invalid
var ErrConfigInvalid = errors.New("invalid configuration")

// Config defines configuration for the UDP output, which writes projected log fields to the target address via UDP
type Config struct {
	Host      string `yaml:"host"`      // collector hostname or IP
	Port      int    `yaml:"port"`      // collector port
	Params    string `yaml:"params"`    // comma-separated field names, in output column order
	Separator string `yaml:"separator"` // inserted between field values, may be empty
}

// DefaultConfig returns a Config with optional values pre-filled, to be overridden by unmarshalling
func DefaultConfig() Config {
	return Config{
		Port: DefaultPort,
	}
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	if len(strings.TrimSpace(cfg.Host)) == 0 {
		return fmt.Errorf("%w: .host is unspecified", ErrConfigInvalid)
	}
	if cfg.Port == 0 {
		return fmt.Errorf("%w: .port is unspecified", ErrConfigInvalid)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: .port %d is out of range", ErrConfigInvalid, cfg.Port)
	}
	if len(cfg.Params) == 0 {
		return fmt.Errorf("%w: .params is unspecified", ErrConfigInvalid)
	}
	return nil
}

func (cfg Config) String() string {
	return fmt.Sprintf("udp://%s:%d params=%q separator=%q", cfg.Host, cfg.Port, cfg.Params, cfg.Separator)
}
