package tymws

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config carries the immutable server configuration. Build one by hand or
// through LoadConfig; either way NewServer validates it before use.
//
// Origins is the one mutable part: AddOrigin appends to it. An empty origin
// set accepts any origin.
type Config struct {
	// Addr is the address the transport binds to, dotted-quad IPv4.
	Addr string `mapstructure:"addr"`
	// Port is the port the transport binds to. This server is meant to sit
	// in the privileged range: anything in 1023-65535 is refused.
	Port int `mapstructure:"port"`
	// Hostname is matched against the Host header of every handshake. It is
	// treated as a regexp pattern, not compared literally.
	Hostname string `mapstructure:"hostname"`
	// Services are the request paths handshakes may target.
	Services []string `mapstructure:"services"`
	// Origins is the allowed-origin set. Empty means any origin is accepted.
	Origins []string `mapstructure:"origins"`
}

// Validate checks every field and returns a *ConfigError on the first
// violation.
func (c *Config) Validate() error {
	ip := net.ParseIP(c.Addr)
	if ip == nil || ip.To4() == nil || !strings.Contains(c.Addr, ".") {
		return configErr("addr", errInvalidBindAddr)
	}
	if c.Port <= 0 || c.Port >= 1023 {
		return configErr("port", errInvalidPort)
	}
	if c.Hostname == "" {
		return configErr("hostname", errEmptyHostname)
	}
	if len(c.Services) == 0 {
		return configErr("services", errNoServices)
	}

	return nil
}

// AddOrigin appends url to the allowed-origin set. The argument must be a
// syntactically well-formed absolute URL; duplicates are kept as-is.
func (c *Config) AddOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Wrapf(ErrInvalidOrigin, "%q", raw)
	}
	c.Origins = append(c.Origins, raw)

	return nil
}

// LoadConfig unmarshals and validates the Config stored under key in the
// application configuration viper already read.
func LoadConfig(key string) (*Config, error) {
	var cfg Config
	if err := viper.UnmarshalKey(key, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to load config by key %q", key)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
