// Package config loads the broker's optional TOML configuration file,
// grounded on the teacher's per-service Config{...}/NewConfig()
// convention (services/kafka/config.go, services/logging/config.go).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// defaultConfigFile is the file name looked up in the current working
// directory when LOGSTREAMERD_CONFIG is not set.
const defaultConfigFile = "logstreamerd.conf"

// envConfigPath overrides the default config file lookup.
const envConfigPath = "LOGSTREAMERD_CONFIG"

// BrokerConfig holds every setting the broker process accepts outside
// of its single positional listen-address argument. All of it is
// optional: a broker with no config file at all runs as a one-node
// cluster with default logging.
type BrokerConfig struct {
	// Brokers lists every broker's address in a multi-broker
	// deployment, self included, ordered by broker id. When set, the
	// broker initializes itself as controller at startup. Empty means
	// it does not; it can still join a cluster when a controller sends
	// it InitializeBroker.
	Brokers []string `toml:"brokers"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `toml:"log-level"`
	// LogEncoding is "json" or "logfmt" (zap's "console" encoder).
	LogEncoding string `toml:"log-encoding"`

	// MetricsAddress, if non-empty, is the address the Prometheus
	// exporter listens on. Empty disables the exporter entirely.
	MetricsAddress string `toml:"metrics-address"`
}

// NewConfig returns the defaults applied when a setting is absent
// from the config file, mirroring services/kafka.NewConfig's shape.
func NewConfig() BrokerConfig {
	return BrokerConfig{
		LogLevel:       "INFO",
		LogEncoding:    "logfmt",
		MetricsAddress: "",
	}
}

// Load resolves the config file path (LOGSTREAMERD_CONFIG, falling
// back to ./logstreamerd.conf) and decodes it over the defaults. A
// missing file at the default path is not an error: it simply yields
// defaults. A path named explicitly via LOGSTREAMERD_CONFIG that does
// not exist is an error, since the operator asked for it by name.
func Load() (BrokerConfig, error) {
	cfg := NewConfig()

	path := os.Getenv(envConfigPath)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
