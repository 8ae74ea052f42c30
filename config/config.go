// Package config holds the proxy's codec and debug API settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/guileen/shardproxy/errors"
)

// CodecConfig holds settings for the wire codec layer
type CodecConfig struct {
	// Initial capacity of pooled outbound payload buffers
	PayloadBufferInitialSize int

	// Largest packet payload accepted for parsing
	MaxPayloadSize int

	// Upper bound on prepared statements held per registry
	MaxPreparedStatements int
}

// APIConfig holds settings for the debug HTTP API
type APIConfig struct {
	Address         string
	BodyLimit       int64
	ShutdownTimeout time.Duration
}

// ProxyConfig holds configuration for the proxy
type ProxyConfig struct {
	Codec CodecConfig
	API   APIConfig
}

// DefaultProxyConfig returns the default proxy configuration
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		Codec: CodecConfig{
			PayloadBufferInitialSize: 256,
			MaxPayloadSize:           1<<24 - 1,
			MaxPreparedStatements:    16382,
		},
		API: APIConfig{
			Address:         "127.0.0.1:8086",
			BodyLimit:       1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// LoadProxyConfig loads configuration from environment variables
func LoadProxyConfig() ProxyConfig {
	config := DefaultProxyConfig()
	applyEnv(&config)
	return config
}

type fileConfig struct {
	Codec struct {
		PayloadBufferInitialSize int `toml:"payload_buffer_initial_size"`
		MaxPayloadSize           int `toml:"max_payload_size"`
		MaxPreparedStatements    int `toml:"max_prepared_statements"`
	} `toml:"codec"`
	API struct {
		Address         string `toml:"address"`
		BodyLimit       int64  `toml:"body_limit"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"api"`
}

// LoadProxyConfigFile loads configuration from a TOML file. Environment
// variables override values from the file.
func LoadProxyConfigFile(path string) (ProxyConfig, error) {
	config := DefaultProxyConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ProxyConfig{}, errors.Wrapf(err, errors.ErrCodeValidation, "LoadProxyConfigFile", "load config %s: %v", path, err)
	}

	if meta.IsDefined("codec", "payload_buffer_initial_size") {
		config.Codec.PayloadBufferInitialSize = raw.Codec.PayloadBufferInitialSize
	}
	if meta.IsDefined("codec", "max_payload_size") {
		config.Codec.MaxPayloadSize = raw.Codec.MaxPayloadSize
	}
	if meta.IsDefined("codec", "max_prepared_statements") {
		config.Codec.MaxPreparedStatements = raw.Codec.MaxPreparedStatements
	}
	if meta.IsDefined("api", "address") {
		config.API.Address = strings.TrimSpace(raw.API.Address)
	}
	if meta.IsDefined("api", "body_limit") {
		config.API.BodyLimit = raw.API.BodyLimit
	}
	if meta.IsDefined("api", "shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.API.ShutdownTimeout))
		if err != nil {
			return ProxyConfig{}, errors.Wrapf(err, errors.ErrCodeValidation, "LoadProxyConfigFile", "parse api.shutdown_timeout: %v", err)
		}
		config.API.ShutdownTimeout = d
	}

	applyEnv(&config)
	if err := config.Validate(); err != nil {
		return ProxyConfig{}, err
	}
	return config, nil
}

// Validate reports the first setting that cannot be used
func (c ProxyConfig) Validate() error {
	const op = "Validate"
	switch {
	case c.Codec.PayloadBufferInitialSize <= 0:
		return errors.NewValidationErrorf(op, "codec.payload_buffer_initial_size must be positive, got %d", c.Codec.PayloadBufferInitialSize)
	case c.Codec.MaxPayloadSize <= 0:
		return errors.NewValidationErrorf(op, "codec.max_payload_size must be positive, got %d", c.Codec.MaxPayloadSize)
	case c.Codec.MaxPreparedStatements < 0:
		return errors.NewValidationErrorf(op, "codec.max_prepared_statements must not be negative, got %d", c.Codec.MaxPreparedStatements)
	case c.API.Address == "":
		return errors.NewValidationErrorf(op, "api.address must not be empty")
	case c.API.BodyLimit <= 0:
		return errors.NewValidationErrorf(op, "api.body_limit must be positive, got %d", c.API.BodyLimit)
	case c.API.ShutdownTimeout <= 0:
		return errors.NewValidationErrorf(op, "api.shutdown_timeout must be positive, got %s", c.API.ShutdownTimeout)
	}
	return nil
}

func applyEnv(config *ProxyConfig) {
	// Load codec settings
	if sizeStr := os.Getenv("SHARDPROXY_PAYLOAD_BUFFER_INITIAL_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			config.Codec.PayloadBufferInitialSize = size
		}
	}

	if sizeStr := os.Getenv("SHARDPROXY_MAX_PAYLOAD_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			config.Codec.MaxPayloadSize = size
		}
	}

	if countStr := os.Getenv("SHARDPROXY_MAX_PREPARED_STATEMENTS"); countStr != "" {
		if count, err := strconv.Atoi(countStr); err == nil && count >= 0 {
			config.Codec.MaxPreparedStatements = count
		}
	}

	// Load debug API settings
	if addr := os.Getenv("SHARDPROXY_API_ADDRESS"); addr != "" {
		config.API.Address = addr
	}

	if limitStr := os.Getenv("SHARDPROXY_API_BODY_LIMIT"); limitStr != "" {
		if limit, err := strconv.ParseInt(limitStr, 10, 64); err == nil && limit > 0 {
			config.API.BodyLimit = limit
		}
	}

	if timeoutStr := os.Getenv("SHARDPROXY_API_SHUTDOWN_TIMEOUT_MS"); timeoutStr != "" {
		if ms, err := strconv.ParseInt(timeoutStr, 10, 64); err == nil && ms > 0 {
			config.API.ShutdownTimeout = time.Duration(ms) * time.Millisecond
		}
	}
}
