package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"gopkg.in/yaml.v3"
)

// DefaultShutdownTimeout bounds how long in-flight requests may take to finish
// once the server is asked to stop.
const DefaultShutdownTimeout = 10 * time.Second

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxBodySize     string               `yaml:"maxBodySize"`
	Mode            string               `yaml:"mode"` // debug, release, test
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout"`
	Logging         config.LoggingConfig `yaml:"logging"`
	bodySizeBytes   int64
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		MaxBodySize:     fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		Mode:            gin.ReleaseMode,
		ShutdownTimeout: DefaultShutdownTimeout,
		Logging:         config.LoggingConfig{},
		bodySizeBytes:   constants.DefaultMaxBodySizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySizeBytes = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	switch c.Mode {
	case "":
		c.Mode = gin.ReleaseMode
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid server mode %q, expected %s, %s or %s", c.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	size, err := ParseSize(sizeStr)
	if err != nil {
		return fmt.Errorf("invalid maxBodySize: %w", err)
	}
	c.bodySizeBytes = size
	return nil
}

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
}

// ParseSize converts a request body limit such as "512", "64K" or "1M" into
// bytes. Gift requests are small JSON objects, so limits must be positive and
// no larger than constants.MaxBodySizeBytes. An empty value yields the default.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	unit := strings.TrimLeftFunc(trimmed, unicode.IsDigit)
	digits := strings.TrimSpace(trimmed[:len(trimmed)-len(unit)])
	unit = strings.TrimSpace(unit)

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported body size unit %q in %q, expected B, K or M", unit, value)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid body size %q: %w", value, err)
	}

	if n <= 0 || n > constants.MaxBodySizeBytes/multiplier {
		return 0, fmt.Errorf("body size %q must be between 1 byte and %d bytes", value, constants.MaxBodySizeBytes)
	}
	return n * multiplier, nil
}
