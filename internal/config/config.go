// Package config loads deepstock settings from an optional YAML file and
// DEEPSTOCK_* environment overrides.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/deepstock/pkg/generation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEEPSTOCK_"

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the resolved application configuration.
type Config struct {
	Model              string        `mapstructure:"model" yaml:"model"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	PromptTemplateFile string        `mapstructure:"prompt_template_file" yaml:"prompt_template_file"`
	Store              StoreConfig   `mapstructure:"store" yaml:"store"`
	Log                LogConfig     `mapstructure:"log" yaml:"log"`
	HTTP               HTTPConfig    `mapstructure:"http" yaml:"http"`
	MCP                MCPConfig     `mapstructure:"mcp" yaml:"mcp"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"`
	Prefix  string      `mapstructure:"prefix" yaml:"prefix"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
	// EncryptionKey is a base64 encoded 32-byte AES key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Port      int    `mapstructure:"port" yaml:"port"`
}

// keys lists every dotted setting that can be overridden from the environment.
var keys = []string{
	"model",
	"request_timeout",
	"prompt_template_file",
	"store.backend",
	"store.path",
	"store.prefix",
	"store.redis.addr",
	"store.redis.password",
	"store.redis.db",
	"store.encryption_key",
	"log.level",
	"log.format",
	"http.addr",
	"mcp.transport",
	"mcp.port",
}

// Home returns the deepstock state directory (~/.deepstock).
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deepstock"
	}
	return filepath.Join(home, ".deepstock")
}

// DefaultPath is the config file read when none is given explicitly.
func DefaultPath() string {
	return filepath.Join(Home(), "config.yaml")
}

func defaults() map[string]any {
	return map[string]any{
		"model":           generation.DefaultModel,
		"request_timeout": "0s",
		"store": map[string]any{
			"backend": BackendFile,
			"path":    filepath.Join(Home(), "secrets"),
			"prefix":  "deepstock:secret:",
			"redis": map[string]any{
				"addr": "localhost:6379",
				"db":   0,
			},
		},
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"http": map[string]any{
			"addr": ":8080",
		},
		"mcp": map[string]any{
			"transport": "stdio",
			"port":      8081,
		},
	}
}

// Load resolves configuration from defaults, the YAML file and the environment, in that order.
// An empty path reads DefaultPath if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	raw := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		merge(raw, fromFile)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	for _, key := range keys {
		if v, ok := os.LookupEnv(EnvName(key)); ok {
			setPath(raw, key, v)
		}
	}

	return decode(raw)
}

// EnvName maps a dotted key to its environment variable.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func decode(raw map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and the encryption key shape.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("unknown mcp transport %q", c.MCP.Transport)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if _, err := c.EncryptionKey(); err != nil {
		return err
	}
	return nil
}

// EncryptionKey decodes store.encryption_key. A nil key means encryption is off.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.Store.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store.encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func setPath(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}
