package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/dyluth/mediawatch/internal/instance"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only accepted config version.
const SupportedVersion = "1.0"

// DefaultPaths are searched, in order, when no config path is given.
var DefaultPaths = []string{"mediawatch.yml", "mediawatch.yaml", "mediawatch.jsonc"}

// Format is the on-disk encoding of a config file.
type Format int

const (
	FormatYAML Format = iota
	// FormatJSONC is JSON with comments and trailing commas
	FormatJSONC
)

// FormatFor picks the format from a file extension. Unknown extensions are YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Config represents the top-level mediawatch.yml configuration
type Config struct {
	Version        string                  `yaml:"version"`
	Breakpoints    []breakpoint.Breakpoint `yaml:"breakpoints,omitempty"` // Explicit registry contents
	Widths         []breakpoint.Width      `yaml:"widths,omitempty"`      // Builds the standard family instead
	FilterOverlaps bool                    `yaml:"filter_overlaps,omitempty"`
	Print          *PrintConfig            `yaml:"print,omitempty"`
	Redis          *RedisConfig            `yaml:"redis,omitempty"`
}

// PrintConfig specifies breakpoints reported alongside "print" while printing
type PrintConfig struct {
	Aliases []breakpoint.Breakpoint `yaml:"aliases,omitempty"`
}

// RedisConfig specifies where environment events are exchanged
type RedisConfig struct {
	URL      string `yaml:"url,omitempty"`
	Instance string `yaml:"instance,omitempty"`
}

// envOverrides are read after the file; unset variables keep the file values.
type envOverrides struct {
	RedisURL       string `env:"MEDIAWATCH_REDIS_URL"`
	Instance       string `env:"MEDIAWATCH_INSTANCE"`
	FilterOverlaps bool   `env:"MEDIAWATCH_FILTER_OVERLAPS"`
}

// Default returns the validated configuration used when no file exists.
func Default() *Config {
	c := &Config{Version: SupportedVersion}
	// cannot fail: the default widths are well formed
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and applies defaults
func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, SupportedVersion)
	}

	if len(c.Breakpoints) > 0 && len(c.Widths) > 0 {
		return fmt.Errorf("breakpoints and widths are mutually exclusive")
	}

	if len(c.Breakpoints) > 0 {
		if err := validateBreakpoints("breakpoint", c.Breakpoints); err != nil {
			return err
		}
	} else {
		if len(c.Widths) == 0 {
			c.Widths = append([]breakpoint.Width(nil), breakpoint.DefaultWidths...)
		}
		if _, err := breakpoint.Build(c.Widths); err != nil {
			return fmt.Errorf("invalid widths: %w", err)
		}
	}

	if c.Print == nil {
		c.Print = &PrintConfig{}
	}
	if err := validateBreakpoints("print alias", c.Print.Aliases); err != nil {
		return err
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = instance.GetRedisURL(instance.DefaultRedisPort)
	}
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("redis.url must start with redis:// or rediss://, got '%s'", c.Redis.URL)
	}
	if c.Redis.Instance == "" {
		c.Redis.Instance = instance.DefaultName
	}
	if err := instance.ValidateName(c.Redis.Instance); err != nil {
		return fmt.Errorf("redis.instance: %w", err)
	}

	return nil
}

// validateBreakpoints requires a name and condition on every entry, unique
// names and unique conditions, and fills in missing suffixes.
func validateBreakpoints(kind string, list []breakpoint.Breakpoint) error {
	names := make(map[string]int)
	conditions := make(map[string]string)
	for i := range list {
		bp := &list[i]
		if bp.Name == "" {
			return fmt.Errorf("%s %d: name is required", kind, i)
		}
		if bp.Condition == "" {
			return fmt.Errorf("%s '%s': condition is required", kind, bp.Name)
		}
		if _, exists := names[bp.Name]; exists {
			return fmt.Errorf("duplicate %s name '%s'", kind, bp.Name)
		}
		names[bp.Name] = i
		if other, exists := conditions[bp.Condition]; exists {
			return fmt.Errorf("%ss '%s' and '%s' share condition '%s'", kind, other, bp.Name, bp.Condition)
		}
		conditions[bp.Condition] = bp.Name
		if bp.Suffix == "" {
			bp.Suffix = breakpoint.SuffixFor(bp.Name)
		}
	}
	return nil
}

// BreakpointList returns the registry contents: the explicit breakpoints, or
// the family built from widths.
func (c *Config) BreakpointList() ([]breakpoint.Breakpoint, error) {
	if len(c.Breakpoints) > 0 {
		return append([]breakpoint.Breakpoint(nil), c.Breakpoints...), nil
	}
	widths := c.Widths
	if len(widths) == 0 {
		widths = breakpoint.DefaultWidths
	}
	list, err := breakpoint.Build(widths)
	if err != nil {
		return nil, fmt.Errorf("failed to build breakpoints: %w", err)
	}
	return list, nil
}

// Registry builds the breakpoint registry described by the configuration.
func (c *Config) Registry() (*breakpoint.Registry, error) {
	list, err := c.BreakpointList()
	if err != nil {
		return nil, err
	}
	return breakpoint.NewRegistry(list), nil
}

// PrintAliases returns the configured print aliases.
func (c *Config) PrintAliases() []breakpoint.Breakpoint {
	if c.Print == nil {
		return nil
	}
	return append([]breakpoint.Breakpoint(nil), c.Print.Aliases...)
}

// ApplyEnv overrides redis and overlap settings from MEDIAWATCH_* variables.
func (c *Config) ApplyEnv() error {
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	overrides := envOverrides{
		RedisURL:       c.Redis.URL,
		Instance:       c.Redis.Instance,
		FilterOverlaps: c.FilterOverlaps,
	}
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	c.Redis.URL = overrides.RedisURL
	c.Redis.Instance = overrides.Instance
	c.FilterOverlaps = overrides.FilterOverlaps
	return nil
}

// Parse decodes data in the given format and validates it. Environment
// overrides are not applied.
func Parse(data []byte, format Format) (*Config, error) {
	if format == FormatJSONC {
		// JSON is valid YAML, so one set of struct tags serves both formats
		data = jsonc.ToJSON(data)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		if format == FormatJSONC {
			return nil, fmt.Errorf("failed to parse JSONC: %w", err)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Load reads, applies environment overrides to, and validates the config at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Resolve loads path when given. Otherwise it loads the first of DefaultPaths
// that exists in dir, falling back to Default. Environment overrides apply
// in every case.
func Resolve(dir, path string) (*Config, string, error) {
	if path != "" {
		config, err := Load(path)
		return config, path, err
	}

	for _, name := range DefaultPaths {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			config, err := Load(candidate)
			return config, candidate, err
		}
	}

	config := Default()
	if err := config.ApplyEnv(); err != nil {
		return nil, "", err
	}
	if err := config.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return config, "", nil
}
