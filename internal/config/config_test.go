package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, "mediawatch.yml", `version: "1.0"
breakpoints:
  - name: sm
    condition: "(max-width: 599px)"
    priority: 900
  - name: md
    condition: "(min-width: 600px)"
    priority: 800
filter_overlaps: true
print:
  aliases:
    - name: print-a4
      condition: print-a4
      priority: 500
redis:
  url: redis://cache:6380
  instance: kiosk
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	assert.True(t, config.FilterOverlaps)
	assert.Equal(t, "redis://cache:6380", config.Redis.URL)
	assert.Equal(t, "kiosk", config.Redis.Instance)

	reg, err := config.Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"md", "sm"}, reg.Names())
	assert.Equal(t, "Sm", reg.FindByName("sm").Suffix)

	aliases := config.PrintAliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, breakpoint.Breakpoint{Name: "print-a4", Condition: "print-a4", Priority: 500, Suffix: "PrintA4"}, aliases[0])
}

func TestLoad_JSONC(t *testing.T) {
	path := writeConfig(t, "mediawatch.jsonc", `{
  // base ranges only, lt/gt derived
  "version": "1.0",
  "widths": [
    {"name": "phone", "width": "40em"},
    {"name": "desktop", "width": "90em"},
  ],
  /* print layout */
  "print": {"aliases": [{"name": "print-letter", "condition": "print-letter", "priority": 400}]},
}
`)

	config, err := Load(path)
	require.NoError(t, err)

	list, err := config.BreakpointList()
	require.NoError(t, err)
	var names []string
	for _, bp := range list {
		names = append(names, bp.Name)
	}
	assert.Equal(t, []string{"phone", "desktop", "lt-desktop", "gt-phone"}, names)
	assert.Equal(t, "screen and (max-width: 39.98em)", list[2].Condition)
	assert.Equal(t, "print-letter", config.PrintAliases()[0].Name)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/mediawatch.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "mediawatch.yml", `version: "1.0"
breakpoints:
  - this is invalid
    yaml syntax
`)

	config, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidJSONC(t *testing.T) {
	path := writeConfig(t, "mediawatch.jsonc", `{"version": "1.0", "widths": {"name": 3}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSONC")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "mediawatch.yml", `version: "1.0"
redis:
  url: redis://cache:6380
  instance: kiosk
`)

	t.Run("unset variables keep file values", func(t *testing.T) {
		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "redis://cache:6380", config.Redis.URL)
		assert.Equal(t, "kiosk", config.Redis.Instance)
		assert.False(t, config.FilterOverlaps)
	})

	t.Run("variables win", func(t *testing.T) {
		t.Setenv("MEDIAWATCH_REDIS_URL", "redis://other:6379")
		t.Setenv("MEDIAWATCH_INSTANCE", "lobby")
		t.Setenv("MEDIAWATCH_FILTER_OVERLAPS", "true")

		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "redis://other:6379", config.Redis.URL)
		assert.Equal(t, "lobby", config.Redis.Instance)
		assert.True(t, config.FilterOverlaps)
	})

	t.Run("malformed bool", func(t *testing.T) {
		t.Setenv("MEDIAWATCH_FILTER_OVERLAPS", "sometimes")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse environment")
	})

	t.Run("override is validated", func(t *testing.T) {
		t.Setenv("MEDIAWATCH_INSTANCE", "Not_Valid")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.instance")
	})
}

func TestValidate_Defaults(t *testing.T) {
	config := &Config{Version: "1.0"}
	require.NoError(t, config.Validate())

	assert.Equal(t, breakpoint.DefaultWidths, config.Widths)
	assert.NotNil(t, config.Print)
	assert.Equal(t, "default", config.Redis.Instance)
	assert.Contains(t, config.Redis.URL, ":6379")

	list, err := config.BreakpointList()
	require.NoError(t, err)
	assert.Equal(t, breakpoint.Default(), list)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		errMsg string
	}{
		{
			name:   "unsupported version",
			config: Config{Version: "2.0"},
			errMsg: "unsupported version: 2.0",
		},
		{
			name: "breakpoints and widths",
			config: Config{
				Version:     "1.0",
				Breakpoints: []breakpoint.Breakpoint{{Name: "a", Condition: "print"}},
				Widths:      []breakpoint.Width{{Name: "a", Width: "10px"}},
			},
			errMsg: "mutually exclusive",
		},
		{
			name:   "missing name",
			config: Config{Version: "1.0", Breakpoints: []breakpoint.Breakpoint{{Condition: "print"}}},
			errMsg: "breakpoint 0: name is required",
		},
		{
			name:   "missing condition",
			config: Config{Version: "1.0", Breakpoints: []breakpoint.Breakpoint{{Name: "a"}}},
			errMsg: "breakpoint 'a': condition is required",
		},
		{
			name: "duplicate name",
			config: Config{Version: "1.0", Breakpoints: []breakpoint.Breakpoint{
				{Name: "a", Condition: "screen"},
				{Name: "a", Condition: "print"},
			}},
			errMsg: "duplicate breakpoint name 'a'",
		},
		{
			name: "duplicate condition",
			config: Config{Version: "1.0", Breakpoints: []breakpoint.Breakpoint{
				{Name: "a", Condition: "screen"},
				{Name: "b", Condition: "screen"},
			}},
			errMsg: "share condition 'screen'",
		},
		{
			name:   "bad width",
			config: Config{Version: "1.0", Widths: []breakpoint.Width{{Name: "a", Width: "wide"}}},
			errMsg: "invalid widths",
		},
		{
			name:   "alias without condition",
			config: Config{Version: "1.0", Print: &PrintConfig{Aliases: []breakpoint.Breakpoint{{Name: "print-a4"}}}},
			errMsg: "print alias 'print-a4': condition is required",
		},
		{
			name:   "bad redis url",
			config: Config{Version: "1.0", Redis: &RedisConfig{URL: "http://cache"}},
			errMsg: "redis.url must start with redis://",
		},
		{
			name:   "bad instance",
			config: Config{Version: "1.0", Redis: &RedisConfig{Instance: "-kiosk"}},
			errMsg: "redis.instance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("mediawatch.yml"))
	assert.Equal(t, FormatYAML, FormatFor("mediawatch"))
	assert.Equal(t, FormatJSONC, FormatFor("mediawatch.jsonc"))
	assert.Equal(t, FormatJSONC, FormatFor("/etc/MEDIAWATCH.JSON"))
}

func TestResolve(t *testing.T) {
	t.Run("default when nothing exists", func(t *testing.T) {
		config, path, err := Resolve(t.TempDir(), "")
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, breakpoint.DefaultWidths, config.Widths)
	})

	t.Run("first default path wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mediawatch.jsonc"), []byte(`{"version": "1.0", "filter_overlaps": false}`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mediawatch.yml"), []byte("version: \"1.0\"\nfilter_overlaps: true\n"), 0644))

		config, path, err := Resolve(dir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "mediawatch.yml"), path)
		assert.True(t, config.FilterOverlaps)
	})

	t.Run("explicit path", func(t *testing.T) {
		_, _, err := Resolve(t.TempDir(), "/nonexistent/custom.yml")
		require.Error(t, err)
	})

	t.Run("env applies to defaults", func(t *testing.T) {
		t.Setenv("MEDIAWATCH_INSTANCE", "lobby")
		config, _, err := Resolve(t.TempDir(), "")
		require.NoError(t, err)
		assert.Equal(t, "lobby", config.Redis.Instance)
	})
}
