package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, ".blcpp", cfg.Dialect.SourceExt)
	assert.Equal(t, ".blh", cfg.Dialect.HeaderExt)
	assert.Equal(t, 4, cfg.Dialect.TabWidth)
	assert.True(t, cfg.SourceMap.Enabled)
	assert.Equal(t, config.FormatInline, cfg.SourceMap.Format)
	assert.NoError(t, cfg.Validate())
}

func TestSourceMapFormatValidation(t *testing.T) {
	tests := []struct {
		format config.SourceMapFormat
		valid  bool
	}{
		{config.FormatInline, true},
		{config.FormatSeparate, true},
		{config.FormatBoth, true},
		{config.FormatNone, true},
		{config.SourceMapFormat("bogus"), false},
		{config.SourceMapFormat(""), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.format.IsValid(), "format %q", tt.format)
	}
}

func TestValidateRejectsBadTabWidth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dialect.TabWidth = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsExtensionWithoutDot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dialect.SourceExt = "blcpp"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownSourceMapFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SourceMap.Format = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestLoadMergesProjectConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })

	projectConfig := "[dialect]\ntab_width = 8\n\n[sourcemaps]\nformat = \"separate\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blcc.toml"), []byte(projectConfig), 0o644))
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Dialect.TabWidth)
	assert.Equal(t, config.FormatSeparate, cfg.SourceMap.Format)
	assert.Equal(t, ".blcpp", cfg.Dialect.SourceExt) // untouched default survives the merge
}

func TestLoadAppliesOverridesLast(t *testing.T) {
	dir := t.TempDir()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
	t.Setenv("HOME", t.TempDir())

	overrides := &config.Config{Dialect: config.DialectConfig{TabWidth: 2}}
	cfg, err := config.Load(overrides)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Dialect.TabWidth)
}

func TestLoadRejectsInvalidMergedConfig(t *testing.T) {
	dir := t.TempDir()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "blcc.toml"), []byte("[dialect]\ntab_width = 0\n"), 0o644))

	_, err := config.Load(nil)
	assert.Error(t, err)
}
