package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"KPSOLVE_SUFFIX",
	"KPSOLVE_REPLACE",
	"KPSOLVE_FORMAT",
	"KPSOLVE_KEY_FILE",
	"KPSOLVE_SUMMARY",
	"KPSOLVE_VERBOSE",
}

func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := newRootCmd(nil, nil, nil).Flags()
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := loadConfig("", testFlags(t))

	require.NoError(t, err)
	assert.Equal(t, ".solved", cfg.Suffix)
	assert.Equal(t, replaceAll, cfg.mode())
	assert.Equal(t, formatAuto, cfg.Format)
	assert.Empty(t, cfg.KeyFile)
	assert.False(t, cfg.Summary)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolateConfigEnv(t)
	cfgFile := filepath.Join(t.TempDir(), "kpsolve.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("suffix: .file\nreplace: first\nkey_file: /keys/db.key\nsummary: true\n"), 0o600))
	t.Setenv("KPSOLVE_SUFFIX", ".env")
	t.Setenv("KPSOLVE_FORMAT", "xml")

	cfg, err := loadConfig(cfgFile, testFlags(t, "--format", "kdbx", "-v"))

	require.NoError(t, err)
	assert.Equal(t, ".env", cfg.Suffix)
	assert.Equal(t, replaceFirst, cfg.mode())
	assert.Equal(t, formatKDBX, cfg.Format)
	assert.Equal(t, "/keys/db.key", cfg.KeyFile)
	assert.True(t, cfg.Summary)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_KebabFlag(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := loadConfig("", testFlags(t, "-k", "db.key"))

	require.NoError(t, err)
	assert.Equal(t, "db.key", cfg.KeyFile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "replace mode", args: []string{"--replace", "some"}},
		{name: "format", args: []string{"--format", "csv"}},
		{name: "empty suffix", args: []string{"--suffix", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			_, err := loadConfig("", testFlags(t, tt.args...))
			var ue *usageError
			require.ErrorAs(t, err, &ue)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	isolateConfigEnv(t)
	_, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"), testFlags(t))
	require.Error(t, err)
}
