package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	v := viper.New()
	require.NoError(t, Init(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "spends", "spends.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 50, cfg.Detection.Priority)
	assert.Equal(t, "ask", cfg.Resolve.OnDuplicate)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /tmp/spends-test.db
detection:
  priority: 75
resolve:
  on_duplicate: keep-both
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("SPENDS_LOGGING_LEVEL", "debug")

	v := viper.New()
	require.NoError(t, Init(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/spends-test.db", cfg.Database.Path)
	assert.Equal(t, 75, cfg.Detection.Priority)
	assert.Equal(t, "keep-both", cfg.Resolve.OnDuplicate)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestInit_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ZeroPriority(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDetectionPriority, 0)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Detection.Priority)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDetectionPriority, -1)
	_, err := Load(v)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	v = viper.New()
	SetDefaults(v)
	v.Set(KeyDatabasePath, " ")
	_, err = Load(v)
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SPENDS_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/spends.db", want: filepath.Join(home, "spends.db")},
		{in: "$SPENDS_DIR/spends.db", want: "/data/spends.db"},
		{in: "/abs/spends.db", want: "/abs/spends.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
