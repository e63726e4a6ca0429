package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":8080"

[database]
dsn = "test.db"
migrations_dir = "./migrations"

[storage]
max_upload_bytes = 1024

[cohorts.prefixes]
1 = "RA2511026050"
2 = "RA2411026050"

[cohorts.sections]
1 = ["A", "B"]
2 = ["A"]
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Port)
	assert.Equal(t, "test.db", config.Database.DSN)

	t.Run("cohort tables parsed with integer keys", func(t *testing.T) {
		assert.Equal(t, "RA2511026050", config.Cohorts.Prefixes[1])
		assert.Equal(t, []string{"A", "B"}, config.Cohorts.Sections[1])
	})

	t.Run("storage defaults fill unset knobs", func(t *testing.T) {
		assert.EqualValues(t, 1024, config.Storage.MaxUploadBytes)
		assert.Equal(t, "uploads", config.Storage.UploadsDir)
		assert.Equal(t, "reports", config.Storage.ReportsDir)
		assert.Equal(t, 300, config.Storage.ImageWidth)
		assert.Equal(t, 70, config.Storage.ImageQuality)
		assert.Equal(t, 100, config.Storage.ThumbWidth)
	})
}

func TestLoadConfigMissingPort(t *testing.T) {
	path := writeConfig(t, `
[database]
dsn = "test.db"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
