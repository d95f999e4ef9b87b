package Config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, ":3001", cfg.HTTPAddr)
		assert.Equal(t, "sqlite", cfg.DBDriver)
		assert.Equal(t, "database.db", cfg.DBDSN)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, "0 0 7 1 * *", cfg.ReminderSchedule)
		assert.False(t, cfg.SlackEnabled())
		assert.False(t, cfg.LogRequestBody)
	})

	t.Run("JWTSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		cfg, err := Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, Config.DefaultJWTSecret, cfg.JWTSecret)
		assert.True(t, cfg.DefaultSecret())

		t.Setenv("JWT_SECRET", "s3cr3t-from-vault")
		cfg, err = Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.False(t, cfg.DefaultSecret())
	})

	t.Run("LogRequestBody", func(t *testing.T) {
		t.Setenv("LOG_REQUEST_BODY", "true")
		cfg, err := Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.True(t, cfg.LogRequestBody)

		t.Setenv("LOG_REQUEST_BODY", "sometimes")
		_, err = Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("EnvFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=postgres\nSMTP_PORT=2525\nSLACK_TOKEN=x\nSLACK_CHANNEL=C1\n"), 0o600))
		t.Setenv("DB_DRIVER", "")
		t.Setenv("SMTP_PORT", "")
		t.Setenv("SLACK_TOKEN", "")
		t.Setenv("SLACK_CHANNEL", "")
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("SMTP_PORT")
		os.Unsetenv("SLACK_TOKEN")
		os.Unsetenv("SLACK_CHANNEL")

		cfg, err := Config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.True(t, cfg.SlackEnabled())
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("BadPort", func(t *testing.T) {
		t.Setenv("SMTP_PORT", "abc")
		_, err := Config.Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}
