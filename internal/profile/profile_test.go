package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("sqlite driver gets a default DSN in the data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir, AnalysisRangeDays: 30}
		require.NoError(t, p.Validate())
		assert.Equal(t, filepath.Join(dir, "rutina_dev.db"), p.DSN)
	})

	t.Run("postgres driver requires a DSN", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "postgres"}
		require.Error(t, p.Validate())

		p.DSN = "postgres://rutina@localhost:5432/rutina?sslmode=disable"
		require.NoError(t, p.Validate())
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "mysql"}
		require.Error(t, p.Validate())
	})

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Driver: "postgres", DSN: "postgres://x"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("analysis window defaults to 30 days", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "postgres", DSN: "postgres://x"}
		require.NoError(t, p.Validate())
		assert.Equal(t, 30, p.AnalysisRangeDays)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RUTINA_ANALYSIS_RANGE_DAYS", "90")
	t.Setenv("RUTINA_CALENDAR_BASE_URL", "https://calendar.example.com")
	t.Setenv("RUTINA_TELEGRAM_TOKEN", "bot-token")
	t.Setenv("RUTINA_TELEGRAM_CHAT_ID", "12345")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 90, p.AnalysisRangeDays)
	assert.True(t, p.IsCalendarEnabled())
	assert.True(t, p.IsTelegramEnabled())
	assert.Equal(t, int64(12345), p.TelegramChatID)
}
