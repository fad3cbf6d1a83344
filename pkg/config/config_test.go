package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Tuesday, cfg.Lunch.Weekday)
	assert.Equal(t, time.UTC, cfg.Lunch.Location)
	assert.Equal(t, 3, cfg.Lunch.LookaheadTiers)
	assert.Equal(t, 15, cfg.Lunch.DefaultAttendance)
	assert.Equal(t, "0 9 * * THU", cfg.Scheduler.HostReminderSpec)
	assert.Equal(t, 14*24*time.Hour, cfg.Notifications.LinkTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LUNCH_WEEKDAY", "wed")
	t.Setenv("LUNCH_TIMEZONE", "Not/AZone")
	t.Setenv("APP_URL", "https://lunch.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Wednesday, cfg.Lunch.Weekday)
	assert.Equal(t, time.UTC, cfg.Lunch.Location)
	assert.Equal(t, "https://lunch.example.com", cfg.Notifications.AppBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseWeekdayFallback(t *testing.T) {
	assert.Equal(t, time.Friday, parseWeekday("Friday", time.Tuesday))
	assert.Equal(t, time.Tuesday, parseWeekday("someday", time.Tuesday))
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("bogus", time.Hour))
}
