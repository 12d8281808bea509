package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "REDIS_URL", "SERVER_PORT", "SCHEDULE_TIMEZONE", "LOG_LEVEL",
		"SEED_TEMPLATE", "CONTACT_RATE_LIMIT", "CORS_ORIGINS", "FETCHER_USER_AGENT", "FETCHER_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	// Keep loadEnvFiles away from any .env in the package directory.
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, "8080", c.ServerPort)
	assert.Equal(t, "UTC", c.Timezone)
	assert.Equal(t, time.UTC, c.Location)
	assert.Equal(t, 5, c.ContactRateLimit)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "NowPlaying/1.0", c.UserAgent)
	assert.Empty(t, c.SeedTemplate)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/np")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SCHEDULE_TIMEZONE", "Africa/Harare")
	t.Setenv("CONTACT_RATE_LIMIT", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SEED_TEMPLATE", "06:00-07:00=Morning News; 23:00-01:00=Late Show")
	t.Setenv("FETCHER_TIMEOUT", "5s")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/np", c.DatabaseURL)
	assert.Equal(t, "Africa/Harare", c.Location.String())
	assert.Equal(t, 2, c.ContactRateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, []SeedSlot{
		{Slot: "06:00-07:00", Title: "Morning News"},
		{Slot: "23:00-01:00", Title: "Late Show"},
	}, c.SeedTemplate)
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCHEDULE_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestLoadRejectsBadSeedSlot(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_TEMPLATE", "6am=Breakfast")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidSeedSlot)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://db/np
server_port: "9090"
schedule_timezone: Europe/Berlin
seed_template:
  - slot: "09:00-10:00"
    title: Jazz Hour
cors_origins:
  - https://tv.example
timeout: 10s
`), 0o600))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/np", c.DatabaseURL)
	assert.Equal(t, "9090", c.ServerPort)
	assert.Equal(t, "Europe/Berlin", c.Location.String())
	assert.Equal(t, []SeedSlot{{Slot: "09:00-10:00", Title: "Jazz Hour"}}, c.SeedTemplate)
	assert.Equal(t, []string{"https://tv.example"}, c.CORSOrigins)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Equal(t, 5, c.ContactRateLimit)
}

func TestLoadFromFileRejectsEmptyTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed_template:\n  - slot: \"09:00-10:00\"\n"), 0o600))
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestParseSlot(t *testing.T) {
	start, end, err := ParseSlot("23:30-00:15")
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour+30*time.Minute, start)
	assert.Equal(t, 15*time.Minute, end)

	for _, bad := range []string{"", "09:00", "9-10", "25:00-26:00", "09:00-xx"} {
		_, _, err := ParseSlot(bad)
		assert.ErrorIs(t, err, ErrInvalidSeedSlot, bad)
	}
}

func TestApplyEnvFileKeepsExistingValues(t *testing.T) {
	t.Setenv("NP_TEST_KEEP", "from-env")
	t.Setenv("NP_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("NP_TEST_NEW"))

	applyEnvFile([]byte("# comment\nNP_TEST_KEEP=from-file\nexport NP_TEST_NEW=\"quoted\"\nbroken line\n"))
	assert.Equal(t, "from-env", os.Getenv("NP_TEST_KEEP"))
	assert.Equal(t, "quoted", os.Getenv("NP_TEST_NEW"))
}

func TestLoadEnvFilesFromPrefersLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("NP_TEST_ORDER=local\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NP_TEST_ORDER=shared\n"), 0o600))
	t.Setenv("NP_TEST_ORDER", "")
	require.NoError(t, os.Unsetenv("NP_TEST_ORDER"))

	loadEnvFilesFrom(dir)
	assert.Equal(t, "local", os.Getenv("NP_TEST_ORDER"))
}
