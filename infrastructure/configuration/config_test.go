package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.NotNil(t, &C)

	assert.NotZero(t, C.App.Port)
	assert.Positive(t, C.App.DefaultUserID)
	assert.NotEmpty(t, C.Storage.Driver)
	assert.NotEmpty(t, C.Upload.Dir)
	assert.Equal(t, int64(2)<<30, C.Upload.MaxFileSize)
}

func TestSimulatorTicks(t *testing.T) {
	s := Simulator{UploadTickMs: 500, ProcessTickMs: 800}
	assert.Equal(t, 500*time.Millisecond, s.UploadTick())
	assert.Equal(t, 800*time.Millisecond, s.ProcessTick())
}

func TestInitStorageFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " Postgres ")
	t.Setenv("STORAGE_SEED", "false")

	cfg := Config{Storage: Storage{Driver: "memory", Seed: true}}
	initStorage(&cfg)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.False(t, cfg.Storage.Seed)
}

func TestInitAppPortPrecedence(t *testing.T) {
	t.Setenv("APP_PORT", "8088")
	t.Setenv("PORT", "9099")
	t.Setenv("DEFAULT_USER_ID", "7")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test,")

	cfg := Config{App: App{Port: 5000}}
	initApp(&cfg)

	assert.Equal(t, 8088, cfg.App.Port)
	assert.Equal(t, int64(7), cfg.App.DefaultUserID)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowOrigins)
}

func TestInitDatabaseKeepsFileValues(t *testing.T) {
	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_NAME", "env-db")

	cfg := Config{Database: Database{Psql: Db{Host: "file-host"}}}
	initDatabase(&cfg)

	assert.Equal(t, "file-host", cfg.Database.Psql.Host)
	assert.Equal(t, "env-db", cfg.Database.Psql.Name)
}

func TestLoadEnvFromFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OMNICAST_TEST_A=from-file\nOMNICAST_TEST_B=\"quoted\"\n"), 0o600))

	t.Setenv("OMNICAST_TEST_A", "from-env")
	os.Unsetenv("OMNICAST_TEST_B")
	defer os.Unsetenv("OMNICAST_TEST_B")

	LoadEnvFromFile(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-env", os.Getenv("OMNICAST_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("OMNICAST_TEST_B"))
}
