package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSocketPath(t *testing.T) {
	c := Default()
	require.True(t, strings.HasSuffix(c.SocketPath, SocketFileName), "socket path %q", c.SocketPath)

	info, err := os.Stat(c.SocketDir())
	require.NoError(t, err)
	require.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	// Two configs must not collide.
	c2 := Default()
	assert.NotEqual(t, c.SocketPath, c2.SocketPath)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	bad := Default()
	bad.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.Extensions = []string{"postgis"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgis")

	ok := Default()
	ok.Extensions = []string{"pgvector"}
	assert.NoError(t, ok.Validate())
}

func TestValidateResolvesWorkDir(t *testing.T) {
	c := Default()
	c.WorkDir = "."
	require.NoError(t, c.Validate())
	assert.True(t, filepath.IsAbs(c.WorkDir))
}

func TestConnectionMaterial(t *testing.T) {
	c := Default()
	c.SocketPath = "/tmp/pglite-test/" + SocketFileName

	assert.Equal(t, "/tmp/pglite-test", c.SocketDir())
	assert.Equal(t, "postgres://postgres:postgres@/postgres?host=/tmp/pglite-test", c.ConnectionString())
	assert.Equal(t, "host=/tmp/pglite-test dbname=postgres user=postgres password=postgres", c.DSN())
	assert.Equal(t, "postgresql://postgres:postgres@/postgres?host=/tmp/pglite-test", c.URI())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pglite.toml")
	content := `
timeout = "5s"
cleanup_on_exit = false
log_level = "debug"
log_file = "/var/log/pglite.log"
socket_path = "` + filepath.Join(dir, SocketFileName) + `"
extensions = ["pgvector"]
node_options = "--max-old-space-size=256"

[env]
TZ = "UTC"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.False(t, c.CleanupOnExit)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/var/log/pglite.log", c.LogFile)
	assert.Equal(t, filepath.Join(dir, SocketFileName), c.SocketPath)
	assert.Equal(t, []string{"pgvector"}, c.Extensions)
	assert.Equal(t, "--max-old-space-size=256", c.NodeOptions)
	assert.Equal(t, "UTC", c.Env["TZ"])
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pglite.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "warn"`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.True(t, c.CleanupOnExit)
	assert.True(t, c.AutoInstallDeps)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pglite.toml")
	require.NoError(t, os.WriteFile(path, []byte(`extensions = ["nope"]`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
