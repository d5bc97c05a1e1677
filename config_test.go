package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dummyConfig string = `
{
    "port": 9000,
    "capacity": 25,
    "files": ["/var/log/app.log"],
    "jwt_secret": "6869"
}
`

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func Test_ReadConfig(t *testing.T) {
	config, err := ReadConfig(strings.NewReader(dummyConfig))
	assert.Nil(t, err)
	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, 25, config.Capacity)
	assert.Equal(t, []string{"/var/log/app.log"}, config.Files)
	// Unset fields keep their defaults.
	assert.Equal(t, 100, config.ChunkSize)
	assert.Equal(t, []byte("hi"), config.SigningKey())
}

func Test_WriteThenReadConfig(t *testing.T) {
	var serialized strings.Builder
	config := DefaultConfig()
	config.Files = []string{"a.log", "b.log"}
	config.Bucket = "logs"

	require.NoError(t, config.SaveConfig(&serialized))
	deserialized, err := ReadConfig(strings.NewReader(serialized.String()))
	require.NoError(t, err)

	assert.Equal(t, config, deserialized)
}

func Test_LoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringtail.json")
	require.NoError(t, os.WriteFile(path, []byte(dummyConfig), 0644))

	args := ParseArgs([]string{"--config", path, "--capacity", "7", "--files", "b.log, c.log", "--debug"})
	config, err := LoadConfig(args, envMap(map[string]string{
		ENV_PORT:     "8081",
		ENV_CAPACITY: "30",
		ENV_API_KEY:  "key",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8081, config.Port)
	assert.Equal(t, 7, config.Capacity)
	assert.Equal(t, "key", config.APIKey)
	assert.Equal(t, []string{"/var/log/app.log", "b.log", "c.log"}, config.Files)
	assert.True(t, config.Debug)
	assert.Equal(t, ":8081", config.Addr())
}

func Test_LoadConfigInvalidEnvKeepsValue(t *testing.T) {
	config, err := LoadConfig(Args{}, envMap(map[string]string{ENV_CAPACITY: "lots"}))
	require.NoError(t, err)
	assert.Equal(t, 500, config.Capacity)
}

func Test_LoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfig(ParseArgs([]string{"--capacity", "0"}), envMap(nil))
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = LoadConfig(ParseArgs([]string{"--chunk-size", "-1"}), envMap(nil))
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = LoadConfig(ParseArgs([]string{"--port", "abc"}), envMap(nil))
	assert.Error(t, err)

	_, err = LoadConfig(Args{}, envMap(map[string]string{ENV_JWT_SECRET: "not-hex"}))
	assert.Error(t, err)

	_, err = LoadConfig(ParseArgs([]string{"--config", "/does/not/exist.json"}), envMap(nil))
	assert.Error(t, err)
}

func Test_LoadConfigArchiveRepo(t *testing.T) {
	config, err := LoadConfig(ParseArgs([]string{"--archive-repo", "/srv/archive"}), envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "/srv/archive", config.ArchiveRepo)

	config, err = LoadConfig(Args{}, envMap(map[string]string{ENV_ARCHIVE: "/srv/env"}))
	require.NoError(t, err)
	assert.Equal(t, "/srv/env", config.ArchiveRepo)

	_, err = LoadConfig(ParseArgs([]string{"--archive-repo", "/srv/archive", "--bucket", "logs"}), envMap(nil))
	assert.Error(t, err)
}
