package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
telegram:
  token: "123:abc"
storage:
  bucket: media-bucket
database:
  host: localhost
  port: "5432"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, BackendMemory, cfg.Conversations.Backend)
	assert.Equal(t, "localhost", cfg.Database.Host)

	opts := cfg.engineOptions()
	assert.False(t, opts.EnableVideo)
	assert.Nil(t, opts.Tags)
	assert.Zero(t, cfg.uploadOptions().ProgressInterval)
}

func TestLoadConfigMediaAndRedis(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
conversations:
  backend: " Redis "
  ttl_hours: 2
  redis:
    addr: localhost:6379
    prefix: chats
media:
  enable_video: true
  default_tag: " focus "
  progress_interval_ms: 25
  audio_dir: tracks
`))
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Conversations.Backend)
	ro := cfg.redisOptions()
	assert.Equal(t, "localhost:6379", ro.Addr)
	assert.Equal(t, "chats", ro.Prefix)
	assert.Equal(t, 2*time.Hour, ro.TTL)

	opts := cfg.engineOptions()
	assert.True(t, opts.EnableVideo)
	assert.Equal(t, []string{"focus"}, opts.Tags)
	assert.Equal(t, "tracks", opts.AudioDir)
	assert.Equal(t, 25*time.Millisecond, cfg.uploadOptions().ProgressInterval)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "env-bucket")
	t.Setenv("MEDIA_ENABLE_VIDEO", "true")
	t.Setenv("DB_NAME", "env-db")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", cfg.blobConfig().Bucket)
	assert.True(t, cfg.Media.EnableVideo)
	assert.Equal(t, "env-db", cfg.Database.Name)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing bucket": `
telegram:
  token: "123:abc"
`,
		"redis without addr": minimalConfig + `
conversations:
  backend: redis
`,
		"unknown backend": minimalConfig + `
conversations:
  backend: etcd
`,
		"negative ttl": minimalConfig + `
conversations:
  ttl_hours: -1
`,
		"negative progress interval": minimalConfig + `
media:
  progress_interval_ms: -5
`,
		"missing token": `
storage:
  bucket: media-bucket
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestCloseRunsClosersInReverse(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	a := &App{closers: []func() error{
		func() error { order = append(order, "db"); return nil },
		func() error { order = append(order, "redis"); return boom },
		func() error { order = append(order, "blobs"); return nil },
	}}

	err := a.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"blobs", "redis", "db"}, order)
	assert.NoError(t, a.Close())
}
