package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	coredatabase "github.com/m3rciful/mediabot/core/database"
	"github.com/m3rciful/mediabot/internal/conversation"
	"github.com/m3rciful/mediabot/internal/engine"
	"github.com/m3rciful/mediabot/internal/storage"
	"github.com/m3rciful/mediabot/internal/upload"
)

const (
	// BackendMemory keeps conversations in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps conversations in Redis.
	BackendRedis = "redis"
)

// StorageConfig points at the media bucket.
type StorageConfig struct {
	Bucket          string `yaml:"bucket" envconfig:"STORAGE_BUCKET"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	PublicURLBase   string `yaml:"public_url_base" envconfig:"STORAGE_PUBLIC_URL_BASE"`
}

// RedisConfig holds the Redis connection for the conversation store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// ConversationsConfig selects where per-chat state lives.
type ConversationsConfig struct {
	Backend  string      `yaml:"backend" envconfig:"CONVERSATIONS_BACKEND"`
	Redis    RedisConfig `yaml:"redis"`
	TTLHours int         `yaml:"ttl_hours" envconfig:"CONVERSATIONS_TTL_HOURS"`
}

// MediaConfig tunes the ingestion flow.
type MediaConfig struct {
	EnableVideo        bool   `yaml:"enable_video" envconfig:"MEDIA_ENABLE_VIDEO"`
	DefaultTag         string `yaml:"default_tag" envconfig:"MEDIA_DEFAULT_TAG"`
	AudioCollection    string `yaml:"audio_collection"`
	VideoCollection    string `yaml:"video_collection"`
	ProgressIntervalMS int    `yaml:"progress_interval_ms"`

	AudioDir     string `yaml:"audio_dir"`
	PhotoDir     string `yaml:"photo_dir"`
	VideoDir     string `yaml:"video_dir"`
	ThumbnailDir string `yaml:"thumbnail_dir"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database      coredatabase.Config `yaml:"database"`
	Storage       StorageConfig       `yaml:"storage"`
	Conversations ConversationsConfig `yaml:"conversations"`
	Media         MediaConfig         `yaml:"media"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, applies env overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("storage.bucket is required")
	}

	backend := strings.ToLower(strings.TrimSpace(c.Conversations.Backend))
	if backend == "" {
		backend = BackendMemory
	}
	switch backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Conversations.Redis.Addr) == "" {
			return fmt.Errorf("conversations.redis.addr is required when conversations.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid conversations.backend %q; allowed: memory, redis", c.Conversations.Backend)
	}
	c.Conversations.Backend = backend

	if c.Conversations.TTLHours < 0 {
		return fmt.Errorf("conversations.ttl_hours must be >= 0")
	}
	if c.Media.ProgressIntervalMS < 0 {
		return fmt.Errorf("media.progress_interval_ms must be >= 0")
	}
	c.Media.DefaultTag = strings.TrimSpace(c.Media.DefaultTag)
	return nil
}

func (c *Config) blobConfig() storage.BlobConfig {
	return storage.BlobConfig{
		Bucket:          c.Storage.Bucket,
		CredentialsFile: c.Storage.CredentialsFile,
		PublicURLBase:   c.Storage.PublicURLBase,
	}
}

func (c *Config) redisOptions() conversation.RedisOptions {
	return conversation.RedisOptions{
		Addr:     c.Conversations.Redis.Addr,
		Password: c.Conversations.Redis.Password,
		DB:       c.Conversations.Redis.DB,
		Prefix:   c.Conversations.Redis.Prefix,
		TTL:      time.Duration(c.Conversations.TTLHours) * time.Hour,
	}
}

func (c *Config) uploadOptions() upload.Options {
	return upload.Options{ProgressInterval: time.Duration(c.Media.ProgressIntervalMS) * time.Millisecond}
}

func (c *Config) engineOptions() engine.Options {
	opts := engine.Options{
		EnableVideo:     c.Media.EnableVideo,
		AudioCollection: c.Media.AudioCollection,
		VideoCollection: c.Media.VideoCollection,
		AudioDir:        c.Media.AudioDir,
		PhotoDir:        c.Media.PhotoDir,
		VideoDir:        c.Media.VideoDir,
		ThumbnailDir:    c.Media.ThumbnailDir,
	}
	if c.Media.DefaultTag != "" {
		opts.Tags = []string{c.Media.DefaultTag}
	}
	return opts
}
