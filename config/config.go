package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Lodgify    LodgifyConfig    `yaml:"lodgify"`
	Sync       SyncConfig       `yaml:"sync"`
	Properties PropertiesConfig `yaml:"properties"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	MaxUploadMB     int     `yaml:"max_upload_mb"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// StorageConfig selects and configures the object store used for task photos.
type StorageConfig struct {
	Backend    string           `yaml:"backend"` // cloudinary or disk
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Disk       DiskConfig       `yaml:"disk"`
}

// CloudinaryConfig holds credentials for signed Cloudinary uploads.
type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
	BaseURL   string `yaml:"base_url"`
}

// DiskConfig stores uploads below Root and serves them under URLPrefix.
type DiskConfig struct {
	Root      string `yaml:"root"`
	URLPrefix string `yaml:"url_prefix"`
}

// LodgifyConfig holds the booking source client configuration.
type LodgifyConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	PageSize       int           `yaml:"page_size"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	HTTPProxy      string        `yaml:"http_proxy"`
	Timeout        time.Duration `yaml:"-"`
}

// SyncConfig holds the guest-count reconciliation configuration.
type SyncConfig struct {
	Apply           bool          `yaml:"apply"`
	CronSecret      string        `yaml:"cron_secret"`
	ScheduleEnabled bool          `yaml:"schedule_enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PropertiesConfig tunes the live guest-count lookups done when listing properties.
type PropertiesConfig struct {
	LookupConcurrency int `yaml:"lookup_concurrency"`
}

// AuthConfig selects the authenticator and configures session tokens.
type AuthConfig struct {
	Mode            string        `yaml:"mode"` // pin or users
	SigningKey      string        `yaml:"signing_key"`
	SessionTTLHours int           `yaml:"session_ttl_hours"`
	SessionTTL      time.Duration `yaml:"-"`
	PINs            []PINEntry    `yaml:"pins"`
	Users           []UserEntry   `yaml:"users"`
}

// PINEntry maps a PIN to the identity it unlocks.
type PINEntry struct {
	PIN         string `yaml:"pin"`
	UserID      string `yaml:"user_id"`
	DisplayName string `yaml:"display_name"`
}

// UserEntry is a static user with a bcrypt password hash.
type UserEntry struct {
	UserID       string `yaml:"user_id"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	PasswordHash string `yaml:"password_hash"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads the configuration from the given path, overlays secrets from the
// environment (optionally seeded by a .env file) and applies defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	overlay := map[string]*string{
		"DATABASE_DSN":          &cfg.Database.DSN,
		"LODGIFY_API_KEY":       &cfg.Lodgify.APIKey,
		"CLOUDINARY_CLOUD_NAME": &cfg.Storage.Cloudinary.CloudName,
		"CLOUDINARY_API_KEY":    &cfg.Storage.Cloudinary.APIKey,
		"CLOUDINARY_API_SECRET": &cfg.Storage.Cloudinary.APISecret,
		"AUTH_SIGNING_KEY":      &cfg.Auth.SigningKey,
		"CRON_SECRET":           &cfg.Sync.CronSecret,
		"VAPID_PUBLIC_KEY":      &cfg.Push.PublicKey,
		"VAPID_PRIVATE_KEY":     &cfg.Push.PrivateKey,
	}
	for key, dst := range overlay {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 32
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "disk"
	}
	if cfg.Storage.Disk.Root == "" {
		cfg.Storage.Disk.Root = "./uploads"
	}
	if cfg.Storage.Disk.URLPrefix == "" {
		cfg.Storage.Disk.URLPrefix = "/uploads"
	}

	if cfg.Lodgify.BaseURL == "" {
		cfg.Lodgify.BaseURL = "https://api.lodgify.com"
	}
	if cfg.Lodgify.PageSize <= 0 {
		cfg.Lodgify.PageSize = 50
	}
	if cfg.Lodgify.TimeoutSeconds <= 0 {
		cfg.Lodgify.TimeoutSeconds = 30
	}
	cfg.Lodgify.Timeout = time.Duration(cfg.Lodgify.TimeoutSeconds) * time.Second

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 3600
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second

	if cfg.Properties.LookupConcurrency <= 0 {
		cfg.Properties.LookupConcurrency = 8
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "users"
	}
	if cfg.Auth.SessionTTLHours <= 0 {
		cfg.Auth.SessionTTLHours = 24
	}
	cfg.Auth.SessionTTL = time.Duration(cfg.Auth.SessionTTLHours) * time.Hour

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
