package config

import (
	"errors"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageBadger = "badger"
	StorageRedis  = "redis"

	LogFormatJSON   = "json"
	LogFormatText   = "text"
	LogFormatPretty = "pretty"

	MaxUploadBytes = 5 << 20
	// InMemoryMaxUploadBytes keeps a base64 upload, and a profile holding
	// two of them, under badger's 1 MiB in-memory value ceiling.
	InMemoryMaxUploadBytes = 256 << 10
)

type TLS struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text, pretty
}

type Storage struct {
	Backend  string        `yaml:"backend"` // badger or redis
	InMemory bool          `yaml:"inMemory"`
	RedisURL string        `yaml:"redisUrl"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

type Sessions struct {
	// When set, mutating routes need "Authorization: Bearer <token>" and the
	// acting username in the body must own that token. Unset means enforced.
	RequireSession *bool `yaml:"requireSession"`
}

func (s Sessions) Required() bool {
	return s.RequireSession == nil || *s.RequireSession
}

type Security struct {
	BcryptCost         int           `yaml:"bcryptCost"`
	MaxLoginFailures   int           `yaml:"maxLoginFailures"`
	LoginBlockDuration time.Duration `yaml:"loginBlockDuration"`

	// How long a failure count outlives the last failed attempt.
	LoginFailureRetention time.Duration `yaml:"loginFailureRetention"`
}

type Admin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"` // usually supplied through SPHERE_ADMIN_PASSWORD
	Email    string `yaml:"email"`
}

type Uploads struct {
	MaxBytes int64 `yaml:"maxBytes"`
}

type Server struct {
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

type RateLimiterConfig struct {
	Limit float64 `yaml:"limit"` // Requests per second
	Burst int     `yaml:"burst"` // Burst size
}

type RateLimiters struct {
	Auth    RateLimiterConfig `yaml:"auth"`
	Content RateLimiterConfig `yaml:"content"`
	Admin   RateLimiterConfig `yaml:"admin"`
	Upload  RateLimiterConfig `yaml:"upload"`
	Default RateLimiterConfig `yaml:"default"`
}

type Config struct {
	InstanceSecret string       `yaml:"instanceSecret"` // signs session tokens
	HttpBinding    string       `yaml:"httpBinding"`
	DataDir        string       `yaml:"dataDir"`
	TLS            TLS          `yaml:"tls"`
	Logging        Logging      `yaml:"logging"`
	Storage        Storage      `yaml:"storage"`
	Sessions       Sessions     `yaml:"sessions"`
	Security       Security     `yaml:"security"`
	Admin          Admin        `yaml:"admin"`
	Uploads        Uploads      `yaml:"uploads"`
	Server         Server       `yaml:"server"`
	TrustedProxies []string     `yaml:"trustedProxies"`
	RateLimiters   RateLimiters `yaml:"rateLimiters"`
}

var (
	ErrConfigFileMissing               = errors.New("config file is missing")
	ErrConfigFileUnreadable            = errors.New("config file is unreadable")
	ErrConfigFileUnmarshallable        = errors.New("config file is unmarshallable")
	ErrInstanceSecretMissing           = errors.New("instanceSecret is missing in config")
	ErrHttpBindingMissing              = errors.New("httpBinding is missing in config")
	ErrDataDirMissing                  = errors.New("dataDir is missing in config and is required by the badger backend")
	ErrStorageBackendInvalid           = errors.New("storage.backend must be either badger or redis")
	ErrRedisURLMissing                 = errors.New("storage.redisUrl is required by the redis backend")
	ErrTLSMissing                      = errors.New("TLS configuration incomplete: both cert and key must be provided if one is specified")
	ErrLogFormatInvalid                = errors.New("logging.format must be one of json, text or pretty")
	ErrLogLevelInvalid                 = errors.New("logging.level must be one of debug, info, warn or error")
	ErrBcryptCostInvalid               = errors.New("security.bcryptCost is outside the range bcrypt accepts (4-31)")
	ErrUploadsMaxBytesInvalid          = errors.New("uploads.maxBytes must be positive")
	ErrUploadsMaxBytesTooLarge         = errors.New("uploads.maxBytes may not exceed 5 MiB")
	ErrInMemoryUploadsTooLarge         = errors.New("uploads.maxBytes may not exceed 256 KiB with storage.inMemory")
	ErrRateLimitersAuthLimitMissing    = errors.New("rateLimiters.auth.limit is missing in config")
	ErrRateLimitersContentLimitMissing = errors.New("rateLimiters.content.limit is missing in config")
	ErrRateLimitersAdminLimitMissing   = errors.New("rateLimiters.admin.limit is missing in config")
	ErrRateLimitersUploadLimitMissing  = errors.New("rateLimiters.upload.limit is missing in config")
	ErrRateLimitersDefaultLimitMissing = errors.New("rateLimiters.default.limit is missing in config")
)

var logLevels = []string{"debug", "info", "warn", "error"}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigFileMissing
		}
		return nil, ErrConfigFileUnreadable
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ErrConfigFileUnmarshallable
	}

	ApplyEnv(&cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills optional settings. Required ones are left for
// Validate to report.
func (cfg *Config) applyDefaults() {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatJSON
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBadger
	}
	if cfg.Storage.CacheTTL == 0 {
		cfg.Storage.CacheTTL = time.Minute
	}
	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = 10
	}
	if cfg.Security.MaxLoginFailures <= 0 {
		cfg.Security.MaxLoginFailures = 3
	}
	if cfg.Security.LoginBlockDuration <= 0 {
		cfg.Security.LoginBlockDuration = 15 * time.Minute
	}
	if cfg.Security.LoginFailureRetention <= 0 {
		cfg.Security.LoginFailureRetention = 24 * time.Hour
	}
	if cfg.Sessions.RequireSession == nil {
		required := true
		cfg.Sessions.RequireSession = &required
	}
	if cfg.Uploads.MaxBytes == 0 {
		cfg.Uploads.MaxBytes = MaxUploadBytes
		if cfg.inMemoryBadger() {
			cfg.Uploads.MaxBytes = InMemoryMaxUploadBytes
		}
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 5 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
}

func (cfg *Config) Validate() error {
	if cfg.InstanceSecret == "" {
		return ErrInstanceSecretMissing
	}
	if cfg.HttpBinding == "" {
		return ErrHttpBindingMissing
	}

	switch cfg.Storage.Backend {
	case StorageBadger:
		if cfg.DataDir == "" && !cfg.Storage.InMemory {
			return ErrDataDirMissing
		}
	case StorageRedis:
		if cfg.Storage.RedisURL == "" {
			return ErrRedisURLMissing
		}
	default:
		return ErrStorageBackendInvalid
	}

	if cfg.TLS.Cert != "" && cfg.TLS.Key == "" ||
		cfg.TLS.Cert == "" && cfg.TLS.Key != "" {
		return ErrTLSMissing
	}

	switch cfg.Logging.Format {
	case LogFormatJSON, LogFormatText, LogFormatPretty:
	default:
		return ErrLogFormatInvalid
	}
	if !slices.Contains(logLevels, cfg.Logging.Level) {
		return ErrLogLevelInvalid
	}

	if cfg.Security.BcryptCost < 4 || cfg.Security.BcryptCost > 31 {
		return ErrBcryptCostInvalid
	}
	if cfg.Uploads.MaxBytes < 0 {
		return ErrUploadsMaxBytesInvalid
	}
	if cfg.Uploads.MaxBytes > MaxUploadBytes {
		return ErrUploadsMaxBytesTooLarge
	}
	if cfg.inMemoryBadger() && cfg.Uploads.MaxBytes > InMemoryMaxUploadBytes {
		return ErrInMemoryUploadsTooLarge
	}

	if cfg.RateLimiters.Auth.Limit == 0 {
		return ErrRateLimitersAuthLimitMissing
	}
	if cfg.RateLimiters.Content.Limit == 0 {
		return ErrRateLimitersContentLimitMissing
	}
	if cfg.RateLimiters.Admin.Limit == 0 {
		return ErrRateLimitersAdminLimitMissing
	}
	if cfg.RateLimiters.Upload.Limit == 0 {
		return ErrRateLimitersUploadLimitMissing
	}
	if cfg.RateLimiters.Default.Limit == 0 {
		return ErrRateLimitersDefaultLimitMissing
	}
	return nil
}

func (cfg *Config) inMemoryBadger() bool {
	return cfg.Storage.InMemory && (cfg.Storage.Backend == StorageBadger || cfg.Storage.Backend == "")
}

func GenerateConfig() *Config {
	requireSession := true
	return &Config{
		InstanceSecret: "please_change_this_secret_in_production_!!!",
		HttpBinding:    "127.0.0.1:8080",
		DataDir:        "data/sphere", // Relative path for easier default setup
		Logging: Logging{
			Level:  "info",
			Format: LogFormatJSON,
		},
		Storage: Storage{
			Backend:  StorageBadger,
			RedisURL: "redis://127.0.0.1:6379/0",
			CacheTTL: time.Minute,
		},
		Sessions: Sessions{
			RequireSession: &requireSession,
		},
		Security: Security{
			BcryptCost:            10,
			MaxLoginFailures:      3,
			LoginBlockDuration:    15 * time.Minute,
			LoginFailureRetention: 24 * time.Hour,
		},
		Admin: Admin{
			Username: "admin",
			Email:    "admin@sphere.local",
		},
		Uploads: Uploads{
			MaxBytes: MaxUploadBytes,
		},
		Server: Server{
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		RateLimiters: RateLimiters{
			Auth:    RateLimiterConfig{Limit: 2.0, Burst: 10},
			Content: RateLimiterConfig{Limit: 50.0, Burst: 100},
			Admin:   RateLimiterConfig{Limit: 10.0, Burst: 20},
			Upload:  RateLimiterConfig{Limit: 2.0, Burst: 5},
			Default: RateLimiterConfig{Limit: 100.0, Burst: 200},
		},
	}
}

func WriteConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
