package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvInstanceSecret = "SPHERE_INSTANCE_SECRET"
	EnvAdminPassword  = "SPHERE_ADMIN_PASSWORD"
	EnvRedisURL       = "SPHERE_REDIS_URL"
	EnvHttpBinding    = "SPHERE_HTTP_BINDING"
)

// LoadEnvFiles loads KEY=value files into the process environment.
// Variables already set win over file contents, and missing files are
// skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides secrets and bindings from the environment so they can
// stay out of the YAML file.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvInstanceSecret); v != "" {
		cfg.InstanceSecret = v
	}
	if v := os.Getenv(EnvAdminPassword); v != "" {
		cfg.Admin.Password = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv(EnvHttpBinding); v != "" {
		cfg.HttpBinding = v
	}
}
