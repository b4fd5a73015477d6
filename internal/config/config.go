package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

type Config struct {
	HTTP struct {
		Addr            string `yaml:"addr" env:"RINGQ_HTTP_ADDR" env-default:":8080" validate:"required"`
		ShutdownTimeout int    `yaml:"shutdown_timeout_sec" env:"RINGQ_HTTP_SHUTDOWN_TIMEOUT" env-default:"5" validate:"gte=0"`
	} `yaml:"http"`
	Queue struct {
		DefaultCapacity int `yaml:"default_capacity" env:"RINGQ_QUEUE_DEFAULT_CAPACITY" env-default:"1024" validate:"gt=0"`
	} `yaml:"queue"`
	Logger struct {
		Level      string `yaml:"level" env:"RINGQ_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
		File       string `yaml:"file" env:"RINGQ_LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"RINGQ_LOG_MAX_SIZE_MB" env-default:"5"`
		MaxBackups int    `yaml:"max_backups" env:"RINGQ_LOG_MAX_BACKUPS" env-default:"10"`
		MaxAgeDays int    `yaml:"max_age_days" env:"RINGQ_LOG_MAX_AGE_DAYS" env-default:"14"`
		Compress   bool   `yaml:"compress" env:"RINGQ_LOG_COMPRESS" env-default:"true"`
	} `yaml:"logger"`
}

// Load reads path when it exists and then applies RINGQ_* environment
// overrides. An empty path means environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
			return cfg, validate(cfg)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "read env")
	}
	return cfg, validate(cfg)
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
