package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"tictactoe.db"`
	Redis             Redis     `yaml:"redis"`
	AIService         AIService `yaml:"ai-service"`
	Platform          Platform  `yaml:"platform"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type AIService struct {
	URL        string        `yaml:"url" env:"AI_SERVICE_URL" env-default:"http://localhost:8001"`
	Timeout    time.Duration `yaml:"timeout" env:"AI_SERVICE_TIMEOUT" env-default:"5s"`
	Difficulty string        `yaml:"difficulty" env:"AI_SERVICE_DIFFICULTY" env-default:"medium"`
	Workers    int           `yaml:"workers" env:"AI_SERVICE_WORKERS" env-default:"2"`
	QueueSize  int           `yaml:"queue-size" env:"AI_SERVICE_QUEUE_SIZE" env-default:"64"`
}

type Platform struct {
	URL       string `yaml:"url" env:"PLATFORM_URL" env-default:""`
	QueueSize int    `yaml:"queue-size" env:"PLATFORM_QUEUE_SIZE" env-default:"64"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// GetRedisAddr - returns host:port, or an empty string when no redis host is configured.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
