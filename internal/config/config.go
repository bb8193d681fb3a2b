package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv        string `yaml:"app_env"`
	HTTPAddr      string `yaml:"http_addr"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	DataDir       string `yaml:"data_dir"`

	ProviderBaseURL      string        `yaml:"provider_base_url"`
	ProviderToken        string        `yaml:"provider_token"`
	ProviderModelVersion string        `yaml:"provider_model_version"`
	ProviderTimeout      time.Duration `yaml:"provider_timeout"`

	PollInterval    time.Duration `yaml:"poll_interval"`
	PollTimeout     time.Duration `yaml:"poll_timeout"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`

	BatchParallelism int `yaml:"batch_parallelism"`
	TaskMaxRetries   int `yaml:"task_max_retries"`

	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseServiceKey string `yaml:"supabase_service_key"`
	SupabaseBucket     string `yaml:"supabase_bucket"`
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DataDir:       getenv("DATA_DIR", "./data"),

		ProviderBaseURL:      getenv("PROVIDER_BASE_URL", "https://api.replicate.com"),
		ProviderToken:        os.Getenv("PROVIDER_API_TOKEN"),
		ProviderModelVersion: os.Getenv("PROVIDER_MODEL_VERSION"),
		ProviderTimeout:      getenvDuration("PROVIDER_TIMEOUT", 30*time.Second),

		PollInterval:    getenvDuration("POLL_INTERVAL", 3*time.Second),
		PollTimeout:     getenvDuration("POLL_TIMEOUT", 5*time.Minute),
		MaxPollAttempts: getenvInt("MAX_POLL_ATTEMPTS", 100),

		BatchParallelism: getenvInt("BATCH_PARALLELISM", 1),
		TaskMaxRetries:   getenvInt("TASK_MAX_RETRIES", 3),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_STORAGE_BUCKET", "swaps"),
	}

	// Optional YAML file overrides env defaults, mostly used in docker-compose setups.
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			panic(fmt.Errorf("config file %s: %w", path, err))
		}
	}

	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	if cfg.BatchParallelism < 1 {
		cfg.BatchParallelism = 1
	}
	if cfg.BatchParallelism > 4 {
		cfg.BatchParallelism = 4
	}
	return cfg
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}
