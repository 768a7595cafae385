package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the static service configuration: process wiring that needs
// a restart to change. Operator-tunable knobs (watch folders, poll
// interval, thresholds, poster settings) live in the database settings
// store instead and reload on every indexer cycle.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	Posters   PostersConfig   `yaml:"posters"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Inference InferenceConfig `yaml:"inference"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Media     MediaConfig     `yaml:"media"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port     int  `yaml:"port"`
	DemoMode bool `yaml:"demo_mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// PostersConfig selects where scene posters are stored. Backend "local"
// writes under Dir; "minio" uses the MinIO section.
type PostersConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type InferenceConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// Timeout is derived from TimeoutSeconds at load time.
	Timeout time.Duration `yaml:"-"`
}

type IndexerConfig struct {
	BatchSize              int    `yaml:"batch_size"`
	StuckJobTimeoutMinutes int    `yaml:"stuck_job_timeout_minutes"`
	LockFile               string `yaml:"lock_file"`
	MetricsPort            int    `yaml:"metrics_port"`

	// StuckJobTimeout is derived from StuckJobTimeoutMinutes at load time.
	StuckJobTimeout time.Duration `yaml:"-"`
}

type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Posters.Backend == "" {
		cfg.Posters.Backend = "local"
	}
	if cfg.Posters.Dir == "" {
		cfg.Posters.Dir = "./posters"
	}
	if cfg.Inference.URL == "" {
		cfg.Inference.URL = "http://localhost:8090"
	}
	if cfg.Inference.TimeoutSeconds <= 0 {
		cfg.Inference.TimeoutSeconds = 120
	}
	cfg.Inference.Timeout = time.Duration(cfg.Inference.TimeoutSeconds) * time.Second
	if cfg.Indexer.BatchSize == 0 {
		cfg.Indexer.BatchSize = 10
	}
	if cfg.Indexer.StuckJobTimeoutMinutes <= 0 {
		cfg.Indexer.StuckJobTimeoutMinutes = 30
	}
	cfg.Indexer.StuckJobTimeout = time.Duration(cfg.Indexer.StuckJobTimeoutMinutes) * time.Minute
	if cfg.Indexer.LockFile == "" {
		cfg.Indexer.LockFile = "/tmp/cinedex-indexer.lock"
	}
	if cfg.Indexer.MetricsPort == 0 {
		cfg.Indexer.MetricsPort = 9091
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CINEDEX_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CINEDEX_DEMO_MODE"); v != "" {
		if demo, err := strconv.ParseBool(v); err == nil {
			cfg.Server.DemoMode = demo
		}
	}
	if v := os.Getenv("CINEDEX_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("CINEDEX_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("CINEDEX_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("CINEDEX_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("CINEDEX_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("CINEDEX_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("CINEDEX_POSTERS_BACKEND"); v != "" {
		cfg.Posters.Backend = v
	}
	if v := os.Getenv("CINEDEX_POSTERS_DIR"); v != "" {
		cfg.Posters.Dir = v
	}
	if v := os.Getenv("CINEDEX_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("CINEDEX_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("CINEDEX_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("CINEDEX_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("CINEDEX_INFERENCE_URL"); v != "" {
		cfg.Inference.URL = v
	}
	if v := os.Getenv("CINEDEX_FFMPEG_PATH"); v != "" {
		cfg.Media.FFmpegPath = v
	}
	if v := os.Getenv("CINEDEX_FFPROBE_PATH"); v != "" {
		cfg.Media.FFprobePath = v
	}
	if v := os.Getenv("CINEDEX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CINEDEX_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
