package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Mode string `mapstructure:"mode"`
	} `mapstructure:"app"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	FFmpeg  struct {
		FFmpegPath   string `mapstructure:"ffmpeg_path"`
		FFprobePath  string `mapstructure:"ffprobe_path"`
		CountPackets bool   `mapstructure:"count_packets"`
	} `mapstructure:"ffmpeg"`
	Worker struct {
		WorkDir        string `mapstructure:"work_dir"`
		// RequeueOnStart moves the whole shared processing list back to the
		// job queue at start-up. Enable it only when a single worker
		// consumes the queue.
		RequeueOnStart bool   `mapstructure:"requeue_on_start"`
	} `mapstructure:"worker"`
	HTTP struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"http"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Port    string `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Log struct {
		Level            string   `mapstructure:"level"`
		OutputPaths      []string `mapstructure:"output_paths"`
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"log"`
}

type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	JobQueue        string        `mapstructure:"job_queue"`
	ProcessingQueue string        `mapstructure:"processing_queue"`
	StatusQueue     string        `mapstructure:"status_queue"`
	StatusMode      string        `mapstructure:"status_mode"`
	DequeueTimeout  time.Duration `mapstructure:"dequeue_timeout"`
}

type StorageConfig struct {
	Backend           string `mapstructure:"backend"`
	Endpoint          string `mapstructure:"endpoint"`
	Region            string `mapstructure:"region"`
	AccessKey         string `mapstructure:"access_key"`
	SecretKey         string `mapstructure:"secret_key"`
	Secure            bool   `mapstructure:"secure"`
	OutputBucket      string `mapstructure:"output_bucket"`
	UploadConcurrency int    `mapstructure:"upload_concurrency"`
}

const (
	StatusModeList   = "list"
	StatusModePubSub = "pubsub"
	BackendMinio     = "minio"
	BackendS3        = "s3"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "worker")
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.job_queue", "transcode:jobs")
	v.SetDefault("redis.processing_queue", "transcode:jobs:processing")
	v.SetDefault("redis.status_queue", "transcode:status")
	v.SetDefault("redis.status_mode", StatusModeList)
	v.SetDefault("redis.dequeue_timeout", 30*time.Second)
	v.SetDefault("storage.backend", BackendMinio)
	v.SetDefault("storage.endpoint", "minio:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.secure", false)
	v.SetDefault("storage.output_bucket", "encoded")
	v.SetDefault("storage.upload_concurrency", 8)
	v.SetDefault("ffmpeg.ffmpeg_path", "ffmpeg")
	v.SetDefault("ffmpeg.ffprobe_path", "ffprobe")
	v.SetDefault("ffmpeg.count_packets", true)
	v.SetDefault("worker.work_dir", "./work")
	v.SetDefault("worker.requeue_on_start", false)
	v.SetDefault("http.port", "8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", "2112")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_paths", []string{"stdout"})
	v.SetDefault("log.error_output_paths", []string{"stderr"})
}

// Load reads config.yaml from the working directory or /etc/hlstranscoder
// when present, then applies HLS_* environment overrides
// (HLS_REDIS_ADDR, HLS_STORAGE_ACCESS_KEY, ...). APP_MODE is honoured as in
// earlier releases.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/hlstranscoder")

	v.SetEnvPrefix("HLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("app.mode", "HLS_APP_MODE", "APP_MODE"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads one explicit YAML file plus environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("HLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.App.Mode = strings.ToLower(strings.TrimSpace(cfg.App.Mode))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.App.Mode {
	case "worker", "server", "api":
	default:
		return fmt.Errorf("unknown app.mode %q", c.App.Mode)
	}
	switch c.Redis.StatusMode {
	case StatusModeList, StatusModePubSub:
	default:
		return fmt.Errorf("unknown redis.status_mode %q", c.Redis.StatusMode)
	}
	switch c.Storage.Backend {
	case BackendMinio, BackendS3:
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Redis.JobQueue == "" || c.Redis.ProcessingQueue == "" || c.Redis.StatusQueue == "" {
		return errors.New("redis queue names must not be empty")
	}
	if c.Redis.JobQueue == c.Redis.ProcessingQueue {
		return errors.New("redis.processing_queue must differ from redis.job_queue")
	}
	if c.Storage.OutputBucket == "" {
		return errors.New("storage.output_bucket is required")
	}
	if c.Storage.UploadConcurrency < 1 {
		c.Storage.UploadConcurrency = 1
	}
	if c.Worker.WorkDir == "" {
		return errors.New("worker.work_dir is required")
	}
	return nil
}
