package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Qdrant     QdrantConfig     `mapstructure:"qdrant"`
	MLService  MLServiceConfig  `mapstructure:"ml_service"`
	Collector  CollectorConfig  `mapstructure:"collector"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Clustering ClusteringConfig `mapstructure:"clustering"`
	Session    SessionConfig    `mapstructure:"session"`
	Rescan     RescanConfig     `mapstructure:"rescan"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
	Dimensions int    `mapstructure:"dimensions"`
}

// MLServiceConfig points at the CLIP embedding microservice.
type MLServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CollectorConfig configures the external scraper API used for metric
// collection.
type CollectorConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIToken string `mapstructure:"api_token"`
	ActorID  string `mapstructure:"actor_id"`
	// MinViews drops collected items below this play-count floor.
	MinViews int64 `mapstructure:"min_views"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type ScoringConfig struct {
	DefaultBaseline      float64 `mapstructure:"default_baseline"`
	VelocityMidpoint     float64 `mapstructure:"velocity_midpoint"`
	RetentionScale       float64 `mapstructure:"retention_scale"`
	LongFormSec          int     `mapstructure:"long_form_sec"`
	LongFormBonus        float64 `mapstructure:"long_form_bonus"`
	FollowerBaselineRef  float64 `mapstructure:"follower_baseline_ref"`
	CascadeLogScale      float64 `mapstructure:"cascade_log_scale"`
	SaturationCascadeRef float64 `mapstructure:"saturation_cascade_ref"`
	SaturationAgeRefDays float64 `mapstructure:"saturation_age_ref_days"`
}

type ClusteringConfig struct {
	Eps       float64 `mapstructure:"eps"`
	MinPoints int     `mapstructure:"min_points"`
}

type SessionConfig struct {
	BatchCap int           `mapstructure:"batch_cap"`
	Workers  int           `mapstructure:"workers"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RescanConfig struct {
	Window    time.Duration `mapstructure:"window"`
	SweepSpec string        `mapstructure:"sweep_spec"`
	BatchSize int           `mapstructure:"batch_size"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/trendscout.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "video_covers")
	v.SetDefault("qdrant.dimensions", 512)
	v.SetDefault("ml_service.base_url", "http://localhost:8001")
	v.SetDefault("ml_service.timeout", 60*time.Second)
	v.SetDefault("collector.base_url", "https://api.apify.com")
	v.SetDefault("collector.actor_id", "apidojo~tiktok-scraper")
	v.SetDefault("collector.min_views", 5000)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "video-covers")
	v.SetDefault("scoring.default_baseline", 0.05)
	v.SetDefault("scoring.velocity_midpoint", 1000.0)
	v.SetDefault("scoring.retention_scale", 5000.0)
	v.SetDefault("scoring.long_form_sec", 60)
	v.SetDefault("scoring.long_form_bonus", 1.2)
	v.SetDefault("scoring.follower_baseline_ref", 10000.0)
	v.SetDefault("scoring.cascade_log_scale", 15.0)
	v.SetDefault("scoring.saturation_cascade_ref", 150.0)
	v.SetDefault("scoring.saturation_age_ref_days", 7.0)
	v.SetDefault("clustering.eps", 0.35)
	v.SetDefault("clustering.min_points", 3)
	v.SetDefault("session.batch_cap", 500)
	v.SetDefault("session.workers", 8)
	v.SetDefault("session.timeout", 5*time.Minute)
	v.SetDefault("rescan.window", 24*time.Hour)
	v.SetDefault("rescan.sweep_spec", "@every 5m")
	v.SetDefault("rescan.batch_size", 50)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("ml_service.base_url", "ML_SERVICE_URL")
	v.BindEnv("collector.api_token", "APIFY_API_TOKEN")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// IsZero reports whether no scoring tunable was configured; callers then
// fall back to the scoring package defaults.
func (c *ScoringConfig) IsZero() bool {
	return *c == ScoringConfig{}
}
