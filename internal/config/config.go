package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Store
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/attendance.db"`

	// Face providers
	FaceLocator   string `envconfig:"FACE_LOCATOR" default:"deepface"`
	FaceExtractor string `envconfig:"FACE_EXTRACTOR" default:"deepface"`
	DeepFaceURL   string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel string `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Camera
	CameraDriver        string        `envconfig:"CAMERA_DRIVER" default:"webcam"`
	CameraURL           string        `envconfig:"CAMERA_URL"`
	CameraDir           string        `envconfig:"CAMERA_DIR"`
	CameraDeviceID      int           `envconfig:"CAMERA_DEVICE_ID" default:"0"`
	CameraFrameInterval time.Duration `envconfig:"CAMERA_FRAME_INTERVAL" default:"200ms"`

	// Recognition
	MatchThreshold         float64 `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	MatchPolicy            string  `envconfig:"MATCH_POLICY" default:"first"`
	DescriptorDimension    int     `envconfig:"DESCRIPTOR_DIMENSION" default:"0"`
	MaxConsecutiveFailures int     `envconfig:"MAX_CONSECUTIVE_FAILURES" default:"2"`

	// Attendance
	DedupInterval           time.Duration `envconfig:"DEDUP_INTERVAL" default:"5m"`
	SessionResetSchedule    string        `envconfig:"SESSION_RESET_SCHEDULE" default:"0 0 * * *"`
	AttendanceRetentionDays int           `envconfig:"ATTENDANCE_RETENTION_DAYS" default:"0"`
	PruneSchedule           string        `envconfig:"PRUNE_SCHEDULE" default:"30 3 * * *"`

	// Photos
	PhotosDir         string        `envconfig:"PHOTOS_DIR" default:"./photos"`
	DefaultPhoto      string        `envconfig:"DEFAULT_PHOTO" default:"./static/default.jpg"`
	RegisterCountdown time.Duration `envconfig:"REGISTER_COUNTDOWN" default:"0s"`

	// Security
	APIKeyHash string `envconfig:"API_KEY_HASH"`

	// Webhook
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (supported: sqlite, postgres)", c.StoreDriver)
	}

	switch c.CameraDriver {
	case "snapshot":
		if c.CameraURL == "" {
			return fmt.Errorf("CAMERA_URL is required for the snapshot camera")
		}
	case "directory":
		if c.CameraDir == "" {
			return fmt.Errorf("CAMERA_DIR is required for the directory camera")
		}
	case "webcam":
	default:
		return fmt.Errorf("unknown CAMERA_DRIVER %q (supported: snapshot, directory, webcam)", c.CameraDriver)
	}

	if c.MatchThreshold < 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be >= 0, got %v", c.MatchThreshold)
	}
	if c.MatchPolicy != "first" && c.MatchPolicy != "all" {
		return fmt.Errorf("unknown MATCH_POLICY %q (supported: first, all)", c.MatchPolicy)
	}
	if c.DescriptorDimension < 0 {
		return fmt.Errorf("DESCRIPTOR_DIMENSION must be >= 0")
	}
	if c.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("MAX_CONSECUTIVE_FAILURES must be >= 1")
	}
	if c.DedupInterval < 0 {
		return fmt.Errorf("DEDUP_INTERVAL must be >= 0")
	}
	if c.AttendanceRetentionDays < 0 {
		return fmt.Errorf("ATTENDANCE_RETENTION_DAYS must be >= 0")
	}
	if c.WebhookURL != "" && c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
