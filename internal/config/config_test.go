package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads postgres store",
			envVars: map[string]string{
				"PORT":         "8080",
				"ENV":          "production",
				"STORE_DRIVER": "postgres",
				"DATABASE_URL": "postgres://localhost/test",
				"CAMERA_URL":   "http://camera.local/snapshot.jpg",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.StoreDriver == "postgres" &&
					c.DatabaseURL == "postgres://localhost/test"
			},
		},
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"CAMERA_URL": "http://camera.local/snapshot.jpg",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.StoreDriver == "sqlite" &&
					c.CameraDriver == "webcam" &&
					c.SQLitePath == "./data/attendance.db" &&
					c.FaceLocator == "deepface" &&
					c.MatchThreshold == 0.6 &&
					c.MatchPolicy == "first" &&
					c.MaxConsecutiveFailures == 2 &&
					c.DedupInterval == 5*time.Minute &&
					c.CameraFrameInterval == 200*time.Millisecond
			},
		},
		{
			name: "directory camera",
			envVars: map[string]string{
				"CAMERA_DRIVER": "directory",
				"CAMERA_DIR":    "./frames",
				"MATCH_POLICY":  "all",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.CameraDriver == "directory" && c.MatchPolicy == "all"
			},
		},
		{
			name: "fails when DATABASE_URL missing for postgres",
			envVars: map[string]string{
				"STORE_DRIVER": "postgres",
				"CAMERA_URL":   "http://camera.local/snapshot.jpg",
			},
			wantErr: true,
		},
		{
			name: "fails when CAMERA_URL missing for snapshot camera",
			envVars: map[string]string{
				"CAMERA_DRIVER": "snapshot",
			},
			wantErr: true,
		},
		{
			name: "fails on negative threshold",
			envVars: map[string]string{
				"CAMERA_URL":      "http://camera.local/snapshot.jpg",
				"MATCH_THRESHOLD": "-0.1",
			},
			wantErr: true,
		},
		{
			name: "fails on unknown match policy",
			envVars: map[string]string{
				"CAMERA_URL":   "http://camera.local/snapshot.jpg",
				"MATCH_POLICY": "best",
			},
			wantErr: true,
		},
		{
			name: "fails when webhook has no secret",
			envVars: map[string]string{
				"CAMERA_URL":  "http://camera.local/snapshot.jpg",
				"WEBHOOK_URL": "https://hooks.example.com/ponto",
			},
			wantErr: true,
		},
		{
			name: "fails on malformed duration",
			envVars: map[string]string{
				"CAMERA_URL":     "http://camera.local/snapshot.jpg",
				"DEDUP_INTERVAL": "five minutes",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
