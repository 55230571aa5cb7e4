// Package config loads the café service configuration from an optional YAML
// file with CAFE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RootPath string `yaml:"root_path"`
	Listen   string `yaml:"listen"`
	Timezone string `yaml:"timezone"`

	// TrustedProxies lists the proxies whose X-Forwarded-For is believed.
	// Empty means the client address is always the peer address.
	TrustedProxies []string `yaml:"trusted_proxies"`

	Log       LogConfig       `yaml:"log"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	S3        S3Config        `yaml:"s3"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type GalleryConfig struct {
	// Interval and Fade seed the stored settings on first run.
	Interval string `yaml:"interval"`
	Fade     string `yaml:"fade"`
	// LocalDir is watched for photos dropped on disk; relative to RootPath.
	LocalDir string `yaml:"local_dir"`
}

type S3Config struct {
	Enabled       bool   `yaml:"enabled"`
	Profile       string `yaml:"profile"`
	Bucket        string `yaml:"bucket"`
	GalleryPrefix string `yaml:"gallery_prefix"`
	UploadPrefix  string `yaml:"upload_prefix"`
	SyncInterval  string `yaml:"sync_interval"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AdminConfig struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	SessionTTL   string `yaml:"session_ttl"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

func Default() *Config {
	return &Config{
		RootPath: ".",
		Listen:   "0.0.0.0:8080",
		Timezone: "America/Fortaleza",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Gallery: GalleryConfig{
			Interval: "3s",
			Fade:     "500ms",
			LocalDir: "gallery",
		},
		S3: S3Config{
			GalleryPrefix: "gallery/",
			UploadPrefix:  "uploads/",
			SyncInterval:  "1h",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Admin: AdminConfig{
			SessionTTL: "12h",
		},
		RateLimit: RateLimitConfig{
			PerMinute: 6,
			Burst:     3,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("CAFE_ROOT_PATH", &c.RootPath)
	str("CAFE_LISTEN", &c.Listen)
	str("CAFE_TIMEZONE", &c.Timezone)
	str("CAFE_LOG_LEVEL", &c.Log.Level)
	str("CAFE_LOG_FORMAT", &c.Log.Format)
	str("CAFE_GALLERY_INTERVAL", &c.Gallery.Interval)
	str("CAFE_GALLERY_FADE", &c.Gallery.Fade)
	str("CAFE_AWS_PROFILE", &c.S3.Profile)
	str("CAFE_S3_BUCKET", &c.S3.Bucket)
	str("CAFE_S3_GALLERY_PREFIX", &c.S3.GalleryPrefix)
	str("CAFE_GEMINI_API_KEY", &c.Gemini.APIKey)
	str("CAFE_GEMINI_MODEL", &c.Gemini.Model)
	str("CAFE_ADMIN_EMAIL", &c.Admin.Email)
	str("CAFE_ADMIN_PASSWORD_HASH", &c.Admin.PasswordHash)

	if v, ok := lookup("CAFE_TRUSTED_PROXIES"); ok && v != "" {
		c.TrustedProxies = nil
		for _, proxy := range strings.Split(v, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				c.TrustedProxies = append(c.TrustedProxies, proxy)
			}
		}
	}

	if v, ok := lookup("CAFE_S3_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CAFE_S3_ENABLED: %w", err)
		}
		c.S3.Enabled = enabled
	}
	// a bucket without the flag still turns s3 on
	if _, ok := lookup("CAFE_S3_ENABLED"); !ok && c.S3.Bucket != "" {
		c.S3.Enabled = true
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen: must not be empty"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	interval, err := ParseDurationOrDefault("gallery.interval", c.Gallery.Interval, 3*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	fade, err := ParseDurationOrDefault("gallery.fade", c.Gallery.Fade, 500*time.Millisecond)
	if err != nil {
		errs = append(errs, err)
	}
	if interval > 0 && fade > 0 && fade >= interval {
		errs = append(errs, fmt.Errorf("gallery: fade %s must be shorter than interval %s", fade, interval))
	}

	if _, err := ParseDurationField("s3.sync_interval", c.S3.SyncInterval); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("admin.session_ttl", c.Admin.SessionTTL); err != nil {
		errs = append(errs, err)
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket: required when s3 is enabled"))
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit: per_minute and burst must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.RootPath, "cafe.db")
}

func (c *Config) LocalGalleryPath() string {
	if filepath.IsAbs(c.Gallery.LocalDir) {
		return c.Gallery.LocalDir
	}
	return filepath.Join(c.RootPath, c.Gallery.LocalDir)
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) GalleryInterval() time.Duration {
	d, _ := ParseDurationOrDefault("gallery.interval", c.Gallery.Interval, 3*time.Second)
	return d
}

func (c *Config) GalleryFade() time.Duration {
	d, _ := ParseDurationOrDefault("gallery.fade", c.Gallery.Fade, 500*time.Millisecond)
	return d
}

func (c *Config) SyncInterval() time.Duration {
	d, _ := ParseDurationOrDefault("s3.sync_interval", c.S3.SyncInterval, time.Hour)
	return d
}

func (c *Config) SessionTTL() time.Duration {
	d, _ := ParseDurationOrDefault("admin.session_ttl", c.Admin.SessionTTL, 12*time.Hour)
	return d
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
