// SPDX-License-Identifier: MIT

// Package config provides configuration management for reelsd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the YAML configuration structure.
type FileConfig struct {
	LogLevel string `yaml:"logLevel,omitempty"`

	Feed     FeedConfig     `yaml:"feed"`
	Music    MusicConfig    `yaml:"music"`
	Playback PlaybackConfig `yaml:"playback"`
	Cache    CacheConfig    `yaml:"cache"`
	API      APIConfig      `yaml:"api"`
}

// FeedConfig holds the feed source settings.
type FeedConfig struct {
	// Path is the feed JSON file served as the ordered item list.
	Path string `yaml:"path"`
	// Watch enables hot-reload of the feed file on change.
	Watch bool `yaml:"watch,omitempty"`
	// LinkStatePath is the deep-link state file; empty disables persistence.
	LinkStatePath string `yaml:"linkStatePath,omitempty"`
}

// MusicConfig holds the music lookup settings.
type MusicConfig struct {
	// DBPath is the SQLite database holding product music rows.
	DBPath string `yaml:"dbPath"`
}

// PlaybackConfig tunes the synchronizer and audio engine.
type PlaybackConfig struct {
	FadeIn       time.Duration `yaml:"fadeIn,omitempty"`
	FadeOut      time.Duration `yaml:"fadeOut,omitempty"`
	SettleDelay  time.Duration `yaml:"settleDelay,omitempty"`
	CoolDown     time.Duration `yaml:"coolDown,omitempty"`
	SwipeMinPx   float64       `yaml:"swipeMinPx,omitempty"`
	SlideAdvance time.Duration `yaml:"slideAdvance,omitempty"`
}

// CacheConfig bounds the media preload window.
type CacheConfig struct {
	LookAhead  int `yaml:"lookAhead,omitempty"`
	LookBehind int `yaml:"lookBehind,omitempty"`
	// PreloadConcurrency bounds parallel preload fetches per window shift.
	PreloadConcurrency int `yaml:"preloadConcurrency,omitempty"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Listen string `yaml:"listen,omitempty"`
	// RateLimit is the per-IP request budget per minute for input endpoints.
	RateLimit int `yaml:"rateLimit,omitempty"`
}

// Defaults returns a FileConfig populated with production defaults.
func Defaults() FileConfig {
	return FileConfig{
		LogLevel: "info",
		Feed: FeedConfig{
			Path:          "feed.json",
			Watch:         true,
			LinkStatePath: "",
		},
		Music: MusicConfig{
			DBPath: "music.db",
		},
		Playback: PlaybackConfig{
			FadeIn:       500 * time.Millisecond,
			FadeOut:      500 * time.Millisecond,
			SettleDelay:  40 * time.Millisecond,
			CoolDown:     600 * time.Millisecond,
			SwipeMinPx:   50,
			SlideAdvance: 3 * time.Second,
		},
		Cache: CacheConfig{
			LookAhead:          2,
			LookBehind:         1,
			PreloadConcurrency: 3,
		},
		API: APIConfig{
			Listen:    ":8088",
			RateLimit: 600,
		},
	}
}

// Load reads the YAML file at path (if non-empty), layers it over Defaults,
// applies environment overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays REELS_* environment variables over the file values.
func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("REELS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REELS_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}
	if v := os.Getenv("REELS_MUSIC_DB"); v != "" {
		cfg.Music.DBPath = v
	}
	if v := os.Getenv("REELS_API_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
	if v := os.Getenv("REELS_CACHE_LOOKAHEAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.LookAhead = n
		}
	}
	if v := os.Getenv("REELS_CACHE_LOOKBEHIND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.LookBehind = n
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c FileConfig) Validate() error {
	if c.Feed.Path == "" {
		return fmt.Errorf("feed.path must be set")
	}
	if c.Playback.FadeIn < 0 || c.Playback.FadeOut < 0 {
		return fmt.Errorf("playback fade durations must be >= 0")
	}
	if c.Playback.CoolDown <= 0 {
		return fmt.Errorf("playback.coolDown must be > 0, got %v", c.Playback.CoolDown)
	}
	if c.Playback.SwipeMinPx <= 0 {
		return fmt.Errorf("playback.swipeMinPx must be > 0, got %v", c.Playback.SwipeMinPx)
	}
	if c.Playback.SlideAdvance <= 0 {
		return fmt.Errorf("playback.slideAdvance must be > 0, got %v", c.Playback.SlideAdvance)
	}
	if c.Cache.LookAhead < 0 || c.Cache.LookBehind < 0 {
		return fmt.Errorf("cache window counts must be >= 0")
	}
	if c.Cache.PreloadConcurrency <= 0 {
		return fmt.Errorf("cache.preloadConcurrency must be > 0, got %d", c.Cache.PreloadConcurrency)
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rateLimit must be > 0, got %d", c.API.RateLimit)
	}
	return nil
}
