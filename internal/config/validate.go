package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"quotereel/internal/scene"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreFile, StoreSQLite, StoreMemory:
		return nil
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr must be set when store.backend is redis")
		}
		if c.Store.RedisDB < 0 {
			return errors.New("store.redis_db must be >= 0")
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want file, sqlite, redis or memory)", c.Store.Backend)
	}
}

func (c *Config) validateRender() error {
	if err := scene.ValidateRenderConfig(c.Render.RenderConfig); err != nil {
		return fmt.Errorf("[render]: %w", err)
	}
	if c.Render.BGMVolume < 0 || c.Render.BGMVolume > 1 {
		return errors.New("render.bgm_volume must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateImage() error {
	if c.Image.TimeoutSeconds <= 0 {
		return errors.New("image.timeout_seconds must be positive")
	}
	if c.Image.PollIntervalSeconds <= 0 {
		return errors.New("image.poll_interval_seconds must be positive")
	}
	if c.Image.Steps <= 0 {
		return errors.New("image.steps must be positive")
	}
	for name, raw := range map[string]string{"image.comfyui_url": c.Image.ComfyUIURL, "image.flux2c_url": c.Image.Flux2CURL} {
		if raw == "" {
			continue
		}
		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Render.ImageBackend == scene.BackendComfyUI && c.Image.ComfyUIURL == "" {
		return errors.New("image.comfyui_url must be set when render.image_backend is comfyui")
	}
	return nil
}

func (c *Config) validateTTS() error {
	for name, value := range map[string]float64{
		"tts.stability":  c.TTS.Stability,
		"tts.similarity": c.TTS.Similarity,
		"tts.style":      c.TTS.Style,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if strings.TrimSpace(c.TTS.VoiceID) == "" {
		return errors.New("tts.voice_id must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
