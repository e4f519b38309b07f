package config

import (
	"fmt"
	"os"
	"strings"

	"quotereel/internal/scene"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.font_dir", &c.Paths.FontDir, defaultFontDir},
		{"paths.bgm_dir", &c.Paths.BGMDir, defaultBGMDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
	var err error
	if strings.TrimSpace(c.Store.Dir) == "" {
		c.Store.Dir = defaultStoreDir
	}
	if c.Store.Dir, err = expandPath(c.Store.Dir); err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = defaultSQLitePath
	}
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	if value, ok := os.LookupEnv("QUOTEREEL_REDIS_ADDR"); ok && strings.TrimSpace(value) != "" {
		c.Store.RedisAddr = strings.TrimSpace(value)
	}
	c.Store.RedisAddr = strings.TrimSpace(c.Store.RedisAddr)
	c.Store.RedisPrefix = strings.Trim(strings.TrimSpace(c.Store.RedisPrefix), ":")
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = defaultRedisPrefix
	}
	return nil
}

func (c *Config) normalizeRender() error {
	r := &c.Render.RenderConfig
	r.SubtitlePosition = strings.ToLower(strings.TrimSpace(r.SubtitlePosition))
	r.ImageBackend = strings.ToLower(strings.TrimSpace(r.ImageBackend))
	r.SubtitleFont = strings.TrimSpace(r.SubtitleFont)
	r.QuoteFont = strings.TrimSpace(r.QuoteFont)
	r.AuthorFont = strings.TrimSpace(r.AuthorFont)
	if strings.TrimSpace(r.Language) != "" {
		lang, err := scene.NormalizeLanguage(r.Language)
		if err != nil {
			return fmt.Errorf("render.language: %w", err)
		}
		r.Language = lang
	}
	return nil
}

func (c *Config) normalizeServices() {
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("DEEPL_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("QUOTEREEL_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("COMFYUI_URL"); ok && strings.TrimSpace(value) != "" {
		c.Image.ComfyUIURL = strings.TrimSpace(value)
	}
	c.Image.ComfyUIURL = strings.TrimRight(strings.TrimSpace(c.Image.ComfyUIURL), "/")
	c.Image.Flux2CURL = strings.TrimRight(strings.TrimSpace(c.Image.Flux2CURL), "/")
	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultElevenLabsURL
	}
	if strings.TrimSpace(c.Translation.APIURL) == "" {
		c.Translation.APIURL = defaultDeepLURL
	}
	if strings.TrimSpace(c.Transcription.Binary) == "" {
		c.Transcription.Binary = defaultWhisperBinary
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if c.Server.StreamPollIntervalMS <= 0 {
		c.Server.StreamPollIntervalMS = defaultStreamPollMS
	}
	if c.Server.DefaultListLimit <= 0 {
		c.Server.DefaultListLimit = defaultListLimit
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
