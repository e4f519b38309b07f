package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"quotereel/internal/scene"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	FontDir   string `toml:"font_dir"`
	BGMDir    string `toml:"bgm_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Store selects and configures the job record backend.
type Store struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	SQLitePath  string `toml:"sqlite_path"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Render holds the system default render configuration plus job-wide defaults.
type Render struct {
	scene.RenderConfig
	BGMVolume float64 `toml:"bgm_volume"`
}

// Image configures the image synthesis backends.
type Image struct {
	ComfyUIURL          string `toml:"comfyui_url"`
	Flux2CURL           string `toml:"flux2c_url"`
	StylePrompt         string `toml:"style_prompt"`
	Steps               int    `toml:"steps"`
	Seed                int64  `toml:"seed"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// TTS configures ElevenLabs narration synthesis.
type TTS struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	VoiceID        string  `toml:"voice_id"`
	Model          string  `toml:"model"`
	Stability      float64 `toml:"stability"`
	Similarity     float64 `toml:"similarity"`
	Style          float64 `toml:"style"`
	SpeakerBoost   bool    `toml:"speaker_boost"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Transcription configures the whisper CLI used for subtitle timing.
type Transcription struct {
	Binary   string `toml:"binary"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

// Translation configures DeepL prompt translation.
type Translation struct {
	APIKey         string `toml:"api_key"`
	APIURL         string `toml:"api_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tools names the media binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Server contains HTTP API tuning.
type Server struct {
	StreamPollIntervalMS int `toml:"stream_poll_interval_ms"`
	DefaultListLimit     int `toml:"default_list_limit"`

	// APIToken, when set, is required as a bearer token on every API call
	// except /health.
	APIToken string `toml:"api_token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	JobFailed      bool   `toml:"job_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quotereel.
//
// Configuration sections by subsystem:
//   - Paths: working, output, font and music directories plus API bind address
//   - Store: job record backend (file, sqlite, redis, memory)
//   - Render: system default RenderConfig and background music volume
//   - Image: ComfyUI / flux2c endpoints and wait bounds
//   - TTS: ElevenLabs voice settings
//   - Transcription: whisper CLI
//   - Translation: DeepL prompt translation
//   - Tools: ffmpeg/ffprobe binaries
//   - Server: status stream cadence and list limits
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	Render        Render        `toml:"render"`
	Image         Image         `toml:"image"`
	TTS           TTS           `toml:"tts"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Tools         Tools         `toml:"tools"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("quotereel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// loadDotEnv reads .env files beside the config file and in the working
// directory. Variables already present in the environment are kept.
func loadDotEnv(configPath string) error {
	candidates := []string{filepath.Join(filepath.Dir(configPath), ".env")}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir}
	if c.Store.Backend == StoreFile {
		dirs = append(dirs, c.Store.Dir)
	}
	if c.Store.Backend == StoreSQLite {
		dirs = append(dirs, filepath.Dir(c.Store.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RenderDefaults returns the system default RenderConfig.
func (c *Config) RenderDefaults() scene.RenderConfig {
	return c.Render.RenderConfig
}

// ImageTimeout is the bound on waiting for one generated image.
func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.Image.TimeoutSeconds) * time.Second
}

// ImagePollInterval is the delay between ComfyUI history polls.
func (c *Config) ImagePollInterval() time.Duration {
	return time.Duration(c.Image.PollIntervalSeconds) * time.Second
}

// StreamPollInterval is the status stream cadence.
func (c *Config) StreamPollInterval() time.Duration {
	return time.Duration(c.Server.StreamPollIntervalMS) * time.Millisecond
}

// LockPath is the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "quotereel.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
