package config

import "quotereel/internal/scene"

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

const (
	defaultConfigPath          = "~/.config/quotereel/config.toml"
	defaultWorkDir             = "~/.local/share/quotereel/work"
	defaultOutputDir           = "~/.local/share/quotereel/output"
	defaultFontDir             = "~/.local/share/quotereel/assets/font"
	defaultBGMDir              = "~/.local/share/quotereel/assets/bgm"
	defaultLogDir              = "~/.local/share/quotereel/logs"
	defaultStoreDir            = "~/.local/share/quotereel/jobs"
	defaultSQLitePath          = "~/.local/share/quotereel/jobs.db"
	defaultAPIBind             = "127.0.0.1:7890"
	defaultRedisAddr           = "127.0.0.1:6379"
	defaultRedisPrefix         = "quotereel"
	defaultBGMVolume           = 0.15
	defaultComfyUIURL          = "http://127.0.0.1:8188"
	defaultImageSteps          = 4
	defaultImageTimeoutSeconds = 600
	defaultImagePollSeconds    = 2
	defaultStylePrompt         = "Minimalist Notion-style illustration, pencil sketch aesthetic, vintage paper background, thick black outlines, clean composition, philosophical and artistic mood, hand-drawn feel"
	defaultElevenLabsURL       = "https://api.elevenlabs.io"
	defaultElevenLabsVoice     = "uyVNoMrnUku1dZyVEXwD"
	defaultElevenLabsModel     = "eleven_multilingual_v2"
	defaultTTSTimeoutSeconds   = 120
	defaultWhisperBinary       = "whisper"
	defaultWhisperModel        = "large-v3"
	defaultDeepLURL            = "https://api-free.deepl.com/v2/translate"
	defaultDeepLTimeoutSeconds = 10
	defaultStreamPollMS        = 1000
	defaultListLimit           = 20
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			FontDir:   defaultFontDir,
			BGMDir:    defaultBGMDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Store: Store{
			Backend:     StoreFile,
			Dir:         defaultStoreDir,
			SQLitePath:  defaultSQLitePath,
			RedisAddr:   defaultRedisAddr,
			RedisPrefix: defaultRedisPrefix,
		},
		Render: Render{
			RenderConfig: scene.DefaultRenderConfig(),
			BGMVolume:    defaultBGMVolume,
		},
		Image: Image{
			ComfyUIURL:          defaultComfyUIURL,
			StylePrompt:         defaultStylePrompt,
			Steps:               defaultImageSteps,
			Seed:                -1,
			TimeoutSeconds:      defaultImageTimeoutSeconds,
			PollIntervalSeconds: defaultImagePollSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultElevenLabsURL,
			VoiceID:        defaultElevenLabsVoice,
			Model:          defaultElevenLabsModel,
			Stability:      0.2,
			Similarity:     0.75,
			Style:          0,
			SpeakerBoost:   true,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Transcription: Transcription{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		Translation: Translation{
			APIURL:         defaultDeepLURL,
			TimeoutSeconds: defaultDeepLTimeoutSeconds,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Server: Server{
			StreamPollIntervalMS: defaultStreamPollMS,
			DefaultListLimit:     defaultListLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
