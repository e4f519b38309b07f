package workflow

import (
	"log/slog"
	"time"

	"quotereel/internal/assembly"
	"quotereel/internal/config"
	"quotereel/internal/encoding"
	"quotereel/internal/jobstore"
	"quotereel/internal/media/ffprobe"
	"quotereel/internal/notifications"
	"quotereel/internal/pipeline"
	"quotereel/internal/services/comfyui"
	"quotereel/internal/services/deepl"
	"quotereel/internal/services/elevenlabs"
	"quotereel/internal/services/flux2c"
	"quotereel/internal/services/whisper"
)

// NewProductionManager wires the Manager to the real collaborators
// configured in cfg.
func NewProductionManager(cfg *config.Config, store jobstore.Store, logger *slog.Logger) *Manager {
	encoder := encoding.NewEncoder(cfg.Tools.FFmpeg, encoding.WithLogger(logger))
	prober := ffprobe.New(cfg.Tools.FFprobe)

	scenes := pipeline.New(pipeline.Dependencies{
		Synthesizer: elevenlabs.New(elevenlabs.Config{
			APIKey:       cfg.TTS.APIKey,
			BaseURL:      cfg.TTS.BaseURL,
			VoiceID:      cfg.TTS.VoiceID,
			Model:        cfg.TTS.Model,
			Stability:    cfg.TTS.Stability,
			Similarity:   cfg.TTS.Similarity,
			Style:        cfg.TTS.Style,
			SpeakerBoost: cfg.TTS.SpeakerBoost,
			Timeout:      time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
		}),
		Transcriber: whisper.NewService(whisper.Config{
			Binary:   cfg.Transcription.Binary,
			Model:    cfg.Transcription.Model,
			Language: cfg.Transcription.Language,
		}),
		Translator: deepl.New(deepl.Config{
			APIKey:  cfg.Translation.APIKey,
			APIURL:  cfg.Translation.APIURL,
			Timeout: time.Duration(cfg.Translation.TimeoutSeconds) * time.Second,
		}, deepl.WithLogger(logger)),
		Renderer:    encoder,
		Prober:      prober,
		FontDir:     cfg.Paths.FontDir,
		StylePrompt: cfg.Image.StylePrompt,
	}, logger)

	return NewManager(cfg, store, Dependencies{
		Scenes:    scenes,
		Assembler: assembly.New(encoder, logger),
		Images:    imageBackends(cfg),
		Notifier:  notifications.NewService(cfg),
		Prober:    prober,
	}, logger)
}

func imageBackends(cfg *config.Config) pipeline.Backends {
	fluxConfig := func(url string) flux2c.Config {
		return flux2c.Config{
			BaseURL: url,
			Steps:   cfg.Image.Steps,
			Seed:    cfg.Image.Seed,
			Timeout: cfg.ImageTimeout(),
		}
	}
	backends := pipeline.Backends{
		NewFlux2C: func(url string) pipeline.ImageGenerator {
			return flux2c.New(fluxConfig(url))
		},
	}
	if cfg.Image.ComfyUIURL != "" {
		backends.ComfyUI = comfyui.New(comfyui.Config{
			BaseURL:      cfg.Image.ComfyUIURL,
			Steps:        cfg.Image.Steps,
			Seed:         cfg.Image.Seed,
			Timeout:      cfg.ImageTimeout(),
			PollInterval: cfg.ImagePollInterval(),
		})
	}
	if cfg.Image.Flux2CURL != "" {
		backends.Flux2C = flux2c.New(fluxConfig(cfg.Image.Flux2CURL))
	}
	return backends
}
