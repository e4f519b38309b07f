package pipeline

import (
	"strings"

	"quotereel/internal/scene"
	"quotereel/internal/services"
)

// Backends selects the image generator for a job.
type Backends struct {
	ComfyUI ImageGenerator
	Flux2C  ImageGenerator
	// NewFlux2C builds a generator for a job-specific flux2c endpoint. Each
	// call yields an independent client.
	NewFlux2C func(baseURL string) ImageGenerator
}

// For returns the generator for backend. flux2cURL, when set, overrides the
// configured flux2c endpoint for this job only.
func (b Backends) For(backend, flux2cURL string) (ImageGenerator, error) {
	switch strings.TrimSpace(backend) {
	case scene.BackendComfyUI:
		if b.ComfyUI == nil {
			return nil, services.Wrap(services.ErrConfiguration, "image", "select backend", "comfyui is not configured", nil)
		}
		return b.ComfyUI, nil
	case scene.BackendFlux2C:
		if url := strings.TrimSpace(flux2cURL); url != "" && b.NewFlux2C != nil {
			return b.NewFlux2C(url), nil
		}
		if b.Flux2C == nil {
			return nil, services.Wrap(services.ErrConfiguration, "image", "select backend", "flux2c url is not configured", nil)
		}
		return b.Flux2C, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "image", "select backend", "unknown image backend "+backend, nil)
	}
}
