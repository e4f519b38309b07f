package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"quotereel/internal/services"
)

// LoadSubmission reads a submission file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON. Unknown fields are rejected.
func LoadSubmission(path string) (SubmitRequest, error) {
	var req SubmitRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read submission: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(&req)
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&req)
	}
	if err != nil {
		return req, services.Wrap(services.ErrConfiguration, "submit", "parse", filepath.Base(path), err)
	}
	if len(req.Scenes) == 0 {
		return req, services.Wrap(services.ErrConfiguration, "submit", "parse", filepath.Base(path)+" has no scenes", nil)
	}
	return req, nil
}
