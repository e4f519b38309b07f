package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ffmpegFeatures are the encoders and filters scene rendering depends on.
var ffmpegFeatures = []struct {
	listFlag string
	name     string
}{
	{"-encoders", "libx264"},
	{"-encoders", "aac"},
	{"-filters", "subtitles"},
	{"-filters", "drawtext"},
	{"-filters", "zoompan"},
	{"-filters", "amix"},
}

// CheckFFmpegFeatures reports whether the ffmpeg build at binary was compiled
// with every encoder and filter the renderer uses.
func CheckFFmpegFeatures(ctx context.Context, binary string) Status {
	status := Status{
		Name:        "FFmpeg features",
		Command:     binary,
		Description: "libx264, aac, libass subtitles, drawtext, zoompan, amix",
	}
	listings := map[string]string{}
	var missing []string
	for _, feature := range ffmpegFeatures {
		listing, ok := listings[feature.listFlag]
		if !ok {
			out, err := ffmpegListing(ctx, binary, feature.listFlag)
			if err != nil {
				status.Detail = err.Error()
				return status
			}
			listing = out
			listings[feature.listFlag] = listing
		}
		if !hasFeature(listing, feature.name) {
			missing = append(missing, feature.name)
		}
	}
	if len(missing) > 0 {
		status.Detail = "missing " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

func ffmpegListing(ctx context.Context, binary, flag string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(runCtx, binary, "-hide_banner", flag).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", binary, flag, err)
	}
	return string(out), nil
}

// hasFeature looks for name as the second column of an ffmpeg -encoders or
// -filters listing.
func hasFeature(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
