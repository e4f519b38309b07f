package encoding

import (
	"strconv"
	"strings"

	"quotereel/internal/composition"
)

const audioBitrate = "192k"

// SceneArgs builds the ffmpeg arguments that loop spec.Image for the length of
// spec.Audio and apply chain.
func SceneArgs(spec composition.Spec, chain composition.Chain) []string {
	fps := spec.FPS
	if fps <= 0 {
		fps = 30
	}
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-loop", "1",
		"-i", spec.Image,
		"-i", spec.Audio,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-shortest",
		"-vf", chain.String(),
		spec.Output,
	}
}

// ConcatList renders a concat demuxer list for clips in order.
func ConcatList(clips []string) string {
	var b strings.Builder
	for _, clip := range clips {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(clip, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// ConcatArgs joins the clips listed in listFile by stream copy.
func ConcatArgs(listFile, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
}

// MixArgs loops bgm, attenuates it by volume and mixes it under the audio of
// video. The output never runs past the narration.
func MixArgs(video, bgm string, volume float64, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", video,
		"-stream_loop", "-1",
		"-i", bgm,
		"-filter_complex", "[1:a]volume=" + strconv.FormatFloat(volume, 'f', -1, 64) + "[bgm];[0:a][bgm]amix=inputs=2:duration=first[aout]",
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		output,
	}
}
