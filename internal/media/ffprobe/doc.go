// Package ffprobe inspects rendered media with ffprobe.
//
// The pipeline uses it to read narration length, which drives the fade-out
// start, and the assembler uses it to describe the final artifact.
package ffprobe
