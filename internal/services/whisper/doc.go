// Package whisper runs the whisper speech-to-text CLI over narration audio and
// returns timed transcript segments for subtitle rendering.
//
// The CLI writes <audio-base>.json into an output directory; only the
// segments array of that document is consumed.
package whisper
