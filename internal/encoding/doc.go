// Package encoding invokes ffmpeg for quotereel's three render steps: encoding
// a still image and narration into a scene clip, concatenating clips by stream
// copy, and mixing a looped background music bed under the narration.
//
// Every scene clip is encoded with the same codec settings (libx264, yuv420p,
// AAC 192k, fixed frame rate) so the concat demuxer can join them without
// re-encoding.
package encoding
