// Package subtitles turns transcript segments into a styled, positioned
// subtitle timeline and renders it as an ASS document for the ffmpeg
// subtitles filter.
package subtitles
