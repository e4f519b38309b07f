// Package composition builds the ordered ffmpeg video filter chain for one
// scene: contain-scale and pad, fades, quote and author overlays, and the
// subtitle overlay.
//
// Build is pure. The same Spec always yields the same Chain, so chains can be
// compared as snapshots in tests.
package composition
