// Package scene defines the render inputs submitted by clients and the
// resolution rules that turn them into a concrete RenderConfig.
//
// A Scene carries narration, an image prompt, optional quote/author text and
// optional per-scene style overrides. JobOptions carries the job-wide
// overrides plus settings that only make sense once per job (resolution,
// image backend, background music). Resolve merges scene, job and system
// defaults with that precedence; it is pure and never fails when the default
// RenderConfig is complete.
//
// Validate* helpers use go-playground/validator so range and enum checks live
// next to the struct definitions as tags.
package scene
