// Package services holds the cross-cutting helpers shared by the render
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, scene indexes, and
//     correlation identifiers for logging.
//   - Error markers plus the Wrap helper, so every failure can be classified
//     as a configuration, lookup, stage, timeout, or storage problem with
//     errors.Is.
//   - Details, which flattens a wrapped error into the diagnostic record kept
//     on a failed job.
//
// External integrations live in sub-packages (comfyui, flux2c, elevenlabs,
// whisper, deepl) and report failures through these markers.
package services
