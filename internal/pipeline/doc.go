// Package pipeline drives one scene through image synthesis, narration,
// transcription and composition, producing a rendered scene clip.
//
// Steps run strictly in order and none is retried here; retry policy belongs
// to the collaborator behind each interface. Progress is published as Event
// values on a caller-supplied channel so the pipeline never touches the job
// store.
package pipeline
