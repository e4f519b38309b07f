// Package api defines the wire format of the quotereel HTTP API and a client
// for it.
//
// # Key Types
//
// SubmitRequest: the POST /api/jobs body, scenes plus job-level options.
//
// SubmitResponse, JobListResponse, Health: response payloads. Job records are
// sent as job.Job directly; its JSON tags are the wire format.
//
// ErrorResponse: body of every non-2xx response, carrying the error kind so
// clients can map it back onto the services error markers.
//
// # Status Stream
//
// GET /api/jobs/{id}/events is a text/event-stream. Each change is sent as an
// EventStatus event whose data is the job record; the stream ends with one
// EventCompleted or EventFailed event. Client.Follow consumes it.
//
// # Submission Files
//
// LoadSubmission reads a submission from a YAML or JSON file so the CLI can
// submit hand-written scene lists.
package api
