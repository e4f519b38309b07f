// Package daemon coordinates the long-running quotereel process.
//
// It wires configuration, the job store and the workflow manager into a single
// lifecycle with flock-based locking so only one daemon renders into a given
// log directory. Start fails jobs left non-terminal by a previous run, then
// serves the HTTP API: job submission, job lookup and listing, a server-sent
// event status stream, artifact download with Range support, and /health.
//
// Keep orchestration logic here: rendering lives in workflow and pipeline while
// the daemon focuses on startup, shutdown and the HTTP surface.
package daemon
