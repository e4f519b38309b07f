// Package preflight provides readiness checks for the filesystem paths,
// fonts, job store and external services quotereel depends on.
//
// The CLI "quotereel doctor" command runs RunAll and prints one line per
// check. Service checks are skipped when the service is not configured.
package preflight
