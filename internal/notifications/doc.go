// Package notifications delivers render job events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Workflow code
// depends only on the Service interface.
package notifications
