// Package config loads, normalizes, and validates the quotereel TOML
// configuration.
//
// Load applies repository defaults, reads an optional .env file for secrets,
// expands ~ in paths, pulls API keys from the environment when the file leaves
// them blank, and validates every section. CreateSample writes the embedded
// annotated sample used by `quotereel config init`.
package config
