// Package main hosts the quotereel CLI entrypoint and command graph.
//
// One binary carries both halves: "quotereel serve" runs the render daemon,
// and the remaining commands (submit, status, list) talk to it over the HTTP
// API through internal/api. "config init" scaffolds a configuration file and
// "doctor" runs the preflight and dependency checks locally.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
