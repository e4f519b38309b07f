// Package job defines the durable render job record and its state machine.
//
// A Job moves pending -> processing -> completed|failed and never backwards.
// Mutations are expressed as Patch values and applied through Job.Apply,
// which every store backend calls inside its atomic read/replace so the
// transition rules hold regardless of where the record lives.
package job
