// Package audit records security-relevant decisions made by the request
// pipeline: threat matches, rate-limit rejections, authorization denials,
// and successful passes through all enabled stages.
//
// # Events
//
// Every pipeline decision produces an immutable Event carrying the event
// type, a severity matching its risk, the client identifier, and a free-form
// details map. Events are created once and handed to a Logger; they are
// never mutated afterwards.
//
// # Sinks
//
// Several Logger implementations are provided:
//
//	MemoryStore   - bounded in-memory ring, for tests and recent-event queries
//	FileLogger    - newline-delimited JSON with size-based rotation
//	DBLogger      - PostgreSQL table with forensic indexes
//	LogrusLogger  - mirrors events into the application log stream
//	MultiLogger   - asynchronous fan-out to any of the above
//
// Logging is best-effort from the pipeline's perspective: a sink failure is
// never allowed to fail the request being audited.
package audit
