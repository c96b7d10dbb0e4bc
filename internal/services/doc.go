// Package services defines shared utilities consumed by the recommendation
// pipeline, the HTTP API, and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation and user identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable with errors.Is, and the mapping from those markers to HTTP
//     status codes.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the repository.
package services
