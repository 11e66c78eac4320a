// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: uploaded document persistence
//   - AnnotationStore: annotation metadata persistence (blob-stripped)
//   - AudioStore: audio blob persistence, keyed by memo ID
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RenderProvider: resolves a page/section to its text layer. Without
//     it, highlight computation is unavailable but annotation CRUD works.
//   - AudioRecorder: voice capture. Without it, annotations simply carry
//     no audio memo.
//
// # Import Rules
//
//   - Can Import: domain and anchor packages only
//   - Cannot Import: Any adapter package
package driven
