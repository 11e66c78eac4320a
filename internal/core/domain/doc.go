// Package domain defines the core business entities for Margine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded PDF or EPUB with its file bytes
//   - Annotation: A rich note anchored to a span of document text
//   - AnnotationLocation: The discriminated text anchor (page or CFI)
//   - AudioMemo: A voice recording owned by one annotation
//   - HighlightRect: Derived overlay geometry, never persisted
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
