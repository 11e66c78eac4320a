// Package overlay derives highlight geometry for the currently rendered
// page and keeps it fresh. Rectangles are recomputed from the text
// layer on every refresh and never persisted; the annotations are the
// source of truth.
package overlay
