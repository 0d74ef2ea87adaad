// Package engine hosts the playback engine: lifecycle state machine,
// source loading and transport, the spatial rendering chain behind the
// SpatialBackend interface, and the audio Context abstraction with an
// offline software implementation.
package engine
