// Package audiofile decodes compressed audio bytes (WAV, MP3, OGG Vorbis)
// into per-channel sample buffers and provides mono downmixing.
package audiofile
