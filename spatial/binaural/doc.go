// Package binaural decodes first-order B-format audio to two ear signals
// by convolving each ambisonic channel with its filter-bank pair.
package binaural
