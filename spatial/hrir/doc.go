// Package hrir loads directional impulse-response datasets, answers
// nearest-direction queries over the measurement grid, resamples impulse
// responses to the live output rate, and assembles the fixed eight-channel
// binaural filter bank.
//
// The dataset comes as two resources: a JSON metadata descriptor listing
// the IR tensor shape [M,R,N], the M measured source positions, and the
// measurement sample rate; and a binary payload of little-endian float32
// samples in row-major [position][receiver][sample] order, receiver 0
// being the left ear.
package hrir
