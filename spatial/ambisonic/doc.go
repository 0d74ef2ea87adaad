// Package ambisonic encodes a mono signal into first-order B-format
// (W, X, Y, Z) channel gains steered by a direction.
package ambisonic
