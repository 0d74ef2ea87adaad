// Package conv provides linear convolution routines: direct time-domain
// convolution for short kernels, FFT-based overlap-add for long ones, and
// a streaming convolver that carries state across block boundaries for
// real-time filtering.
package conv
