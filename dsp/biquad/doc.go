// Package biquad implements second-order IIR filter sections in
// Direct Form II Transposed, the runtime building block for the
// renderer's shelving equalizers.
package biquad
