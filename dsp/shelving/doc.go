// Package shelving designs Butterworth low- and high-shelving filters
// as biquad cascades via the bilinear transform.
package shelving
