// Package eq implements the azimuth-dependent directional equalizer:
// paired shelving filters whose gains follow the source direction through
// a smoothed ramp.
package eq
