// Package coords maps between 2D interaction points, azimuth/elevation
// directions, and the quaternion display readout. All functions are pure.
package coords
