// Package core provides shared numeric helpers for the renderer's DSP code.
package core
