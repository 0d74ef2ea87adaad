package engine

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// gainRampSeconds is the smoothing time for master-gain changes. Gain
// moves through a per-sample ramp, never a jump, so rapid volume updates
// stay click-free.
const gainRampSeconds = 0.05

// gainNode applies a smoothly ramped gain to a stereo block.
type gainNode struct {
	sampleRate float64
	current    float64
	target     float64
	step       float64
	ramp       []float64
}

func newGainNode(sampleRate, gain float64) *gainNode {
	return &gainNode{
		sampleRate: sampleRate,
		current:    gain,
		target:     gain,
	}
}

// setTarget schedules a ramp from the current gain to v.
func (g *gainNode) setTarget(v float64) {
	g.target = v

	samples := gainRampSeconds * g.sampleRate
	if samples < 1 {
		samples = 1
	}

	g.step = (g.target - g.current) / samples
}

// processBlock applies the gain ramp to both channels in place.
func (g *gainNode) processBlock(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}

	if cap(g.ramp) < n {
		g.ramp = make([]float64, n)
	}

	ramp := g.ramp[:n]

	for i := range ramp {
		if g.current != g.target {
			g.current += g.step
			if (g.step > 0 && g.current > g.target) || (g.step < 0 && g.current < g.target) {
				g.current = g.target
			}
		}

		ramp[i] = g.current
	}

	vecmath.MulBlockInPlace(left, ramp)
	vecmath.MulBlockInPlace(right, ramp)
}

// bufferSource is a one-shot playback handle feeding the encoder input.
// Handles are never restarted: Play always builds a fresh one. An explicit
// stop suppresses the end-of-playback notification; only a handle that
// runs off the end of a non-looping buffer fires it.
type bufferSource struct {
	data    []float64
	pos     int
	loop    bool
	stopped bool
	done    bool
	onEnded func()
}

func newBufferSource(data []float64, loop bool, onEnded func()) *bufferSource {
	return &bufferSource{
		data:    data,
		loop:    loop,
		onEnded: onEnded,
	}
}

// stop disconnects the handle. It cannot be undone.
func (b *bufferSource) stop() {
	b.stopped = true
}

// active reports whether the handle still produces signal.
func (b *bufferSource) active() bool {
	return !b.stopped && !b.done && len(b.data) > 0
}

// readBlock fills dst with the next samples, looping when configured.
// Past the end of a non-looping buffer it writes silence and fires the
// end notification once.
func (b *bufferSource) readBlock(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}

	if !b.active() {
		return
	}

	written := 0
	for written < len(dst) {
		n := copy(dst[written:], b.data[b.pos:])
		written += n
		b.pos += n

		if b.pos >= len(b.data) {
			if !b.loop {
				b.done = true

				if b.onEnded != nil {
					b.onEnded()
				}

				return
			}

			b.pos = 0
		}
	}
}
