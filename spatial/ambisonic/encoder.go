package ambisonic

import (
	"math"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/core"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/coords"
)

// Channel indices of the first-order B-format signal set.
const (
	ChannelW = 0
	ChannelX = 1
	ChannelY = 2
	ChannelZ = 3

	// NumChannels is the first-order B-format channel count.
	NumChannels = 4
)

// invSqrt2 is the W-channel gain, 1/sqrt(2).
var invSqrt2 = 1 / math.Sqrt2

// GainSet holds the four B-format channel gains for one direction.
type GainSet struct {
	W, X, Y, Z float64
}

// GainsFor computes first-order B-format gains for a direction in degrees:
// W = 1/sqrt(2), X = cos(az)cos(el), Y = sin(az)cos(el), Z = sin(el).
func GainsFor(azDeg, elDeg float64) GainSet {
	az := core.Radians(azDeg)
	el := core.Radians(elDeg)

	sinAz, cosAz := math.Sincos(az)
	sinEl, cosEl := math.Sincos(el)

	return GainSet{
		W: invSqrt2,
		X: cosAz * cosEl,
		Y: sinAz * cosEl,
		Z: sinEl,
	}
}

// Encoder turns a mono signal into the four B-format channels for its
// current direction. Direction updates are cheap and idempotent, safe at
// interaction rate.
type Encoder struct {
	azDeg float64
	elDeg float64
}

// NewEncoder returns an encoder pointing straight ahead.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// SetDirection updates the encoder direction in degrees. The azimuth is
// stored negated: the interaction layer and the renderer use opposite sign
// conventions, and the pairing was tuned by ear, so keep both negations.
// Out-of-range input is normalized, never rejected.
func (e *Encoder) SetDirection(azDeg, elDeg float64) {
	if math.IsNaN(elDeg) || math.IsInf(elDeg, 0) {
		elDeg = 0
	}

	e.azDeg = -coords.NormalizeAzimuth(azDeg)
	e.elDeg = core.Clamp(elDeg, -90, 90)
}

// Direction returns the stored (already negated) azimuth and elevation.
func (e *Encoder) Direction() (azDeg, elDeg float64) {
	return e.azDeg, e.elDeg
}

// Gains returns the B-format gains for the current direction. They are
// recomputed on every call, never cached.
func (e *Encoder) Gains() GainSet {
	return GainsFor(e.azDeg, e.elDeg)
}

// ProcessBlock applies the current gains to a mono block, writing the
// four B-format channels into dst. dst must hold NumChannels slices of
// len(src) samples each.
func (e *Encoder) ProcessBlock(dst [][]float64, src []float64) {
	g := e.Gains()
	gains := [NumChannels]float64{g.W, g.X, g.Y, g.Z}

	for ch := 0; ch < NumChannels; ch++ {
		out := dst[ch]
		gain := gains[ch]

		for i, v := range src {
			out[i] = gain * v
		}
	}
}
