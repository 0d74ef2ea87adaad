package hrir

import "math"

// NumBankChannels is the fixed binaural filter-bank width:
// four ambisonic channels times two ears.
const NumBankChannels = 8

// FilterBank holds the eight decoding impulse responses at the engine's
// live output rate, in the order
// [frontL, frontR, leftL, leftR, upL, upR, frontL, frontR].
// Consecutive pairs feed the ambisonic channels W, Y, Z, X in that order.
type FilterBank struct {
	SampleRate float64
	Channels   [NumBankChannels][]float64
}

// Cardinal query directions used to assemble the bank.
var cardinalQueries = [6]struct {
	name   string
	az, el float64
}{
	{"front", 0, 0},
	{"back", 180, 0},
	{"left", 90, 0},
	{"right", -90, 0},
	{"up", 0, 90},
	{"down", 0, -90},
}

// BuildFilterBank assembles the eight-channel binaural filter bank from
// the nearest measured positions for the six cardinal directions,
// resampled to outputRate as needed. It is rebuilt only on dataset reload.
//
// TODO: the X pair (channels 6,7) reuses the front measurement; the back,
// right, and down positions are located but unused. Replace the reuse with
// a proper X-channel derivation once that is settled.
func (s *Set) BuildFilterBank(outputRate float64) *FilterBank {
	var nearest [6]int
	for i, q := range cardinalQueries {
		nearest[i], _ = s.FindNearest(q.az, q.el)
	}

	front, left, up := nearest[0], nearest[2], nearest[4]

	targetLen := s.Length
	if outputRate > 0 && s.SampleRate != outputRate {
		targetLen = int(math.Round(float64(s.Length) * outputRate / s.SampleRate))
		if targetLen < 1 {
			targetLen = 1
		}
	}

	bank := &FilterBank{SampleRate: outputRate}

	pairs := [4]int{front, left, up, front}
	for i, pos := range pairs {
		bank.Channels[2*i] = ResampleLinear(s.Left[pos], targetLen)
		bank.Channels[2*i+1] = ResampleLinear(s.Right[pos], targetLen)
	}

	return bank
}

// DefaultFilterBank returns a neutral bank: a unit impulse on every
// channel. It is the fallback when no dataset could be loaded, leaving the
// decoder as a transparent pass-through.
func DefaultFilterBank(outputRate float64) *FilterBank {
	bank := &FilterBank{SampleRate: outputRate}
	for i := range bank.Channels {
		bank.Channels[i] = []float64{1}
	}

	return bank
}
