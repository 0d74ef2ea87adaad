package eq

import (
	"errors"
	"math"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/biquad"
	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/core"
	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/shelving"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/coords"
)

// ErrInvalidParams is returned for invalid constructor arguments.
var ErrInvalidParams = errors.New("eq: invalid parameters")

const (
	highShelfFreqHz = 8000
	lowShelfFreqHz  = 200

	// frontHighGainDB is the high-shelf boost straight ahead; behind the
	// listener the same amount is cut.
	frontHighGainDB = 7

	// backLowBoostDB is the low-shelf boost directly behind the listener.
	backLowBoostDB = 8

	// rampTimeConstant is the exponential smoothing constant for gain
	// changes, in seconds. Gains never jump, so rapid direction updates
	// stay click-free.
	rampTimeConstant = 0.1

	// rebuildThresholdDB is how far the smoothed gain may drift from the
	// last applied coefficients before they are redesigned.
	rebuildThresholdDB = 0.005
)

// shelfPair is the per-channel filter state. All channels share the same
// coefficients; only the delay lines are per channel.
type shelfPair struct {
	high *biquad.Section
	low  *biquad.Section
}

// DirectionalEQ shapes tone continuously with azimuth to strengthen
// front/back perception: a high shelf at 8 kHz that boosts frontal sources
// and cuts rear ones, and a low shelf at 200 Hz that thickens rear
// sources. It has exactly one input and one output connection point; the
// bus it processes may carry any fixed number of channels.
type DirectionalEQ struct {
	sampleRate float64
	enabled    bool
	azimuthDeg float64

	highTargetDB float64
	lowTargetDB  float64

	highCurrentDB float64
	lowCurrentDB  float64

	highAppliedDB float64
	lowAppliedDB  float64

	channels []shelfPair
}

// New creates a DirectionalEQ for a bus of numChannels channels, enabled
// and pointing straight ahead. The sample rate must keep the 8 kHz shelf
// below Nyquist, so rates of 16 kHz and under are rejected here instead of
// failing on every coefficient rebuild.
func New(sampleRate float64, numChannels int) (*DirectionalEQ, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || numChannels < 1 {
		return nil, ErrInvalidParams
	}

	if highShelfFreqHz >= sampleRate/2 {
		return nil, ErrInvalidParams
	}

	e := &DirectionalEQ{
		sampleRate: sampleRate,
		enabled:    true,
		channels:   make([]shelfPair, numChannels),
	}

	for i := range e.channels {
		e.channels[i] = shelfPair{
			high: biquad.NewSection(biquad.Passthrough()),
			low:  biquad.NewSection(biquad.Passthrough()),
		}
	}

	e.applyDirectionTargets()

	return e, nil
}

// Enabled reports whether directional shaping is active.
func (e *DirectionalEQ) Enabled() bool {
	return e.enabled
}

// Azimuth returns the remembered azimuth in degrees.
func (e *DirectionalEQ) Azimuth() float64 {
	return e.azimuthDeg
}

// TargetGains returns the current ramp targets in dB.
func (e *DirectionalEQ) TargetGains() (highDB, lowDB float64) {
	return e.highTargetDB, e.lowTargetDB
}

// CurrentGains returns the smoothed gains in dB.
func (e *DirectionalEQ) CurrentGains() (highDB, lowDB float64) {
	return e.highCurrentDB, e.lowCurrentDB
}

// UpdateDirection retargets both shelves for an azimuth in degrees:
// highGainDB = 7*cos(az) (front +7, back -7) and
// lowGainDB = 8*(1-cos(az))/2 (front 0, back +8).
// It is a no-op while disabled.
func (e *DirectionalEQ) UpdateDirection(azDeg float64) {
	if !e.enabled {
		return
	}

	e.azimuthDeg = coords.NormalizeAzimuth(azDeg)
	e.applyDirectionTargets()
}

// SetEnabled toggles directional shaping. Disabling ramps both shelves to
// 0 dB but keeps the azimuth memory; re-enabling re-applies the remembered
// direction's gains.
func (e *DirectionalEQ) SetEnabled(enabled bool) {
	if e.enabled == enabled {
		return
	}

	e.enabled = enabled

	if enabled {
		e.applyDirectionTargets()
	} else {
		e.highTargetDB = 0
		e.lowTargetDB = 0
	}
}

func (e *DirectionalEQ) applyDirectionTargets() {
	cosAz := math.Cos(core.Radians(e.azimuthDeg))

	e.highTargetDB = frontHighGainDB * cosAz
	e.lowTargetDB = backLowBoostDB * (1 - cosAz) / 2
}

// ProcessBlock filters the bus in place. bus must carry exactly the
// channel count given at construction; all channels must share one length.
// Gains move toward their targets with the ~100 ms ramp once per block.
func (e *DirectionalEQ) ProcessBlock(bus [][]float64) error {
	if len(bus) != len(e.channels) {
		return ErrInvalidParams
	}

	if len(bus) == 0 || len(bus[0]) == 0 {
		return nil
	}

	e.advanceRamp(len(bus[0]))

	if err := e.rebuildIfDrifted(); err != nil {
		return err
	}

	for ch := range bus {
		e.channels[ch].high.ProcessBlock(bus[ch])
		e.channels[ch].low.ProcessBlock(bus[ch])
	}

	return nil
}

// advanceRamp moves the smoothed gains toward their targets by one block
// of the exponential ramp.
func (e *DirectionalEQ) advanceRamp(blockLen int) {
	alpha := 1 - math.Exp(-float64(blockLen)/(rampTimeConstant*e.sampleRate))

	e.highCurrentDB += alpha * (e.highTargetDB - e.highCurrentDB)
	e.lowCurrentDB += alpha * (e.lowTargetDB - e.lowCurrentDB)
}

// rebuildIfDrifted redesigns the shelf coefficients when the smoothed
// gains have moved past the rebuild threshold. Delay lines are kept, so
// the swap itself is continuous.
func (e *DirectionalEQ) rebuildIfDrifted() error {
	if math.Abs(e.highCurrentDB-e.highAppliedDB) > rebuildThresholdDB {
		sections, err := shelving.ButterworthHighShelf(e.sampleRate, highShelfFreqHz, e.highCurrentDB, 1)
		if err != nil {
			return err
		}

		for ch := range e.channels {
			e.channels[ch].high.SetCoefficients(sections[0])
		}

		e.highAppliedDB = e.highCurrentDB
	}

	if math.Abs(e.lowCurrentDB-e.lowAppliedDB) > rebuildThresholdDB {
		sections, err := shelving.ButterworthLowShelf(e.sampleRate, lowShelfFreqHz, e.lowCurrentDB, 1)
		if err != nil {
			return err
		}

		for ch := range e.channels {
			e.channels[ch].low.SetCoefficients(sections[0])
		}

		e.lowAppliedDB = e.lowCurrentDB
	}

	return nil
}

// Reset clears all filter delay lines and snaps the ramp to its targets.
func (e *DirectionalEQ) Reset() {
	for ch := range e.channels {
		e.channels[ch].high.Reset()
		e.channels[ch].low.Reset()
	}

	e.highCurrentDB = e.highTargetDB
	e.lowCurrentDB = e.lowTargetDB
}
