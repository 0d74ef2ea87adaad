package hrir

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/core"
)

// bytesPerSample is the payload sample width (little-endian float32).
const bytesPerSample = 4

type config struct {
	logger *slog.Logger
}

// Option configures dataset loading.
type Option func(*config)

// WithLogger sets the logger used for recoverable dataset problems.
// A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Set is a loaded directional impulse-response dataset: M measured
// positions with one impulse response of length N per ear.
type Set struct {
	Name         string
	SampleRate   float64
	NumPositions int // M
	Length       int // N
	Positions    []Position

	// Left[i] and Right[i] are the ear responses for Positions[i];
	// every slice has length N.
	Left  [][]float64
	Right [][]float64
}

// Load parses the metadata resource and decodes the binary payload into a
// dataset. The payload is row-major [position][receiver][sample] float32,
// receiver 0 being the left ear. A payload shorter or longer than
// M*R*N samples is logged and truncated or zero-filled, never rejected.
func Load(metadata, payload []byte, opts ...Option) (*Set, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	meta, err := ParseMetadata(metadata)
	if err != nil {
		return nil, err
	}

	if meta.NumReceivers != 2 {
		return nil, fmt.Errorf("%w: expected 2 receivers, got %d", ErrBadShape, meta.NumReceivers)
	}

	m, r, n := meta.NumPositions, meta.NumReceivers, meta.Length

	expected := m * r * n
	available := len(payload) / bytesPerSample

	if available != expected {
		cfg.logger.Warn("hrir: payload size mismatch, using available prefix",
			"expected_samples", expected,
			"available_samples", available,
			"positions", m,
			"length", n)

		if available > expected {
			available = expected
		}
	}

	samples := make([]float64, expected)
	for i := 0; i < available; i++ {
		bits := binary.LittleEndian.Uint32(payload[i*bytesPerSample : (i+1)*bytesPerSample])
		samples[i] = float64(math.Float32frombits(bits))
	}

	set := &Set{
		Name:         meta.Name,
		SampleRate:   meta.SampleRate,
		NumPositions: m,
		Length:       n,
		Positions:    meta.Positions,
		Left:         make([][]float64, m),
		Right:        make([][]float64, m),
	}

	for p := 0; p < m; p++ {
		left := (p*r + 0) * n
		right := (p*r + 1) * n
		set.Left[p] = samples[left : left+n]
		set.Right[p] = samples[right : right+n]
	}

	return set, nil
}

// FindNearest returns the index of the measured position closest to the
// query direction, plus the angular distance in radians. The scan order is
// deterministic and the first minimum wins on exact ties, so results are
// stable for arbitrary measurement grids.
func (s *Set) FindNearest(azDeg, elDeg float64) (index int, distance float64) {
	targetAz := core.Radians(normalize360(azDeg))
	targetEl := core.Radians(elDeg)

	index = -1
	distance = math.Inf(1)

	for i, pos := range s.Positions {
		d := angularDistance(
			core.Radians(normalize360(pos.Azimuth)), core.Radians(pos.Elevation),
			targetAz, targetEl,
		)

		if d < distance {
			index = i
			distance = d
		}
	}

	return index, distance
}

// normalize360 wraps an azimuth in degrees into [0, 360).
func normalize360(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}

	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}

	return m
}

// angularDistance computes the great-circle angle between two directions
// in radians via the haversine formula: d = 2*asin(sqrt(a)) with
// a = sin²(Δel/2) + cos(el1)cos(el2)sin²(Δaz/2).
func angularDistance(az1, el1, az2, el2 float64) float64 {
	sinEl := math.Sin((el2 - el1) / 2)
	sinAz := math.Sin((az2 - az1) / 2)

	a := sinEl*sinEl + math.Cos(el1)*math.Cos(el2)*sinAz*sinAz

	return 2 * math.Asin(math.Sqrt(core.Clamp(a, 0, 1)))
}

// ResampleLinear converts an impulse response to targetLength samples by
// linear interpolation. When the lengths already match, the input is
// copied unchanged.
func ResampleLinear(ir []float64, targetLength int) []float64 {
	if targetLength <= 0 {
		return nil
	}

	out := make([]float64, targetLength)
	if len(ir) == 0 {
		return out
	}

	if targetLength == len(ir) {
		copy(out, ir)
		return out
	}

	if len(ir) == 1 || targetLength == 1 {
		for i := range out {
			out[i] = ir[0]
		}

		return out
	}

	step := float64(len(ir)-1) / float64(targetLength-1)

	for i := range out {
		pos := float64(i) * step

		j := int(pos)
		if j >= len(ir)-1 {
			out[i] = ir[len(ir)-1]
			continue
		}

		out[i] = core.Lerp(ir[j], ir[j+1], pos-float64(j))
	}

	return out
}
