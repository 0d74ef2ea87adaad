package hrir

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMetadata assembles a metadata resource for the given positions and
// IR length.
func buildMetadata(positions [][]float64, length int, rate float64) []byte {
	pos := "["
	for i, p := range positions {
		if i > 0 {
			pos += ","
		}

		pos += fmt.Sprintf("[%g,%g,%g]", p[0], p[1], p[2])
	}
	pos += "]"

	return []byte(fmt.Sprintf(`{
		"name": "synthetic",
		"leaves": [
			{"name": "Data.IR", "shape": [%d, 2, %d]},
			{"name": "SourcePosition", "data": %s},
			{"name": "Data.SamplingRate", "data": [%g]}
		]
	}`, len(positions), length, pos, rate))
}

// buildPayload packs the per-position ear responses as little-endian
// float32, left ear first.
func buildPayload(irs ...[]float64) []byte {
	var out []byte

	for _, ir := range irs {
		for _, v := range ir {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		}
	}

	return out
}

func TestLoadSlicesPerPosition(t *testing.T) {
	meta := buildMetadata([][]float64{{0, 0, 1}, {180, 0, 1}}, 3, 48000)
	payload := buildPayload(
		[]float64{1, 0, 0}, // position 0, left
		[]float64{0, 1, 0}, // position 0, right
		[]float64{0, 0, 1}, // position 1, left
		[]float64{0.5, 0.5, 0}, // position 1, right
	)

	set, err := Load(meta, payload)
	require.NoError(t, err)

	assert.Equal(t, "synthetic", set.Name)
	assert.Equal(t, 2, set.NumPositions)
	assert.Equal(t, 3, set.Length)
	assert.Equal(t, 48000.0, set.SampleRate)

	assert.InDeltaSlice(t, []float64{1, 0, 0}, set.Left[0], 1e-7)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, set.Right[0], 1e-7)
	assert.InDeltaSlice(t, []float64{0, 0, 1}, set.Left[1], 1e-7)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, set.Right[1], 1e-7)
}

func TestLoadShortPayloadZeroFills(t *testing.T) {
	meta := buildMetadata([][]float64{{0, 0, 1}}, 4, 48000)

	// Only 5 of the expected 8 samples.
	payload := buildPayload([]float64{1, 2, 3, 4, 5})

	set, err := Load(meta, payload)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 2, 3, 4}, set.Left[0], 1e-6)
	assert.InDeltaSlice(t, []float64{5, 0, 0, 0}, set.Right[0], 1e-6)
}

func TestLoadLongPayloadTruncates(t *testing.T) {
	meta := buildMetadata([][]float64{{0, 0, 1}}, 2, 48000)
	payload := buildPayload([]float64{1, 2, 3, 4, 5, 6})

	set, err := Load(meta, payload)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 2}, set.Left[0], 1e-7)
	assert.InDeltaSlice(t, []float64{3, 4}, set.Right[0], 1e-7)
}

func TestLoadRejectsNonStereoReceivers(t *testing.T) {
	meta := []byte(`{
		"leaves": [
			{"name": "Data.IR", "shape": [1, 4, 2]},
			{"name": "SourcePosition", "data": [[0, 0]]},
			{"name": "Data.SamplingRate", "data": [48000]}
		]
	}`)

	_, err := Load(meta, nil)
	assert.ErrorIs(t, err, ErrBadShape)
}

func TestFindNearestTwoPositionGrid(t *testing.T) {
	set := &Set{
		Positions: []Position{
			{Azimuth: 0, Elevation: 0},
			{Azimuth: 180, Elevation: 0},
		},
	}

	tests := []struct {
		name      string
		az, el    float64
		wantIndex int
	}{
		{"near front", 10, 0, 0},
		{"near back", 170, 0, 1},
		{"wrapped near front", 350, 0, 0},
		{"negative near front", -10, 0, 0},
		{"elevated still front", 10, 45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _ := set.FindNearest(tt.az, tt.el)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestFindNearestExactHit(t *testing.T) {
	set := &Set{
		Positions: []Position{
			{Azimuth: 30, Elevation: 15},
			{Azimuth: 210, Elevation: -15},
		},
	}

	idx, dist := set.FindNearest(30, 15)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 0, dist, 1e-9)
}

func TestFindNearestFirstMinimumWinsOnTie(t *testing.T) {
	// Both positions are 90 degrees from the query; the scan keeps the first.
	set := &Set{
		Positions: []Position{
			{Azimuth: 90, Elevation: 0},
			{Azimuth: -90, Elevation: 0},
		},
	}

	idx, _ := set.FindNearest(0, 0)
	assert.Equal(t, 0, idx)
}

func TestResampleLinearIdentity(t *testing.T) {
	ir := []float64{1, -0.5, 0.25, 0}

	out := ResampleLinear(ir, len(ir))
	assert.Equal(t, ir, out)

	// Identity returns a copy, not the input slice.
	out[0] = 99
	assert.Equal(t, 1.0, ir[0])
}

func TestResampleLinearEndpoints(t *testing.T) {
	ir := []float64{2, 4, 6, 8}

	for _, target := range []int{3, 7, 16} {
		out := ResampleLinear(ir, target)

		require.Len(t, out, target)
		assert.InDelta(t, 2, out[0], 1e-12, "target %d", target)
		assert.InDelta(t, 8, out[target-1], 1e-12, "target %d", target)
	}
}

func TestResampleLinearUpsampleOfRamp(t *testing.T) {
	// A linear ramp survives linear resampling exactly.
	ir := []float64{0, 1, 2, 3}

	out := ResampleLinear(ir, 7)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}, out, 1e-12)
}

func TestResampleLinearRoundTripBound(t *testing.T) {
	ir := make([]float64, 64)
	for i := range ir {
		ir[i] = math.Sin(float64(i) / 5)
	}

	back := ResampleLinear(ResampleLinear(ir, 128), 64)

	for i := range ir {
		assert.InDelta(t, ir[i], back[i], 0.01, "sample %d", i)
	}
}

func TestResampleLinearEdgeCases(t *testing.T) {
	assert.Nil(t, ResampleLinear([]float64{1}, 0))
	assert.Equal(t, []float64{0, 0}, ResampleLinear(nil, 2))
	assert.Equal(t, []float64{5, 5, 5}, ResampleLinear([]float64{5}, 3))
	assert.Equal(t, []float64{1}, ResampleLinear([]float64{1, 2, 3}, 1))
}
