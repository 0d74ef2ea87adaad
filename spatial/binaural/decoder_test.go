package binaural

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/ambisonic"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/hrir"
)

func makeBus(n int) [][]float64 {
	bus := make([][]float64, ambisonic.NumChannels)
	for ch := range bus {
		bus[ch] = make([]float64, n)
	}

	return bus
}

func TestUnitImpulseBankSumsChannels(t *testing.T) {
	dec, err := NewDecoder(hrir.DefaultFilterBank(48000))
	require.NoError(t, err)

	amb := makeBus(4)
	amb[ambisonic.ChannelW][0] = 0.5
	amb[ambisonic.ChannelX][1] = 0.25
	amb[ambisonic.ChannelY][2] = -1
	amb[ambisonic.ChannelZ][3] = 0.75

	left := make([]float64, 4)
	right := make([]float64, 4)

	require.NoError(t, dec.ProcessBlock(left, right, amb))

	// A neutral bank passes every channel straight through to both ears.
	want := []float64{0.5, 0.25, -1, 0.75}
	assert.InDeltaSlice(t, want, left, 1e-12)
	assert.InDeltaSlice(t, want, right, 1e-12)
}

func TestPairToChannelMapping(t *testing.T) {
	// Give each bank pair a distinct scale so the output reveals which
	// ambisonic channel it was fed from.
	bank := &hrir.FilterBank{SampleRate: 48000}
	for pair := 0; pair < 4; pair++ {
		scale := float64(pair + 1)
		bank.Channels[2*pair] = []float64{scale}
		bank.Channels[2*pair+1] = []float64{-scale}
	}

	dec, err := NewDecoder(bank)
	require.NoError(t, err)

	tests := []struct {
		name    string
		channel int
		want    float64
	}{
		{"w drives pair 0", ambisonic.ChannelW, 1},
		{"y drives pair 1", ambisonic.ChannelY, 2},
		{"z drives pair 2", ambisonic.ChannelZ, 3},
		{"x drives pair 3", ambisonic.ChannelX, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amb := makeBus(1)
			amb[tt.channel][0] = 1

			left := make([]float64, 1)
			right := make([]float64, 1)

			require.NoError(t, dec.ProcessBlock(left, right, amb))

			assert.InDelta(t, tt.want, left[0], 1e-12)
			assert.InDelta(t, -tt.want, right[0], 1e-12)
		})
	}
}

func TestConvolutionStateCarriesAcrossBlocks(t *testing.T) {
	bank := &hrir.FilterBank{SampleRate: 48000}
	for ch := range bank.Channels {
		bank.Channels[ch] = []float64{0, 1} // one-sample delay
	}

	dec, err := NewDecoder(bank)
	require.NoError(t, err)

	amb := makeBus(1)
	amb[ambisonic.ChannelW][0] = 1

	left := make([]float64, 1)
	right := make([]float64, 1)

	require.NoError(t, dec.ProcessBlock(left, right, amb))
	assert.InDelta(t, 0, left[0], 1e-12)

	// The delayed impulse surfaces in the next block.
	amb[ambisonic.ChannelW][0] = 0
	require.NoError(t, dec.ProcessBlock(left, right, amb))
	assert.InDelta(t, 1, left[0], 1e-12)
}

func TestResetClearsHistories(t *testing.T) {
	bank := &hrir.FilterBank{SampleRate: 48000}
	for ch := range bank.Channels {
		bank.Channels[ch] = []float64{0, 1}
	}

	dec, err := NewDecoder(bank)
	require.NoError(t, err)

	amb := makeBus(1)
	amb[ambisonic.ChannelW][0] = 1

	left := make([]float64, 1)
	right := make([]float64, 1)

	require.NoError(t, dec.ProcessBlock(left, right, amb))
	dec.Reset()

	amb[ambisonic.ChannelW][0] = 0
	require.NoError(t, dec.ProcessBlock(left, right, amb))
	assert.InDelta(t, 0, left[0], 1e-12)
}

func TestBlockSplitEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	bank := &hrir.FilterBank{SampleRate: 48000}
	for ch := range bank.Channels {
		kernel := make([]float64, 33)
		for i := range kernel {
			kernel[i] = rng.Float64()*2 - 1
		}

		bank.Channels[ch] = kernel
	}

	const total = 256

	amb := makeBus(total)
	for ch := range amb {
		for i := range amb[ch] {
			amb[ch][i] = rng.Float64()*2 - 1
		}
	}

	oneShot, err := NewDecoder(bank)
	require.NoError(t, err)

	wantL := make([]float64, total)
	wantR := make([]float64, total)
	require.NoError(t, oneShot.ProcessBlock(wantL, wantR, amb))

	split, err := NewDecoder(bank)
	require.NoError(t, err)

	gotL := make([]float64, 0, total)
	gotR := make([]float64, 0, total)

	for _, n := range []int{100, 28, 128} {
		sub := make([][]float64, len(amb))
		for ch := range amb {
			sub[ch] = amb[ch][len(gotL) : len(gotL)+n]
		}

		l := make([]float64, n)
		r := make([]float64, n)
		require.NoError(t, split.ProcessBlock(l, r, sub))

		gotL = append(gotL, l...)
		gotR = append(gotR, r...)
	}

	assert.InDeltaSlice(t, wantL, gotL, 1e-9)
	assert.InDeltaSlice(t, wantR, gotR, 1e-9)
}

func TestErrors(t *testing.T) {
	_, err := NewDecoder(nil)
	assert.ErrorIs(t, err, ErrNoFilterBank)

	dec, err := NewDecoder(hrir.DefaultFilterBank(48000))
	require.NoError(t, err)

	err = dec.ProcessBlock(make([]float64, 2), make([]float64, 3), makeBus(2))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = dec.ProcessBlock(make([]float64, 2), make([]float64, 2), makeBus(3))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
