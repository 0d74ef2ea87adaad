package biquad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthroughIsIdentity(t *testing.T) {
	s := NewSection(Passthrough())

	in := []float64{1, -0.5, 0.25, 0, 0.75}
	buf := append([]float64(nil), in...)
	s.ProcessBlock(buf)

	assert.Equal(t, in, buf)
}

func TestImpulseResponseMatchesCoefficients(t *testing.T) {
	// Pure FIR section: the impulse response is exactly B0, B1, B2.
	s := NewSection(Coefficients{B0: 0.5, B1: -0.25, B2: 0.125})

	got := []float64{
		s.ProcessSample(1),
		s.ProcessSample(0),
		s.ProcessSample(0),
		s.ProcessSample(0),
	}

	assert.InDeltaSlice(t, []float64{0.5, -0.25, 0.125, 0}, got, 1e-15)
}

func TestFeedbackRecursion(t *testing.T) {
	// y[n] = x[n] + 0.5*y[n-1], impulse response 1, 0.5, 0.25, ...
	s := NewSection(Coefficients{B0: 1, A1: -0.5})

	want := 1.0

	for i := 0; i < 8; i++ {
		x := 0.0
		if i == 0 {
			x = 1
		}

		assert.InDelta(t, want, s.ProcessSample(x), 1e-15, "sample %d", i)
		want /= 2
	}
}

func TestBlockAndSampleProcessingAgree(t *testing.T) {
	c := Coefficients{B0: 0.3, B1: 0.4, B2: 0.1, A1: -0.2, A2: 0.05}

	in := []float64{1, 0.5, -0.25, 0.75, -1, 0.1, 0, 0.9}

	perSample := NewSection(c)
	want := make([]float64, len(in))

	for i, x := range in {
		want[i] = perSample.ProcessSample(x)
	}

	block := NewSection(c)
	got := append([]float64(nil), in...)
	block.ProcessBlock(got)

	assert.InDeltaSlice(t, want, got, 1e-15)
}

func TestSetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1})
	s.ProcessSample(1)

	before := s.State()
	require.NotEqual(t, [2]float64{}, before)

	s.SetCoefficients(Coefficients{B0: 0.5})
	assert.Equal(t, before, s.State())
}

func TestResetClearsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1, B2: 1})
	s.ProcessSample(1)
	s.Reset()

	assert.Equal(t, [2]float64{}, s.State())
	assert.InDelta(t, 0.0, s.ProcessSample(0), 1e-15)
}

func TestResponseAtDC(t *testing.T) {
	// H(1) = (B0+B1+B2)/(1+A1+A2).
	c := Coefficients{B0: 0.2, B1: 0.3, B2: 0.1, A1: -0.4, A2: 0.2}

	wantLinear := (0.2 + 0.3 + 0.1) / (1 - 0.4 + 0.2)
	assert.InDelta(t, 20*math.Log10(wantLinear), c.MagnitudeDB(0, 48000), 1e-12)
}
