package shelving

import (
	"errors"
	"math"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/biquad"
)

// ErrInvalidParams is returned when filter parameters are out of range.
var ErrInvalidParams = errors.New("shelving: invalid parameters")

// ButterworthLowShelf designs an M-th order Butterworth low-shelving filter.
//
// freqHz is the cutoff frequency in Hz. gainDB is the shelf gain in dB
// (positive for boost, negative for cut). order must be >= 1.
// Returns a cascade of biquad sections.
func ButterworthLowShelf(sampleRate, freqHz, gainDB float64, order int) ([]biquad.Coefficients, error) {
	if err := validateParams(sampleRate, freqHz, order); err != nil {
		return nil, err
	}

	if gainDB == 0 {
		return passthroughSections(), nil
	}

	g := db2Lin(gainDB)
	P := math.Pow(g, 1.0/float64(order))
	K := math.Tan(math.Pi * freqHz / sampleRate)

	return lowShelfSections(K, P, order), nil
}

// ButterworthHighShelf designs an M-th order Butterworth high-shelving filter.
//
// freqHz is the cutoff frequency in Hz. gainDB is the shelf gain in dB
// (positive for boost, negative for cut). order must be >= 1.
// Returns a cascade of biquad sections.
func ButterworthHighShelf(sampleRate, freqHz, gainDB float64, order int) ([]biquad.Coefficients, error) {
	if err := validateParams(sampleRate, freqHz, order); err != nil {
		return nil, err
	}

	if gainDB == 0 {
		return passthroughSections(), nil
	}

	g := db2Lin(gainDB)
	P := math.Pow(g, 1.0/float64(order))
	K := 1.0 / math.Tan(math.Pi*freqHz/sampleRate)

	sections := lowShelfSections(K, P, order)

	// H_HS(z) = H_LS(-z): negate odd-power z^{-1} coefficients.
	for i := range sections {
		sections[i].B1 = -sections[i].B1
		sections[i].A1 = -sections[i].A1
	}

	return sections, nil
}

// lowShelfSections assembles the low-shelf biquad cascade for a Butterworth
// prototype of order M. K is the pre-warped frequency and P = g^(1/M).
func lowShelfSections(K, P float64, order int) []biquad.Coefficients {
	L := order / 2
	hasFirstOrder := order%2 == 1

	n := L
	if hasFirstOrder {
		n++
	}

	sections := make([]biquad.Coefficients, 0, n)

	// Conjugate pole pairs on the unit circle at alpha_m = (1/2 - (2m-1)/(2M))*pi.
	for m := 1; m <= L; m++ {
		sigma := math.Cos((0.5 - (2.0*float64(m)-1.0)/(2.0*float64(order))) * math.Pi)
		sections = append(sections, lowShelfSOS(K, P, sigma))
	}

	if hasFirstOrder {
		// Real pole at s = -1.
		sections = append(sections, lowShelfFOS(K, P, 1.0))
	}

	return sections
}

// lowShelfSOS computes a single second-order section via bilinear transform.
// The numerator is derived from the denominator by gain scaling:
// sigma_n = P*sigma_d, R2_n = P^2 (the Butterworth pole magnitude is 1).
func lowShelfSOS(K, P, sigma float64) biquad.Coefficients {
	K2 := K * K
	P2 := P * P

	D := 1.0 + 2.0*K*sigma + K2
	invD := 1.0 / D

	return biquad.Coefficients{
		B0: (1.0 + 2.0*K*P*sigma + K2*P2) * invD,
		B1: (2.0*K2*P2 - 2.0) * invD,
		B2: (1.0 - 2.0*K*P*sigma + K2*P2) * invD,
		A1: (2.0*K2 - 2.0) * invD,
		A2: (1.0 - 2.0*K*sigma + K2) * invD,
	}
}

// lowShelfFOS computes the first-order section for odd orders.
func lowShelfFOS(K, P, sigma float64) biquad.Coefficients {
	Kd := K * sigma
	Kn := K * P * sigma
	invD := 1.0 / (1.0 + Kd)

	return biquad.Coefficients{
		B0: (1.0 + Kn) * invD,
		B1: (Kn - 1.0) * invD,
		A1: (Kd - 1.0) * invD,
	}
}

func validateParams(sampleRate, freqHz float64, order int) error {
	if sampleRate <= 0 || freqHz <= 0 || order < 1 {
		return ErrInvalidParams
	}

	if freqHz >= sampleRate*0.5 {
		return ErrInvalidParams
	}

	return nil
}

func passthroughSections() []biquad.Coefficients {
	return []biquad.Coefficients{biquad.Passthrough()}
}

// ln10over20 is the precomputed constant ln(10)/20.
const ln10over20 = 0.11512925464970228

func db2Lin(db float64) float64 {
	return math.Exp(db * ln10over20)
}
