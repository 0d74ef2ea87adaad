package engine

import (
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/ambisonic"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/binaural"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/eq"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/hrir"
)

// SpatialBackend turns a positioned mono stream into the two ear signals.
// The engine drives it block by block; implementations carry their filter
// state across blocks, so blocks must be fed in order.
type SpatialBackend interface {
	SetDirection(azDeg, elDeg float64)
	SetEQEnabled(enabled bool)
	RenderBlock(left, right, mono []float64) error
	Reset()
}

// ambisonicBackend is the first-order rendering chain: mono encoder into
// the four-channel B-format bus, directional EQ on the bus, binaural
// decoder down to the two ears.
type ambisonicBackend struct {
	enc *ambisonic.Encoder
	deq *eq.DirectionalEQ
	dec *binaural.Decoder
	amb [][]float64
}

func newAmbisonicBackend(sampleRate float64, bank *hrir.FilterBank) (*ambisonicBackend, error) {
	deq, err := eq.New(sampleRate, ambisonic.NumChannels)
	if err != nil {
		return nil, err
	}

	dec, err := binaural.NewDecoder(bank)
	if err != nil {
		return nil, err
	}

	return &ambisonicBackend{
		enc: ambisonic.NewEncoder(),
		deq: deq,
		dec: dec,
		amb: make([][]float64, ambisonic.NumChannels),
	}, nil
}

func (b *ambisonicBackend) SetDirection(azDeg, elDeg float64) {
	b.enc.SetDirection(azDeg, elDeg)
	b.deq.UpdateDirection(azDeg)
}

func (b *ambisonicBackend) SetEQEnabled(enabled bool) {
	b.deq.SetEnabled(enabled)
}

// RenderBlock encodes, equalizes, and decodes one block. left and right
// must match len(mono).
func (b *ambisonicBackend) RenderBlock(left, right, mono []float64) error {
	n := len(mono)

	for ch := range b.amb {
		if cap(b.amb[ch]) < n {
			b.amb[ch] = make([]float64, n)
		}

		b.amb[ch] = b.amb[ch][:n]
	}

	b.enc.ProcessBlock(b.amb, mono)

	if err := b.deq.ProcessBlock(b.amb); err != nil {
		return err
	}

	return b.dec.ProcessBlock(left, right, b.amb)
}

func (b *ambisonicBackend) Reset() {
	b.dec.Reset()
	b.deq.Reset()
}
