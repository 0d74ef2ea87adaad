package binaural

import (
	"errors"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/conv"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/ambisonic"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/hrir"
)

// Errors returned by the decoder.
var (
	ErrNoFilterBank   = errors.New("binaural: no filter bank set")
	ErrLengthMismatch = errors.New("binaural: buffer length mismatch")
)

// pairChannel maps each filter-bank pair index to the B-format channel it
// decodes: the bank pair order is W, Y, Z, X.
var pairChannel = [4]int{
	ambisonic.ChannelW,
	ambisonic.ChannelY,
	ambisonic.ChannelZ,
	ambisonic.ChannelX,
}

// Decoder folds the four B-format channels through the eight-channel
// binaural filter bank to produce the two ear signals. Convolution state
// is carried across blocks, so it is safe to drive in real time.
type Decoder struct {
	bank    *hrir.FilterBank
	streams [hrir.NumBankChannels]*conv.Stream
	scratch []float64
}

// NewDecoder creates a decoder for the given filter bank.
func NewDecoder(bank *hrir.FilterBank) (*Decoder, error) {
	d := &Decoder{}
	if err := d.SetFilterBank(bank); err != nil {
		return nil, err
	}

	return d, nil
}

// SetFilterBank swaps in a new bank and resets convolution state. Call it
// between blocks only; the bank changes only on dataset reload.
func (d *Decoder) SetFilterBank(bank *hrir.FilterBank) error {
	if bank == nil {
		return ErrNoFilterBank
	}

	for i, kernel := range bank.Channels {
		stream, err := conv.NewStream(kernel)
		if err != nil {
			return err
		}

		d.streams[i] = stream
	}

	d.bank = bank

	return nil
}

// Reset clears all convolution histories.
func (d *Decoder) Reset() {
	for _, s := range d.streams {
		if s != nil {
			s.Reset()
		}
	}
}

// ProcessBlock decodes one block. amb must hold the four B-format channels
// (W, X, Y, Z); left and right receive the ear signals and must match the
// block length. Output is accumulated as
//
//	ear = sum over pairs of amb[pairChannel[i]] * bank[2i+ear]
func (d *Decoder) ProcessBlock(left, right []float64, amb [][]float64) error {
	if d.bank == nil {
		return ErrNoFilterBank
	}

	n := len(left)
	if len(right) != n {
		return ErrLengthMismatch
	}

	for _, ch := range amb {
		if len(ch) != n {
			return ErrLengthMismatch
		}
	}

	if cap(d.scratch) < n {
		d.scratch = make([]float64, n)
	}

	scratch := d.scratch[:n]

	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	for pair, ch := range pairChannel {
		src := amb[ch]

		if err := d.streams[2*pair].ProcessBlock(scratch, src); err != nil {
			return err
		}

		for i := range scratch {
			left[i] += scratch[i]
		}

		if err := d.streams[2*pair+1].ProcessBlock(scratch, src); err != nil {
			return err
		}

		for i := range scratch {
			right[i] += scratch[i]
		}
	}

	return nil
}
