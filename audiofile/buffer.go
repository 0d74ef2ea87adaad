package audiofile

// Buffer is decoded PCM audio as per-channel float64 samples in [-1, 1].
type Buffer struct {
	SampleRate int
	Data       [][]float64 // Data[ch][frame]
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Data)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}

	return len(b.Data[0])
}

// DownmixMono collapses the buffer to one channel by per-sample averaging
// across channels. A mono buffer is returned as a copy.
func DownmixMono(b *Buffer) []float64 {
	frames := b.Frames()
	out := make([]float64, frames)

	channels := b.Channels()
	if channels == 0 {
		return out
	}

	if channels == 1 {
		copy(out, b.Data[0])
		return out
	}

	scale := 1 / float64(channels)

	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += b.Data[ch][i]
		}

		out[i] = sum * scale
	}

	return out
}

// deinterleave splits interleaved samples into per-channel slices.
func deinterleave(samples []float64, channels int) [][]float64 {
	if channels < 1 {
		channels = 1
	}

	frames := len(samples) / channels

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}

	for i := 0; i < frames*channels; i++ {
		data[i%channels][i/channels] = samples[i]
	}

	return data
}
