package conv

// Stream is a streaming convolver: it carries the convolution tail across
// block boundaries, so feeding a signal block-by-block yields the same
// samples as convolving it in one piece. Output length always equals
// input length; the trailing kernelLen-1 samples surface in later blocks.
type Stream struct {
	kernel []float64
	tail   []float64
	oa     *OverlapAdd
	full   []float64
}

// streamFFTThreshold is the kernel length above which the FFT path is used.
const streamFFTThreshold = 64

// NewStream creates a streaming convolver for the given kernel.
// The kernel is copied.
func NewStream(kernel []float64) (*Stream, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	s := &Stream{
		kernel: append([]float64(nil), kernel...),
		tail:   make([]float64, len(kernel)-1),
	}

	if len(kernel) > streamFFTThreshold {
		oa, err := NewOverlapAdd(s.kernel, 0)
		if err != nil {
			return nil, err
		}

		s.oa = oa
	}

	return s, nil
}

// KernelLen returns the kernel length.
func (s *Stream) KernelLen() int {
	return len(s.kernel)
}

// ProcessBlock convolves src with the kernel, writing len(src) samples to
// dst. dst and src must have the same length; dst may alias src.
func (s *Stream) ProcessBlock(dst, src []float64) error {
	if len(src) == 0 {
		return nil
	}

	if len(dst) != len(src) {
		return ErrLengthMismatch
	}

	fullLen := len(src) + len(s.kernel) - 1
	if cap(s.full) < fullLen {
		s.full = make([]float64, fullLen)
	}

	full := s.full[:fullLen]

	if s.oa != nil {
		res, err := s.oa.Process(src)
		if err != nil {
			return err
		}

		copy(full, res)
	} else {
		DirectTo(full, src, s.kernel)
	}

	// Fold in the previous block's tail; len(tail) <= len(full) always holds.
	for i := range s.tail {
		full[i] += s.tail[i]
	}

	copy(dst, full[:len(src)])

	// Everything past the emitted samples, old tail included, carries over.
	copy(s.tail, full[len(src):])

	return nil
}

// Reset clears the carried tail.
func (s *Stream) Reset() {
	for i := range s.tail {
		s.tail[i] = 0
	}
}
