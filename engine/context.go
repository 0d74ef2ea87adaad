package engine

import (
	"errors"

	"github.com/DavidAlvaradoEspe/sc360-iem/audiofile"
)

// Context errors.
var (
	ErrContextClosed  = errors.New("engine: audio context closed")
	ErrContextStarted = errors.New("engine: audio context already started")
)

// RenderFunc fills one stereo block. Both slices always share one length.
type RenderFunc func(left, right []float64)

// Context is the real-time audio capability the engine renders through:
// it owns the output sample rate, drives the render callback, and decodes
// compressed audio bytes into sample buffers. A software implementation is
// provided by OfflineContext; live backends satisfy the same interface.
type Context interface {
	SampleRate() float64
	BlockSize() int
	Start(render RenderFunc) error
	DecodeAudio(data []byte) (*audiofile.Buffer, error)
	Close() error
}

// OfflineContext is a pull-driven software Context: the owner asks for
// blocks explicitly instead of being called from an audio thread. It backs
// offline rendering and tests.
type OfflineContext struct {
	sampleRate float64
	blockSize  int
	render     RenderFunc
	closed     bool
}

// NewOfflineContext creates an offline context. blockSize is the preferred
// render granularity; 0 selects a default of 256 frames.
func NewOfflineContext(sampleRate float64, blockSize int) (*OfflineContext, error) {
	if sampleRate <= 0 {
		return nil, errors.New("engine: sample rate must be > 0")
	}

	if blockSize <= 0 {
		blockSize = 256
	}

	return &OfflineContext{
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}, nil
}

// SampleRate returns the output sample rate in Hz.
func (c *OfflineContext) SampleRate() float64 {
	return c.sampleRate
}

// BlockSize returns the preferred render block length in frames.
func (c *OfflineContext) BlockSize() int {
	return c.blockSize
}

// Start registers the render callback.
func (c *OfflineContext) Start(render RenderFunc) error {
	if c.closed {
		return ErrContextClosed
	}

	if c.render != nil {
		return ErrContextStarted
	}

	c.render = render

	return nil
}

// DecodeAudio decodes compressed audio bytes into a sample buffer.
func (c *OfflineContext) DecodeAudio(data []byte) (*audiofile.Buffer, error) {
	return audiofile.Decode(data)
}

// RenderBlock pulls one block from the registered callback into the given
// stereo buffers. Both slices must share one length.
func (c *OfflineContext) RenderBlock(left, right []float64) error {
	if c.closed {
		return ErrContextClosed
	}

	if c.render == nil {
		return ErrNotInitialized
	}

	if len(left) != len(right) {
		return errors.New("engine: stereo buffer length mismatch")
	}

	c.render(left, right)

	return nil
}

// Close releases the context. Further rendering fails with
// ErrContextClosed; Close itself is idempotent.
func (c *OfflineContext) Close() error {
	c.closed = true
	c.render = nil

	return nil
}
