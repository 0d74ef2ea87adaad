package audiofile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/go-audio/wav"
)

// Errors returned by Decode.
var (
	ErrUnknownFormat = errors.New("audiofile: unknown format")
	ErrEmptyData     = errors.New("audiofile: empty data")
)

// Decode sniffs the container format (WAV, OGG Vorbis, or MP3) and decodes
// the payload into a per-channel sample buffer.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	switch {
	case isWAV(data):
		return decodeWAV(data)
	case isOgg(data):
		return decodeOgg(data)
	case isMP3(data):
		return decodeMP3(data)
	default:
		return nil, ErrUnknownFormat
	}
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func isOgg(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS"))
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}

	// Bare frame sync: 11 set bits.
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeWAV(data []byte) (*Buffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("audiofile: invalid WAV data")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiofile: decoding WAV: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	scale := 1 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float64(v) * scale
	}

	return &Buffer{
		SampleRate: pcm.Format.SampleRate,
		Data:       deinterleave(samples, pcm.Format.NumChannels),
	}, nil
}

func decodeMP3(data []byte) (*Buffer, error) {
	decoder, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audiofile: decoding MP3: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("audiofile: reading MP3 stream: %w", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	const channels = 2

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		samples[i] = float64(v) / 32768
	}

	return &Buffer{
		SampleRate: decoder.SampleRate(),
		Data:       deinterleave(samples, channels),
	}, nil
}

func decodeOgg(data []byte) (*Buffer, error) {
	reader, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audiofile: decoding OGG: %w", err)
	}

	var samples []float64

	chunk := make([]float32, 4096)

	for {
		n, err := reader.Read(chunk)
		for _, v := range chunk[:n] {
			samples = append(samples, float64(v))
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("audiofile: reading OGG stream: %w", err)
		}

		if n == 0 {
			break
		}
	}

	return &Buffer{
		SampleRate: reader.SampleRate(),
		Data:       deinterleave(samples, reader.Channels()),
	}, nil
}
