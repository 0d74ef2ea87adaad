package audiofile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWAV builds a minimal 16-bit PCM RIFF/WAVE file with interleaved
// samples.
func makeWAV(sampleRate, channels int, samples []int16) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer

	dataLen := uint32(data.Len())
	byteRate := uint32(sampleRate * channels * 2)
	blockAlign := uint16(channels * 2)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func TestDecodeWAVMono(t *testing.T) {
	wav := makeWAV(44100, 1, []int16{16384, -16384, 32767, 0})

	buf, err := Decode(wav)
	require.NoError(t, err)

	assert.Equal(t, 44100, buf.SampleRate)
	assert.Equal(t, 1, buf.Channels())
	assert.Equal(t, 4, buf.Frames())

	assert.InDelta(t, 0.5, buf.Data[0][0], 1e-4)
	assert.InDelta(t, -0.5, buf.Data[0][1], 1e-4)
	assert.InDelta(t, 1.0, buf.Data[0][2], 1e-4)
	assert.InDelta(t, 0.0, buf.Data[0][3], 1e-12)
}

func TestDecodeWAVStereoDeinterleaves(t *testing.T) {
	// L0 R0 L1 R1
	wav := makeWAV(48000, 2, []int16{16384, -16384, 8192, -8192})

	buf, err := Decode(wav)
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Channels())
	assert.Equal(t, 2, buf.Frames())

	assert.InDelta(t, 0.5, buf.Data[0][0], 1e-4)
	assert.InDelta(t, 0.25, buf.Data[0][1], 1e-4)
	assert.InDelta(t, -0.5, buf.Data[1][0], 1e-4)
	assert.InDelta(t, -0.25, buf.Data[1][1], 1e-4)
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode([]byte("not audio data at all"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeEmptyData(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestDecodeTruncatedWAV(t *testing.T) {
	wav := makeWAV(44100, 1, []int16{1, 2, 3, 4})

	_, err := Decode(wav[:16])
	assert.Error(t, err)
}

func TestFormatSniffing(t *testing.T) {
	assert.True(t, isWAV(makeWAV(44100, 1, []int16{0})))
	assert.False(t, isWAV([]byte("RIFFxxxxJUNK")))

	assert.True(t, isOgg([]byte("OggS\x00rest")))
	assert.False(t, isOgg([]byte("Ogg?")))

	assert.True(t, isMP3([]byte("ID3\x04\x00")))
	assert.True(t, isMP3([]byte{0xFF, 0xFB, 0x90, 0x00}))
	assert.False(t, isMP3([]byte{0xFF, 0x10}))
}

func TestDownmixMono(t *testing.T) {
	tests := []struct {
		name string
		data [][]float64
		want []float64
	}{
		{
			"in-phase cancellation free",
			[][]float64{{1, 0.5}, {1, 0.5}},
			[]float64{1, 0.5},
		},
		{
			"opposite phase cancels",
			[][]float64{{1, -1}, {-1, 1}},
			[]float64{0, 0},
		},
		{
			"mono copied",
			[][]float64{{0.25, -0.75}},
			[]float64{0.25, -0.75},
		},
		{
			"four channel average",
			[][]float64{{1}, {0}, {1}, {0}},
			[]float64{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DownmixMono(&Buffer{SampleRate: 48000, Data: tt.data})
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestDownmixMonoCopies(t *testing.T) {
	buf := &Buffer{SampleRate: 48000, Data: [][]float64{{1, 2}}}

	out := DownmixMono(buf)
	out[0] = 99

	assert.Equal(t, 1.0, buf.Data[0][0])
}

func TestBufferAccessors(t *testing.T) {
	empty := &Buffer{}
	assert.Equal(t, 0, empty.Channels())
	assert.Equal(t, 0, empty.Frames())

	buf := &Buffer{Data: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	assert.Equal(t, 2, buf.Channels())
	assert.Equal(t, 3, buf.Frames())
}
