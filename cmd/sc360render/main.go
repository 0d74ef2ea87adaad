// Command sc360render renders a binaural WAV from a mono or stereo source
// file, placing the source at a fixed direction or sweeping it around the
// listener.
//
// Usage:
//
//	sc360render -input talk.mp3 -output out.wav [flags]
//
// Examples:
//
//	sc360render -input talk.mp3 -output left.wav -azimuth 90
//	sc360render -input noise.wav -output orbit.wav -sweep 45 -duration 16
//	sc360render -input talk.ogg -output out.wav -hrir-meta set.json -hrir-data set.bin
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/DavidAlvaradoEspe/sc360-iem/audiofile"
	"github.com/DavidAlvaradoEspe/sc360-iem/engine"
)

func main() {
	input := flag.String("input", "", "source audio file (WAV, MP3, or OGG Vorbis)")
	output := flag.String("output", "out.wav", "output WAV path")
	hrirMeta := flag.String("hrir-meta", "", "impulse-response dataset metadata (JSON)")
	hrirData := flag.String("hrir-data", "", "impulse-response dataset payload (raw float32)")
	azimuth := flag.Float64("azimuth", 0, "source azimuth in degrees (0 ahead, positive left)")
	elevation := flag.Float64("elevation", 0, "source elevation in degrees")
	sweep := flag.Float64("sweep", 0, "azimuth sweep rate in degrees per second (0 holds the direction)")
	duration := flag.Float64("duration", 0, "render length in seconds (0 uses the source length)")
	volume := flag.Float64("volume", 1, "master volume in [0, 1]")
	sampleRate := flag.Float64("rate", 48000, "output sample rate in Hz")
	blockSize := flag.Int("block", 256, "render block size in frames")
	noEQ := flag.Bool("no-eq", false, "disable the directional EQ")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *input == "" {
		fmt.Fprintf(os.Stderr, "error: -input is required\n")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*input, *output, *hrirMeta, *hrirData,
		*azimuth, *elevation, *sweep, *duration, *volume,
		*sampleRate, *blockSize, !*noEQ, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output, hrirMeta, hrirData string,
	azimuth, elevation, sweep, duration, volume float64,
	sampleRate float64, blockSize int, eqEnabled bool, logger *slog.Logger,
) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	frames, err := renderFrames(data, duration, sampleRate)
	if err != nil {
		return err
	}

	rt, err := engine.NewOfflineContext(sampleRate, blockSize)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithContext(rt),
		engine.WithLogger(logger),
	}

	if hrirMeta != "" {
		meta, err := os.ReadFile(hrirMeta)
		if err != nil {
			return err
		}

		payload, err := os.ReadFile(hrirData)
		if err != nil {
			return err
		}

		opts = append(opts, engine.WithHRIRDataset(meta, payload))
	}

	eng := engine.New(opts...)
	defer eng.Dispose()

	if err := eng.Init(context.Background(), engine.Callbacks{}); err != nil {
		return err
	}

	eng.SetEQEnabled(eqEnabled)
	eng.SetVolume(volume)
	eng.SetDirection(azimuth, elevation)

	if err := eng.LoadFile(input, data); err != nil {
		return err
	}

	if err := eng.Play(); err != nil {
		return err
	}

	left := make([]float64, 0, frames)
	right := make([]float64, 0, frames)

	blockL := make([]float64, blockSize)
	blockR := make([]float64, blockSize)

	for rendered := 0; rendered < frames; rendered += blockSize {
		if sweep != 0 {
			t := float64(rendered) / sampleRate
			eng.SetDirection(azimuth+sweep*t, elevation)
		}

		if err := rt.RenderBlock(blockL, blockR); err != nil {
			return err
		}

		n := blockSize
		if remaining := frames - rendered; remaining < n {
			n = remaining
		}

		left = append(left, blockL[:n]...)
		right = append(right, blockR[:n]...)
	}

	if err := writeStereoWAV(output, left, right, int(sampleRate)); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %d frames at %.0f Hz\n", output, frames, sampleRate)

	return nil
}

// renderFrames determines the output length: the explicit duration when
// given, otherwise the source length converted to the output rate.
func renderFrames(data []byte, duration, sampleRate float64) (int, error) {
	if duration > 0 {
		return int(math.Round(duration * sampleRate)), nil
	}

	buf, err := audiofile.Decode(data)
	if err != nil {
		return 0, err
	}

	if buf.SampleRate <= 0 || buf.Frames() == 0 {
		return 0, fmt.Errorf("source has no audio frames")
	}

	seconds := float64(buf.Frames()) / float64(buf.SampleRate)

	return int(math.Round(seconds * sampleRate)), nil
}

func writeStereoWAV(path string, left, right []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)

	data := make([]int, len(left)*2)
	for i := range left {
		data[2*i] = toInt16(left[i])
		data[2*i+1] = toInt16(right[i])
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}

func toInt16(v float64) int {
	scaled := math.Round(v * 32767)
	if scaled > 32767 {
		scaled = 32767
	}

	if scaled < -32768 {
		scaled = -32768
	}

	return int(scaled)
}
