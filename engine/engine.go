package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/DavidAlvaradoEspe/sc360-iem/audiofile"
	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/core"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/coords"
	"github.com/DavidAlvaradoEspe/sc360-iem/spatial/hrir"
)

// Engine errors.
var (
	ErrNotInitialized     = errors.New("engine: not initialized")
	ErrAlreadyInitialized = errors.New("engine: already initialized")
	ErrNoRealtimeContext  = errors.New("engine: no audio context configured")
)

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateError
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Callbacks are engine event notifications. They are invoked synchronously
// from engine methods or the render callback and must not call back into
// the engine.
type Callbacks struct {
	OnStateChange   func(State)
	OnPlaybackEnded func()
}

// Snapshot is the externally visible playback status.
type Snapshot struct {
	IsPlaying bool
	IsLoaded  bool
	FileName  string
}

// Engine is the playback engine: it owns the audio context, the spatial
// rendering chain, the loaded source, and the master gain, and exposes the
// transport and direction controls. All methods are safe for concurrent
// use.
type Engine struct {
	mu sync.Mutex

	logger     *slog.Logger
	rt         Context
	httpClient *http.Client

	hrirMeta    []byte
	hrirData    []byte
	hrirMetaURL string
	hrirDataURL string

	state     State
	started   bool
	disposed  bool
	callbacks Callbacks

	backend SpatialBackend
	master  *gainNode

	source   []float64
	fileName string
	handle   *bufferSource
	playing  bool

	volume    float64
	eqEnabled bool

	azimuthDeg   float64
	elevationDeg float64
	pending      *coords.Direction

	mono []float64
	decL []float64
	decR []float64
}

// New creates an engine in the Uninitialized state. Call Init before
// loading or playing anything.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:     slog.Default(),
		httpClient: http.DefaultClient,
		volume:     1,
		eqEnabled:  true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// Init brings the engine to Ready: it loads the impulse-response dataset,
// builds the rendering chain, and starts the audio context. It runs once;
// later calls return ErrAlreadyInitialized. A missing audio context is
// fatal: the engine transitions to Error and the failure is surfaced.
// A dataset that cannot be fetched or parsed is not: the engine logs it
// and continues with a neutral filter bank.
func (e *Engine) Init(ctx context.Context, cb Callbacks) error {
	e.mu.Lock()

	if e.state != StateUninitialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}

	e.callbacks = cb

	if e.rt == nil {
		e.setStateLocked(StateError)
		e.mu.Unlock()

		return ErrNoRealtimeContext
	}

	e.setStateLocked(StateInitializing)
	e.mu.Unlock()

	bank := e.loadFilterBank(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Dispose may have raced the dataset fetch.
	if e.disposed {
		return nil
	}

	backend, err := newAmbisonicBackend(e.rt.SampleRate(), bank)
	if err != nil {
		e.setStateLocked(StateError)
		return fmt.Errorf("engine: building rendering chain: %w", err)
	}

	backend.SetEQEnabled(e.eqEnabled)
	backend.SetDirection(e.azimuthDeg, e.elevationDeg)

	e.backend = backend
	e.master = newGainNode(e.rt.SampleRate(), e.volume)

	if err := e.rt.Start(e.renderBlock); err != nil {
		e.backend = nil
		e.master = nil
		e.setStateLocked(StateError)

		return fmt.Errorf("engine: starting audio context: %w", err)
	}

	e.started = true
	e.setStateLocked(StateReady)

	e.logger.Info("engine: ready",
		"sample_rate", e.rt.SampleRate(),
		"block_size", e.rt.BlockSize())

	return nil
}

// loadFilterBank resolves the impulse-response dataset from the inline
// bytes or the configured URLs and builds the filter bank at the output
// rate. Every failure degrades to the neutral bank.
func (e *Engine) loadFilterBank(ctx context.Context) *hrir.FilterBank {
	rate := e.rt.SampleRate()

	meta, payload := e.hrirMeta, e.hrirData

	if meta == nil && e.hrirMetaURL != "" {
		var err error

		meta, err = e.fetch(ctx, e.hrirMetaURL)
		if err == nil {
			payload, err = e.fetch(ctx, e.hrirDataURL)
		}

		if err != nil {
			e.logger.Warn("engine: dataset fetch failed, using neutral filter bank", "error", err)
			return hrir.DefaultFilterBank(rate)
		}
	}

	if meta == nil {
		e.logger.Warn("engine: no impulse-response dataset configured, using neutral filter bank")
		return hrir.DefaultFilterBank(rate)
	}

	set, err := hrir.Load(meta, payload, hrir.WithLogger(e.logger))
	if err != nil {
		e.logger.Warn("engine: dataset load failed, using neutral filter bank", "error", err)
		return hrir.DefaultFilterBank(rate)
	}

	e.logger.Info("engine: impulse-response dataset loaded",
		"name", set.Name,
		"positions", set.NumPositions,
		"length", set.Length,
		"dataset_rate", set.SampleRate)

	return set.BuildFilterBank(rate)
}

func (e *Engine) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: building request for %s: %w", url, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine: fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("engine: reading %s: %w", url, err)
	}

	return body, nil
}

// LoadFile decodes audio bytes into the engine's source buffer: downmixed
// to mono and resampled to the output rate. It never starts playback. On
// decode failure the previously loaded source stays intact.
func (e *Engine) LoadFile(name string, data []byte) error {
	e.mu.Lock()

	if err := e.operableLocked(); err != nil || e.disposed {
		e.mu.Unlock()
		return err
	}

	rt := e.rt
	e.mu.Unlock()

	buf, err := rt.DecodeAudio(data)
	if err != nil {
		return fmt.Errorf("engine: decoding %q: %w", name, err)
	}

	mono := audiofile.DownmixMono(buf)

	outRate := rt.SampleRate()
	if buf.SampleRate > 0 && float64(buf.SampleRate) != outRate {
		target := int(math.Round(float64(len(mono)) * outRate / float64(buf.SampleRate)))
		if target < 1 {
			target = 1
		}

		mono = hrir.ResampleLinear(mono, target)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return nil
	}

	if e.handle != nil {
		e.handle.stop()
		e.handle = nil
	}

	e.playing = false
	e.source = mono
	e.fileName = name

	e.logger.Info("engine: source loaded",
		"name", name,
		"frames", len(mono),
		"source_rate", buf.SampleRate)

	return nil
}

// LoadFromURL fetches audio bytes and loads them like LoadFile.
func (e *Engine) LoadFromURL(ctx context.Context, url string) error {
	e.mu.Lock()
	if err := e.operableLocked(); err != nil || e.disposed {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	data, err := e.fetch(ctx, url)
	if err != nil {
		return err
	}

	return e.LoadFile(url, data)
}

// Play starts looping playback of the loaded source on a fresh handle.
// Any previous handle is stopped and discarded; handles are never
// restarted. Without a loaded source it logs a warning and returns nil.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.operableLocked(); err != nil || e.disposed {
		return err
	}

	if len(e.source) == 0 {
		e.logger.Warn("engine: play requested with no source loaded")
		return nil
	}

	if e.handle != nil {
		e.handle.stop()
	}

	onEnded := e.callbacks.OnPlaybackEnded
	e.handle = newBufferSource(e.source, true, func() {
		// Runs inside the render callback with the lock held; only a
		// handle that ran off the end on its own gets here.
		e.playing = false

		if onEnded != nil {
			onEnded()
		}
	})

	e.playing = true

	return nil
}

// Stop halts playback. The stopped handle is discarded, so a later Play
// starts from the beginning.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.operableLocked(); err != nil || e.disposed {
		return err
	}

	if e.handle != nil {
		e.handle.stop()
		e.handle = nil
	}

	e.playing = false

	return nil
}

// TogglePlayback stops when playing and plays otherwise.
func (e *Engine) TogglePlayback() error {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()

	if playing {
		return e.Stop()
	}

	return e.Play()
}

// SetDirection updates the source direction in degrees. Updates coalesce:
// only the latest one is applied, at the top of the next rendered block.
// Out-of-range values are normalized, never rejected.
func (e *Engine) SetDirection(azDeg, elDeg float64) {
	if math.IsNaN(elDeg) || math.IsInf(elDeg, 0) {
		elDeg = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.azimuthDeg = coords.NormalizeAzimuth(azDeg)
	e.elevationDeg = core.Clamp(elDeg, -90, 90)
	e.pending = &coords.Direction{Azimuth: e.azimuthDeg, Elevation: e.elevationDeg}
}

// SetVolume sets the master gain, clamped to [0, 1]. The gain moves
// through a short ramp, never a jump.
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		v = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = core.Clamp(v, 0, 1)

	if e.master != nil {
		e.master.setTarget(e.volume)
	}
}

// SetEQEnabled toggles the directional EQ. The remembered direction
// survives a disable/enable cycle.
func (e *Engine) SetEQEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.eqEnabled = enabled

	if e.backend != nil {
		e.backend.SetEQEnabled(enabled)
	}
}

// IsReady reports whether the engine accepts transport commands.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state == StateReady
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// GetState returns the playback status snapshot.
func (e *Engine) GetState() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		IsPlaying: e.playing,
		IsLoaded:  len(e.source) > 0,
		FileName:  e.fileName,
	}
}

// GetPosition returns the current source direction in degrees, normalized.
func (e *Engine) GetPosition() coords.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()

	return coords.Direction{Azimuth: e.azimuthDeg, Elevation: e.elevationDeg}
}

// Dispose tears the engine down and closes the audio context. It is
// idempotent; after it, transport methods are no-ops unless the engine was
// never initialized, in which case load and play still report
// ErrNotInitialized.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return nil
	}

	e.disposed = true

	if e.handle != nil {
		e.handle.stop()
		e.handle = nil
	}

	e.playing = false
	e.source = nil
	e.fileName = ""

	if e.backend != nil {
		e.backend.Reset()
		e.backend = nil
	}

	e.master = nil

	// Close the context even when Init never finished: Dispose may win the
	// race with an in-flight Init, whose resumption bails out on the
	// disposed flag without reaching its own teardown.
	var err error
	if e.rt != nil {
		err = e.rt.Close()
	}

	e.setStateLocked(StateDisposed)

	return err
}

// operableLocked gates load and transport calls: disposed engines absorb
// them silently, except when the engine was never initialized.
func (e *Engine) operableLocked() error {
	if e.disposed {
		if !e.started {
			return ErrNotInitialized
		}

		return nil
	}

	if e.state != StateReady {
		return ErrNotInitialized
	}

	return nil
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}

	e.state = s

	if e.callbacks.OnStateChange != nil {
		e.callbacks.OnStateChange(s)
	}
}

// renderBlock fills one stereo output block. A pending direction update is
// applied first, so arbitrarily fast interaction costs one update per
// block. The chain keeps running on silence when nothing plays, letting
// convolution tails and gain ramps finish.
func (e *Engine) renderBlock(left, right []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	if e.disposed || e.backend == nil {
		return
	}

	if d := e.pending; d != nil {
		e.backend.SetDirection(d.Azimuth, d.Elevation)
		e.pending = nil
	}

	n := len(left)
	e.ensureScratch(n)

	mono := e.mono[:n]

	if e.handle != nil && e.handle.active() {
		e.handle.readBlock(mono)
	} else {
		for i := range mono {
			mono[i] = 0
		}
	}

	if err := e.backend.RenderBlock(e.decL[:n], e.decR[:n], mono); err != nil {
		e.logger.Error("engine: render failed", "error", err)
		return
	}

	// The decoded ears are crossed into the opposite output channels to
	// match the dataset's measured channel order.
	copy(left, e.decR[:n])
	copy(right, e.decL[:n])

	e.master.processBlock(left, right)
}

func (e *Engine) ensureScratch(n int) {
	if cap(e.mono) < n {
		e.mono = make([]float64, n)
		e.decL = make([]float64, n)
		e.decR = make([]float64, n)
	}
}
