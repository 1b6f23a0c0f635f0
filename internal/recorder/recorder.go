// Package recorder implements the recording controller: a strict state
// machine gating a live chunk stream into a level meter and a sample
// accumulator, with post-processing and WAV encoding on stop.
package recorder

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emberquiz/voicecapture/internal/analysis"
	"github.com/emberquiz/voicecapture/internal/audio"
	"github.com/emberquiz/voicecapture/internal/wav"
)

// lowAmplitudeThreshold is the linear peak below which a finished take is
// flagged as probably-silent.
const lowAmplitudeThreshold = 0.001

// chunkQueueDepth bounds the channel between the capture producer and the
// consumer goroutine.
const chunkQueueDepth = 32

const bitDepth = 16

// Controller owns at most one open capture session and one in-flight
// recording. All mutable accumulation state (buffer, meter, canonical state)
// lives on a single consumer goroutine; API calls talk to it through a
// command channel, so no audio state is shared across goroutines.
type Controller struct {
	capture audio.Capture
	sink    Sink
	cfg     Config
	log     zerolog.Logger

	mu   sync.Mutex
	sess *session

	state     atomic.Int32
	levelBits atomic.Uint64

	closeOnce sync.Once
}

// New creates a controller around an opened capture backend. The backend is
// not owned: callers close it themselves unless they use Controller.Close.
func New(capture audio.Capture, sink Sink, cfg Config, log zerolog.Logger) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.ChunkFrames <= 0 {
		cfg.ChunkFrames = 2048
	}
	c := &Controller{
		capture: capture,
		sink:    sink,
		cfg:     cfg,
		log:     log,
	}
	c.levelBits.Store(math.Float64bits(analysis.MinLevelDb))
	return c
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
)

type stopReply struct {
	rec *AudioRecording
	err error
}

type command struct {
	kind  cmdKind
	errc  chan error
	stopc chan stopReply
}

// session bundles one open capture stream with the channels the consumer
// goroutine lives on.
type session struct {
	src      audio.Session
	chunks   chan audio.Chunk
	cmds     chan command
	loopDone chan struct{}
}

// EnableMonitor opens the capture session and starts metering. A no-op when
// a session is already open.
func (c *Controller) EnableMonitor() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return nil
	}

	chunks := make(chan audio.Chunk, chunkQueueDepth)
	src, err := c.capture.Open(c.cfg.DeviceID, c.cfg.SampleRate, c.cfg.ChunkFrames, chunks)
	if err != nil {
		return fmt.Errorf("open capture session: %w", err)
	}

	sess := &session{
		src:      src,
		chunks:   chunks,
		cmds:     make(chan command),
		loopDone: make(chan struct{}),
	}
	c.sess = sess
	c.setState(StateMonitoring)

	c.log.Info().
		Str("device", src.Device().Label).
		Int("sample_rate", src.SampleRate()).
		Int("channels", src.Channels()).
		Msg("Monitoring enabled")

	go c.run(sess)
	return nil
}

// Start begins a new recording, implicitly enabling monitoring first. At
// most one recording may be in flight; a second Start is rejected.
func (c *Controller) Start() error {
	if err := c.EnableMonitor(); err != nil {
		return err
	}

	sess := c.currentSession()
	if sess == nil {
		return ErrNotRecording
	}

	cmd := command{kind: cmdStart, errc: make(chan error, 1)}
	select {
	case sess.cmds <- cmd:
	case <-sess.loopDone:
		return ErrNotRecording
	}
	return <-cmd.errc
}

// Stop freezes the accumulated buffer, runs post-processing and encoding,
// and returns the finished artifact. The same artifact is delivered through
// the sink exactly once. Stopping with an empty buffer returns
// ErrEmptyCapture and leaves the controller monitoring. If the recording
// already auto-stopped at the maximum duration, Stop returns that artifact.
func (c *Controller) Stop() (*AudioRecording, error) {
	sess := c.currentSession()
	if sess == nil {
		return nil, ErrNotRecording
	}

	cmd := command{kind: cmdStop, stopc: make(chan stopReply, 1)}
	select {
	case sess.cmds <- cmd:
	case <-sess.loopDone:
		return nil, ErrNotRecording
	}
	reply := <-cmd.stopc
	return reply.rec, reply.err
}

// DisableMonitor closes the capture session and returns to idle. If a
// recording is active this is a hard abort: the buffer is discarded and no
// artifact is produced.
func (c *Controller) DisableMonitor() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess == nil {
		return nil
	}

	// Closing the source stops the producer and closes the chunk channel,
	// which lets the consumer drain and exit.
	err := sess.src.Close()
	<-sess.loopDone

	c.setState(StateIdle)
	c.setLevel(analysis.MinLevelDb)
	c.log.Info().Msg("Monitoring disabled")
	return err
}

// Close tears down the session and the capture backend. Idempotent; safe on
// every exit path.
func (c *Controller) Close() error {
	err := c.DisableMonitor()
	c.closeOnce.Do(func() {
		if cerr := c.capture.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

// State reports the current lifecycle state without blocking.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Level reports the current smoothed input level in dBFS without blocking.
// Meant to be polled at display cadence.
func (c *Controller) Level() float64 {
	return math.Float64frombits(c.levelBits.Load())
}

func (c *Controller) currentSession() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Controller) setState(next State) {
	old := State(c.state.Swap(int32(next)))
	if old != next {
		c.sink.StateChanged(old, next)
	}
}

func (c *Controller) setLevel(db float64) {
	c.levelBits.Store(math.Float64bits(db))
}

// take is the mutable per-session state. It is owned exclusively by the run
// goroutine and never escapes it.
type take struct {
	meter      *analysis.Meter
	buf        []float32
	recording  bool
	id         string
	maxSamples int

	// pending holds an auto-stopped artifact until a manual Stop claims it,
	// so a caller racing the max-duration cut-off still gets the recording
	// instead of ErrNotRecording.
	pending *AudioRecording
}

func (c *Controller) run(sess *session) {
	defer close(sess.loopDone)

	st := &take{meter: analysis.NewMeter()}
	for {
		select {
		case cmd := <-sess.cmds:
			// Chunks already delivered by the device belong to the time
			// before the command; fold them in first so a stop finalizes
			// everything that was captured.
			open := c.drainChunks(sess, st)
			c.handleCommand(sess, st, cmd)
			if !open {
				c.handleStreamClosed(sess, st)
				return
			}
		case chunk, ok := <-sess.chunks:
			if !ok {
				c.handleStreamClosed(sess, st)
				return
			}
			c.handleChunk(sess, st, chunk)
		}
	}
}

func (c *Controller) drainChunks(sess *session, st *take) bool {
	for {
		select {
		case chunk, ok := <-sess.chunks:
			if !ok {
				return false
			}
			c.handleChunk(sess, st, chunk)
		default:
			return true
		}
	}
}

func (c *Controller) handleCommand(sess *session, st *take, cmd command) {
	switch cmd.kind {
	case cmdStart:
		cmd.errc <- c.startTake(sess, st)
	case cmdStop:
		if !st.recording {
			if st.pending != nil {
				rec := st.pending
				st.pending = nil
				cmd.stopc <- stopReply{rec: rec}
				return
			}
			cmd.stopc <- stopReply{err: ErrNotRecording}
			return
		}
		rec, err := c.finalize(sess, st)
		cmd.stopc <- stopReply{rec: rec, err: err}
	}
}

func (c *Controller) startTake(sess *session, st *take) error {
	if st.recording {
		return ErrRecordingInProgress
	}

	st.recording = true
	st.buf = nil
	st.pending = nil
	st.id = uuid.NewString()
	st.meter.Reset()
	c.setLevel(analysis.MinLevelDb)
	if c.cfg.MaxDuration > 0 {
		st.maxSamples = int(c.cfg.MaxDuration.Seconds() * float64(sess.src.SampleRate()))
	}
	c.setState(StateRecording)

	c.log.Info().Str("take_id", st.id).Msg("Recording started")
	return nil
}

func (c *Controller) handleChunk(sess *session, st *take, chunk audio.Chunk) {
	mono := audio.Downmix(chunk)
	c.setLevel(st.meter.Process(mono, sess.src.SampleRate()))

	if !st.recording {
		return
	}
	st.buf = append(st.buf, mono...)

	if st.maxSamples > 0 && len(st.buf) >= st.maxSamples {
		c.log.Info().Str("take_id", st.id).Msg("Maximum duration reached, stopping")
		rec, err := c.finalize(sess, st)
		if err != nil {
			c.log.Error().Err(err).Str("take_id", st.id).Msg("Auto-stop failed")
			return
		}
		st.pending = rec
	}
}

// finalize freezes the buffer, measures it, encodes it, and assembles the
// artifact. Runs on the consumer goroutine after the state has already left
// recording, so the buffer cannot alias live accumulation.
func (c *Controller) finalize(sess *session, st *take) (*AudioRecording, error) {
	st.recording = false
	c.setState(StateMonitoring)

	buf := st.buf
	st.buf = nil

	if len(buf) == 0 {
		c.log.Warn().Str("take_id", st.id).Msg("Stopped with no samples captured")
		return nil, ErrEmptyCapture
	}

	sampleRate := sess.src.SampleRate()
	metrics := analysis.Analyze(buf, sampleRate)

	encoded, err := wav.Encode(buf, sampleRate)
	if err != nil {
		c.log.Error().Err(err).Str("take_id", st.id).Msg("Encoding failed")
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	dev := sess.src.Device()
	rec := &AudioRecording{
		TakeID: st.id,
		Bytes:  encoded,
		Meta: AudioMetadata{
			MicName:              dev.Label,
			MicDeviceID:          dev.ID,
			SampleRate:           sampleRate,
			BitDepth:             bitDepth,
			Channels:             1,
			DurationSec:          metrics.DurationSec,
			TruePeakDb:           metrics.TruePeakDb,
			IntegratedLoudnessDb: metrics.IntegratedLoudnessDb,
		},
	}

	if metrics.RawPeak < lowAmplitudeThreshold {
		c.sink.Warning(Warning{
			Code:    WarnLowAmplitude,
			Message: fmt.Sprintf("peak amplitude %.6f is below %.3f, the take may be silent", metrics.RawPeak, lowAmplitudeThreshold),
		})
	}
	if c.cfg.MinDuration > 0 && metrics.DurationSec < c.cfg.MinDuration.Seconds() {
		c.sink.Warning(Warning{
			Code:    WarnShortTake,
			Message: fmt.Sprintf("take is %.2fs, shorter than the suggested minimum of %s", metrics.DurationSec, c.cfg.MinDuration),
		})
	}

	c.log.Info().
		Str("take_id", rec.TakeID).
		Float64("duration_sec", rec.Meta.DurationSec).
		Float64("true_peak_db", rec.Meta.TruePeakDb).
		Float64("loudness_db", rec.Meta.IntegratedLoudnessDb).
		Int("bytes", len(rec.Bytes)).
		Msg("Recording finished")

	c.sink.RecordingReady(rec)
	return rec, nil
}

// handleStreamClosed runs when the producer closed the chunk channel. A
// deliberate DisableMonitor has already detached the session and finishes
// the teardown itself; anything else is the device dying underneath us, so
// the consumer detaches the session and returns the controller to idle.
func (c *Controller) handleStreamClosed(sess *session, st *take) {
	c.abortIfRecording(st)

	c.mu.Lock()
	died := c.sess == sess
	if died {
		c.sess = nil
	}
	c.mu.Unlock()
	if !died {
		return
	}

	if err := sess.src.Close(); err != nil {
		c.log.Error().Err(err).Msg("Closing dead capture session")
	}
	c.setState(StateIdle)
	c.setLevel(analysis.MinLevelDb)
	c.log.Warn().Msg("Capture stream ended unexpectedly, monitoring disabled")
}

func (c *Controller) abortIfRecording(st *take) {
	if st.recording {
		c.log.Warn().
			Str("take_id", st.id).
			Int("samples_discarded", len(st.buf)).
			Msg("Recording aborted, buffer discarded")
		st.recording = false
		st.buf = nil
	}
}
