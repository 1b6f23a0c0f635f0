package recorder

import "time"

// State models the capture lifecycle. The sample accumulator receives chunks
// if and only if the state is StateRecording; the level meter runs whenever
// the state is not StateIdle.
type State int32

const (
	StateIdle State = iota
	StateMonitoring
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMonitoring:
		return "monitoring"
	case StateRecording:
		return "recording"
	}
	return "unknown"
}

// AudioMetadata describes a finished recording. Field names and units are
// consumed by existing reviewers and must stay stable.
type AudioMetadata struct {
	MicName              string  `json:"micName"`
	MicDeviceID          string  `json:"micDeviceId"`
	SampleRate           int     `json:"sampleRate"`
	BitDepth             int     `json:"bitDepth"`
	Channels             int     `json:"channels"`
	DurationSec          float64 `json:"durationSec"`
	TruePeakDb           float64 `json:"truePeakDb"`
	IntegratedLoudnessDb float64 `json:"integratedLoudnessDb"`
}

// AudioRecording is the single terminal artifact of one recording: the
// encoded WAV bytes plus their metadata. Never mutated after creation.
type AudioRecording struct {
	TakeID string
	Bytes  []byte
	Meta   AudioMetadata
}

// WarningCode identifies non-fatal conditions surfaced alongside a take.
type WarningCode string

const (
	WarnLowAmplitude WarningCode = "low_amplitude"
	WarnShortTake    WarningCode = "short_take"
)

// Warning is a non-fatal advisory; the artifact is still produced.
type Warning struct {
	Code    WarningCode
	Message string
}

// Sink receives controller events. RecordingReady is invoked exactly once
// per successful recording, never on error or empty capture. Implementations
// must not block; they run on the controller's consumer goroutine.
type Sink interface {
	StateChanged(old, next State)
	RecordingReady(rec *AudioRecording)
	Warning(w Warning)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) StateChanged(old, next State)       {}
func (NopSink) RecordingReady(rec *AudioRecording) {}
func (NopSink) Warning(w Warning)                  {}

// Config controls one controller instance.
type Config struct {
	// DeviceID selects the capture device; empty means the default device.
	DeviceID string
	// SampleRate to request from the device.
	SampleRate int
	// ChunkFrames is the fixed window size delivered per chunk.
	ChunkFrames int
	// MaxDuration, when positive, hard-stops a recording that reaches it,
	// exactly as a caller-initiated stop would.
	MaxDuration time.Duration
	// MinDuration, when positive, is advisory only: stopping earlier still
	// produces an artifact, with a short-take warning.
	MinDuration time.Duration
}
