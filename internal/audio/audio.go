package audio

import "errors"

var (
	// ErrDeviceNotFound is returned when the requested capture device does not exist.
	ErrDeviceNotFound = errors.New("audio: capture device not found")
	// ErrPermissionDenied is returned when the host refuses access to the capture device.
	ErrPermissionDenied = errors.New("audio: capture permission denied")
)

// Device identifies an audio capture source. Devices are enumerated,
// immutable, and not owned by any session.
type Device struct {
	ID      string
	Label   string
	Default bool
}

// Chunk is one fixed-size window of interleaved float32 samples as delivered
// by the capture device. Chunks are immutable once produced; producers must
// copy device buffers before sending.
type Chunk struct {
	Samples  []float32
	Channels int
}

// Frames returns the number of sample frames in the chunk.
func (c Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Session is one live capture stream. Exactly one session per Capture may be
// open at a time; Close stops the device and closes the chunk channel passed
// to Open. Close is idempotent and must run on every exit path.
type Session interface {
	Device() Device
	SampleRate() int
	Channels() int
	Close() error
}

// Capture creates capture sessions and enumerates devices.
type Capture interface {
	// Open starts capturing from the named device (empty = default) and
	// pushes chunks of chunkFrames frames into out at the device's cadence.
	// Opening implicitly closes any session previously opened through this
	// Capture.
	Open(deviceID string, sampleRate, chunkFrames int, out chan<- Chunk) (Session, error)
	ListDevices() ([]Device, error)
	Close() error
}
