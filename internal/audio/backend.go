package audio

import (
	"fmt"
	"strings"
)

// BackendType selects the capture implementation.
type BackendType string

const (
	BackendPortAudio BackendType = "portaudio"
	BackendMalgo     BackendType = "malgo"
	BackendAuto      BackendType = "auto"
)

// NewCapture creates the capture backend named by backend ("auto" picks
// PortAudio). The returned Capture owns host-library state and must be
// closed when the process is done with audio.
func NewCapture(backend string) (Capture, error) {
	switch resolveBackend(backend) {
	case BackendPortAudio:
		return newPortAudioCapture()
	case BackendMalgo:
		return newMalgoCapture()
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

func resolveBackend(backend string) BackendType {
	switch strings.ToLower(backend) {
	case "", string(BackendAuto):
		return BackendPortAudio
	case string(BackendPortAudio):
		return BackendPortAudio
	case string(BackendMalgo):
		return BackendMalgo
	}
	return BackendType(backend)
}

// AvailableBackends lists the backends compiled into this build.
func AvailableBackends() []BackendType {
	return []BackendType{BackendPortAudio, BackendMalgo}
}
