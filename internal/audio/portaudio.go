package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// portAudioCapture is the default capture backend, backed by PortAudio.
type portAudioCapture struct {
	mu      sync.Mutex
	current *portAudioSession
}

func newPortAudioCapture() (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioCapture{}, nil
}

func (p *portAudioCapture) Open(deviceID string, sampleRate, chunkFrames int, out chan<- Chunk) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// One live session per backend; a second Open tears down the first.
	if p.current != nil {
		p.current.Close()
		p.current = nil
	}

	device, err := findInputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	channels := device.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	if channels < 1 {
		channels = 1
	}

	buffer := make([]float32, chunkFrames*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: chunkFrames,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	sess := &portAudioSession{
		dev: Device{
			ID:      device.Name,
			Label:   device.Name,
			Default: isDefaultInput(device),
		},
		sampleRate: sampleRate,
		channels:   channels,
		stream:     stream,
		quit:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	p.current = sess

	go sess.readLoop(buffer, out)

	return sess, nil
}

func (p *portAudioCapture) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      d.Name,
				Label:   d.Name,
				Default: defaultDevice != nil && d.Index == defaultDevice.Index,
			})
		}
	}

	return result, nil
}

func (p *portAudioCapture) Close() error {
	p.mu.Lock()
	if p.current != nil {
		p.current.Close()
		p.current = nil
	}
	p.mu.Unlock()
	portaudio.Terminate()
	return nil
}

func findInputDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == deviceID && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
}

// isDefaultInput compares by device index rather than DeviceInfo identity,
// which only holds while the library hands out its cached device list.
func isDefaultInput(device *portaudio.DeviceInfo) bool {
	defaultDevice, err := portaudio.DefaultInputDevice()
	if err != nil || defaultDevice == nil {
		return false
	}
	return device.Index == defaultDevice.Index
}

type portAudioSession struct {
	dev        Device
	sampleRate int
	channels   int
	stream     *portaudio.Stream

	quit      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

func (s *portAudioSession) Device() Device  { return s.dev }
func (s *portAudioSession) SampleRate() int { return s.sampleRate }
func (s *portAudioSession) Channels() int   { return s.channels }

// readLoop pulls fixed-size windows from the device and pushes immutable
// copies downstream. The out channel is closed when the loop exits, so
// consumers observe end-of-stream on session close.
func (s *portAudioSession) readLoop(buffer []float32, out chan<- Chunk) {
	defer close(s.loopDone)
	defer close(out)

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			return
		}

		samples := make([]float32, len(buffer))
		copy(samples, buffer)

		select {
		case out <- Chunk{Samples: samples, Channels: s.channels}:
		case <-s.quit:
			return
		}
	}
}

func (s *portAudioSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		// Abort unblocks a pending Read so the loop can observe quit.
		s.stream.Abort()
		<-s.loopDone
		s.stream.Close()
	})
	return nil
}
