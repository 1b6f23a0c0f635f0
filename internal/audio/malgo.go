package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// malgoCapture is an alternate capture backend built on miniaudio. It is
// useful on hosts without a PortAudio runtime.
type malgoCapture struct {
	ctx *malgo.AllocatedContext

	mu      sync.Mutex
	current *malgoSession
}

func newMalgoCapture() (Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}
	return &malgoCapture{ctx: ctx}, nil
}

func (m *malgoCapture) Open(deviceID string, sampleRate, chunkFrames int, out chan<- Chunk) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
		m.current = nil
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	dev := Device{Default: true, Label: "default capture device"}
	if deviceID != "" {
		info, err := m.findDevice(deviceID)
		if err != nil {
			return nil, err
		}
		id := info.ID
		deviceConfig.Capture.DeviceID = id.Pointer()
		dev = Device{ID: info.ID.String(), Label: info.Name()}
	}

	sess := &malgoSession{
		dev:        dev,
		sampleRate: sampleRate,
		quit:       make(chan struct{}),
	}

	// miniaudio delivers callbacks at its own frame granularity; stage and
	// re-window so consumers always see chunkFrames-sized chunks.
	stage := make([]float32, 0, chunkFrames)
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			select {
			case <-sess.quit:
				return
			default:
			}
			stage = append(stage, bytesToFloat32(pInput)...)
			for len(stage) >= chunkFrames {
				samples := make([]float32, chunkFrames)
				copy(samples, stage[:chunkFrames])
				stage = append(stage[:0], stage[chunkFrames:]...)
				select {
				case out <- Chunk{Samples: samples, Channels: 1}:
				case <-sess.quit:
					return
				}
			}
		},
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	sess.device = device
	sess.out = out
	m.current = sess
	return sess, nil
}

func (m *malgoCapture) ListDevices() ([]Device, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(infos))
	for _, info := range infos {
		result = append(result, Device{
			ID:      info.ID.String(),
			Label:   info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return result, nil
}

func (m *malgoCapture) findDevice(deviceID string) (*malgo.DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for i := range infos {
		if infos[i].ID.String() == deviceID || infos[i].Name() == deviceID {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
}

func (m *malgoCapture) Close() error {
	m.mu.Lock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	m.mu.Unlock()

	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}

type malgoSession struct {
	dev        Device
	sampleRate int
	device     *malgo.Device
	out        chan<- Chunk

	quit      chan struct{}
	closeOnce sync.Once
}

func (s *malgoSession) Device() Device  { return s.dev }
func (s *malgoSession) SampleRate() int { return s.sampleRate }
func (s *malgoSession) Channels() int   { return 1 }

func (s *malgoSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		// Uninit blocks until the data callback has drained, after which
		// closing out cannot race a send.
		s.device.Uninit()
		close(s.out)
	})
	return nil
}

func bytesToFloat32(b []byte) []float32 {
	samples := make([]float32, len(b)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return samples
}
