package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

func TestEncodeGoldenFixture(t *testing.T) {
	data, err := Encode([]float32{0.5, -0.5, 0.0}, 16000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if len(data) != 50 {
		t.Fatalf("expected 50 bytes, got %d", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		t.Fatalf("bad RIFF id: %q", data[0:4])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 42 {
		t.Fatalf("expected RIFF size 42, got %d", got)
	}
	if string(data[8:12]) != "WAVE" {
		t.Fatalf("bad WAVE id: %q", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Fatalf("bad fmt id: %q", data[12:16])
	}
	if got := binary.LittleEndian.Uint32(data[16:20]); got != 16 {
		t.Fatalf("expected fmt chunk size 16, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[20:22]); got != 1 {
		t.Fatalf("expected PCM format 1, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Fatalf("expected 1 channel, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 32000 {
		t.Fatalf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[32:34]); got != 2 {
		t.Fatalf("expected block align 2, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Fatalf("expected 16 bits per sample, got %d", got)
	}
	if string(data[36:40]) != "data" {
		t.Fatalf("bad data id: %q", data[36:40])
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 6 {
		t.Fatalf("expected data size 6, got %d", got)
	}

	wantSamples := []int16{16383, -16384, 0}
	for i, want := range wantSamples {
		got := int16(binary.LittleEndian.Uint16(data[44+i*2:]))
		if got != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestEncodeEmptyBuffer(t *testing.T) {
	_, err := Encode(nil, 48000)
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestEncodeClampsOutOfRangeSamples(t *testing.T) {
	data, err := Encode([]float32{2.0, -2.0}, 8000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if got := int16(binary.LittleEndian.Uint16(data[44:])); got != 32767 {
		t.Fatalf("expected positive clamp to 32767, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[46:])); got != -32767 {
		t.Fatalf("expected negative clamp to -32767, got %d", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = rng.Float32()*2 - 1
	}

	data, err := Encode(samples, 44100)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	d := gowav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	wantFormat := goaudio.Format{NumChannels: 1, SampleRate: 44100}
	if *buf.Format != wantFormat {
		t.Fatalf("unexpected decoded format: %+v", buf.Format)
	}
	if d.BitDepth != 16 {
		t.Fatalf("expected bit depth 16, got %d", d.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}

	// floor-quantization keeps every decoded sample within one step of the
	// original.
	const step = 1.0 / 32767.0
	for i, v := range buf.Data {
		got := float64(v) / 32767.0
		if diff := math.Abs(got - float64(samples[i])); diff > step {
			t.Fatalf("sample %d: decoded %v differs from %v by %v", i, got, samples[i], diff)
		}
	}
}

func TestEncodeSizeMatchesSampleCount(t *testing.T) {
	data, err := Encode(make([]float32, 8192), 48000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(data) != 44+8192*2 {
		t.Fatalf("expected %d bytes, got %d", 44+8192*2, len(data))
	}
}
