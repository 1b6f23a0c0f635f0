// Package wav serializes mono float buffers into the canonical 16-bit PCM
// RIFF/WAVE byte layout. The layout is compatibility-critical for downstream
// players, so the encoder is written against the byte format directly rather
// than through an encoding library.
package wav

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrNoSamples is returned for empty input. Callers are expected to reject
// empty captures before encoding; this keeps the encoder defensive.
var ErrNoSamples = errors.New("wav: no samples to encode")

const (
	headerSize    = 44
	numChannels   = 1
	bitsPerSample = 16
	formatPCM     = 1
)

// Encode produces a complete RIFF/WAVE container for a mono float buffer.
// Samples are clamped to [-1, 1] and quantized as floor(s * 32767), written
// little-endian.
func Encode(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	dataBytes := len(samples) * 2
	out := make([]byte, headerSize+dataBytes)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataBytes))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], numChannels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*numChannels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(out[32:34], numChannels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataBytes))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[headerSize+i*2:], uint16(quantize(s)))
	}

	return out, nil
}

func quantize(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(math.Floor(v * 32767))
}
