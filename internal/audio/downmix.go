package audio

// DownmixInterleaved folds an interleaved multi-channel buffer to mono by
// taking the arithmetic mean across channels for each frame. The result is
// always a new slice, even for mono input.
func DownmixInterleaved(samples []float32, channels, frames int) []float32 {
	mono := make([]float32, frames)
	if channels <= 1 {
		copy(mono, samples)
		return mono
	}
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			sum += samples[base+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Downmix folds a chunk to mono.
func Downmix(c Chunk) []float32 {
	return DownmixInterleaved(c.Samples, c.Channels, c.Frames())
}
