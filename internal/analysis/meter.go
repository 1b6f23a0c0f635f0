// Package analysis implements the signal measurements taken over captured
// audio: a smoothed dBFS level for live metering and the post-recording
// true-peak / loudness estimates.
package analysis

import "math"

const (
	// meterTau is the exponential smoothing time constant in seconds.
	meterTau = 0.4

	// meterFloor makes digital silence report exactly MinLevelDb:
	// 20*log10(1e-6) == -120.
	meterFloor = 1e-6

	// MinLevelDb and MaxLevelDb bound the reported level.
	MinLevelDb = -120.0
	MaxLevelDb = 0.0
)

// Meter maintains a running mean-square estimate of the mono signal and
// reports it as a smoothed dBFS level. It is not safe for concurrent use;
// the recording controller owns it exclusively.
type Meter struct {
	emaMS float64
}

func NewMeter() *Meter {
	return &Meter{}
}

// Reset clears the smoothing state. Called at the start of every recording.
func (m *Meter) Reset() {
	m.emaMS = 0
}

// Process folds one mono window into the estimate and returns the current
// level in dBFS, clamped to [MinLevelDb, MaxLevelDb].
func (m *Meter) Process(mono []float32, sampleRate int) float64 {
	if len(mono) == 0 || sampleRate <= 0 {
		return m.Level()
	}

	var sum float64
	for _, s := range mono {
		sum += float64(s) * float64(s)
	}
	ms := sum / float64(len(mono))

	chunkDur := float64(len(mono)) / float64(sampleRate)
	beta := math.Exp(-chunkDur / meterTau)
	m.emaMS = (1-beta)*ms + beta*m.emaMS

	return m.Level()
}

// Level returns the current smoothed level in dBFS without folding in new
// samples.
func (m *Meter) Level() float64 {
	rms := math.Sqrt(m.emaMS)
	db := 20 * math.Log10(math.Max(meterFloor, rms))
	return clampDb(db)
}

func clampDb(db float64) float64 {
	if db < MinLevelDb {
		return MinLevelDb
	}
	if db > MaxLevelDb {
		return MaxLevelDb
	}
	return db
}
