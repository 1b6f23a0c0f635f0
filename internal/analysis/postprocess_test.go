package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func TestAnalyzeEmptyBuffer(t *testing.T) {
	m := Analyze(nil, 48000)

	if m.DurationSec != 0 {
		t.Fatalf("expected zero duration, got %v", m.DurationSec)
	}
	floor := 20 * math.Log10(peakFloor)
	if m.TruePeakDb != floor || m.IntegratedLoudnessDb != floor {
		t.Fatalf("expected floor values for empty buffer, got peak=%v loudness=%v",
			m.TruePeakDb, m.IntegratedLoudnessDb)
	}
}

func TestAnalyzeDuration(t *testing.T) {
	m := Analyze(make([]float32, 8192), 48000)
	want := 8192.0 / 48000.0
	if m.DurationSec != want {
		t.Fatalf("expected duration %v, got %v", want, m.DurationSec)
	}
}

func TestAnalyzeConstantSignal(t *testing.T) {
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = 0.5
	}
	m := Analyze(buf, 16000)

	want := 20 * math.Log10(0.5)
	if math.Abs(m.IntegratedLoudnessDb-want) > 1e-6 {
		t.Fatalf("expected loudness %v, got %v", want, m.IntegratedLoudnessDb)
	}
	if math.Abs(m.RawPeakDb-want) > 1e-6 {
		t.Fatalf("expected raw peak %v, got %v", want, m.RawPeakDb)
	}
	// A flat signal interpolates to itself.
	if math.Abs(m.TruePeakDb-m.RawPeakDb) > 1e-6 {
		t.Fatalf("expected true peak to equal raw peak for constant signal, got %v vs %v",
			m.TruePeakDb, m.RawPeakDb)
	}
}

func TestAnalyzeTruePeakNeverBelowRawPeak(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		buf := make([]float32, 64+rng.Intn(2048))
		for i := range buf {
			buf[i] = rng.Float32()*2 - 1
		}
		m := Analyze(buf, 48000)
		if m.TruePeakDb < m.RawPeakDb {
			t.Fatalf("trial %d: true peak %v below raw peak %v", trial, m.TruePeakDb, m.RawPeakDb)
		}
	}
}

func TestAnalyzeIntersampleOvershoot(t *testing.T) {
	// Two adjacent 0.8 samples bracketed by zeros: the interpolated curve
	// bulges above 0.8 halfway between them.
	buf := []float32{0, 0, 0.8, 0.8, 0, 0}
	m := Analyze(buf, 48000)

	if m.TruePeakDb <= m.RawPeakDb {
		t.Fatalf("expected inter-sample overshoot, got true=%v raw=%v", m.TruePeakDb, m.RawPeakDb)
	}

	// Midpoint of the plateau segment evaluates to 1.125x the plateau.
	want := 20 * math.Log10(0.9)
	if math.Abs(m.TruePeakDb-want) > 1e-6 {
		t.Fatalf("expected true peak %v, got %v", want, m.TruePeakDb)
	}
}

func TestAnalyzeSingleImpulse(t *testing.T) {
	buf := make([]float32, 8192)
	buf[6000] = 0.8
	m := Analyze(buf, 48000)

	if m.RawPeak != float64(buf[6000]) {
		t.Fatalf("expected raw peak 0.8, got %v", m.RawPeak)
	}
	if m.TruePeakDb < m.RawPeakDb {
		t.Fatalf("true peak %v below raw peak %v", m.TruePeakDb, m.RawPeakDb)
	}
	if m.TruePeakDb <= -1.94 {
		t.Fatalf("expected true peak above -1.94 dBFS, got %v", m.TruePeakDb)
	}
}

func TestCatmullRomEndpoints(t *testing.T) {
	if got := catmullRom(0, 1, 2, 3, 0); got != 1 {
		t.Fatalf("expected t=0 to land on p1, got %v", got)
	}
	if got := catmullRom(0, 1, 2, 3, 1); got != 2 {
		t.Fatalf("expected t=1 to land on p2, got %v", got)
	}
}
