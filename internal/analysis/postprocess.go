package analysis

import "math"

// peakFloor keeps the log finite for all-zero buffers.
const peakFloor = 1e-8

// oversampleFactor is the number of interpolated points evaluated between
// adjacent samples when searching for the true peak.
const oversampleFactor = 4

// Metrics summarizes a finished mono recording.
type Metrics struct {
	// TruePeakDb is the oversampled peak estimate in dBFS. Never less than
	// RawPeakDb: interpolation only adds candidate points.
	TruePeakDb float64
	// RawPeakDb is the peak over the discrete samples in dBFS.
	RawPeakDb float64
	// RawPeak is the linear peak amplitude in [0, 1].
	RawPeak float64
	// IntegratedLoudnessDb is a whole-buffer RMS estimate in dB. This is a
	// deliberate simplification, not a K-weighted gated loudness measure.
	IntegratedLoudnessDb float64
	// DurationSec is the buffer length divided by the sample rate.
	DurationSec float64
}

// Analyze computes the post-recording measurements over a frozen mono buffer.
func Analyze(mono []float32, sampleRate int) Metrics {
	n := len(mono)

	var rawPeak float64
	var sumSquares float64
	for _, s := range mono {
		v := math.Abs(float64(s))
		if v > rawPeak {
			rawPeak = v
		}
		sumSquares += float64(s) * float64(s)
	}

	maxAbs := rawPeak
	// Cubic Catmull-Rom through each interior run of four samples,
	// evaluated at the three intermediate oversampling points.
	for i := 1; i+2 < n; i++ {
		p0 := float64(mono[i-1])
		p1 := float64(mono[i])
		p2 := float64(mono[i+1])
		p3 := float64(mono[i+2])
		for k := 1; k < oversampleFactor; k++ {
			t := float64(k) / oversampleFactor
			v := math.Abs(catmullRom(p0, p1, p2, p3, t))
			if v > maxAbs {
				maxAbs = v
			}
		}
	}

	var rms float64
	var duration float64
	if n > 0 {
		rms = math.Sqrt(sumSquares / float64(n))
	}
	if sampleRate > 0 {
		duration = float64(n) / float64(sampleRate)
	}

	return Metrics{
		TruePeakDb:           20 * math.Log10(math.Max(peakFloor, maxAbs)),
		RawPeakDb:            20 * math.Log10(math.Max(peakFloor, rawPeak)),
		RawPeak:              rawPeak,
		IntegratedLoudnessDb: 20 * math.Log10(math.Max(peakFloor, rms)),
		DurationSec:          duration,
	}
}

// catmullRom evaluates the uniform Catmull-Rom spline through p0..p3 at
// t in [0,1], where t=0 lands on p1 and t=1 on p2.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t*t +
		(-p0+3*p1-3*p2+p3)*t*t*t)
}
