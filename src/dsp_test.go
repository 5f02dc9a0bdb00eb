package samealert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filterGain measures the amplitude ratio of a steady tone through the
// kernel, which is more honest than poking at individual taps.
func filterGain(kernel []float64, freq float64) float64 {
	var buf = make([]float64, len(kernel))
	var peak float64

	// Let the filter fill, then observe a few cycles.
	var n = 4 * len(kernel)
	for i := 0; i < n; i++ {
		pushSample(math.Sin(2*math.Pi*freq*float64(i)), buf)
		if i > len(kernel) {
			if out := math.Abs(convolve(buf, kernel)); out > peak {
				peak = out
			}
		}
	}
	return peak
}

func TestGenLowpassUnityAtDC(t *testing.T) {
	var kernel = genLowpass(0.1, 51, windowTruncated)

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Well into the stopband the tone disappears.
	assert.Less(t, filterGain(kernel, 0.35), 0.1)
}

func TestGenBandpassPassesTonesRejectsOthers(t *testing.T) {
	// The prefilter band used at 48 kHz: space tone minus margin to
	// mark tone plus margin.
	var f1 = (sameSpaceFreq - 0.87*sameBaud) / 48000.0
	var f2 = (sameMarkFreq + 0.87*sameBaud) / 48000.0
	var kernel = genBandpass(f1, f2, 171, windowCosine)

	var midGain = filterGain(kernel, (f1+f2)/2)
	var markGain = filterGain(kernel, sameMarkFreq/48000.0)
	var spaceGain = filterGain(kernel, sameSpaceFreq/48000.0)

	// The normalization puts mid-passband at one half.
	assert.InDelta(t, 0.5, midGain, 0.05)
	assert.InDelta(t, midGain, markGain, 0.1)
	assert.InDelta(t, midGain, spaceGain, 0.1)

	// Hum and voice-band energy far from the tones is attenuated.
	assert.Less(t, filterGain(kernel, 100.0/48000.0), 0.1)
	assert.Less(t, filterGain(kernel, 8000.0/48000.0), 0.1)
}

func TestPushSampleShifts(t *testing.T) {
	var buf = []float64{1, 2, 3, 4}
	pushSample(9, buf)
	assert.Equal(t, []float64{9, 1, 2, 3}, buf)
}

func TestConvolve(t *testing.T) {
	assert.InDelta(t, 1*4+2*5+3*6, convolve([]float64{1, 2, 3}, []float64{4, 5, 6}), 1e-12)
}

func TestAGCTracksEnvelope(t *testing.T) {
	var peak, valley, norm float64

	// A steady tone envelope: the peak snaps up fast.
	for i := 0; i < 20; i++ {
		peak, valley, norm = agc(1.0, 0.70, 0.000090, peak, valley)
	}
	require.InDelta(t, 1.0, peak, 0.01)
	assert.Less(t, valley, 0.01)
	assert.Greater(t, norm, 0.4)

	// Tone gone: the peak decays slowly, not instantly.
	var decayed = peak
	for i := 0; i < 100; i++ {
		decayed, valley, _ = agc(0.0, 0.70, 0.000090, decayed, valley)
	}
	assert.Greater(t, decayed, 0.9)
	assert.Less(t, decayed, peak)
}
