package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Generate the FIR filter kernels used by the tone
 *		demodulator, plus the small helpers that run them.
 *
 *----------------------------------------------------------------*/

import (
	"math"
)

type windowType int

const (
	windowTruncated windowType = iota
	windowCosine
	windowHamming
)

/*------------------------------------------------------------------
 *
 * Name:	filterWindow
 *
 * Purpose:	Filter window shape functions.
 *
 * Inputs:	wtype	- windowCosine, etc.
 *		size	- Number of filter taps.
 *		j	- Index in range of 0 to size-1.
 *
 * Returns:	Multiplier for the window shape.
 *
 *----------------------------------------------------------------*/

func filterWindow(wtype windowType, size int, j int) float64 {
	var center = 0.5 * float64(size-1)

	switch wtype {
	case windowCosine:
		return math.Cos((float64(j) - center) / float64(size) * math.Pi)
	case windowHamming:
		return 0.53836 - 0.46164*math.Cos((float64(j)*2*math.Pi)/float64(size-1))
	default:
		return 1.0
	}
}

/*------------------------------------------------------------------
 *
 * Name:	genLowpass
 *
 * Purpose:	Generate a low pass filter kernel, normalized for
 *		unity gain at DC.
 *
 * Inputs:	fc	- Cutoff frequency as fraction of sampling frequency.
 *		size	- Number of filter taps.
 *		wtype	- Window type.
 *
 * Returns:	Filter kernel of the requested size.
 *
 *----------------------------------------------------------------*/

func genLowpass(fc float64, size int, wtype windowType) []float64 {
	var kernel = make([]float64, size)
	var center = 0.5 * float64(size-1)

	for j := 0; j < size; j++ {
		var sinc float64
		if float64(j)-center == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*(float64(j)-center)) / (math.Pi * (float64(j) - center))
		}
		kernel[j] = sinc * filterWindow(wtype, size, j)
	}

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	for j := range kernel {
		kernel[j] /= sum
	}

	return kernel
}

/*------------------------------------------------------------------
 *
 * Name:	genBandpass
 *
 * Purpose:	Generate a band pass filter kernel for the prefilter
 *		ahead of the mark/space correlators.  Normalized for
 *		unity gain in the middle of the passband.
 *
 * Inputs:	f1	- Lower cutoff frequency as fraction of sampling frequency.
 *		f2	- Upper cutoff frequency...
 *		size	- Number of filter taps.
 *		wtype	- Window type.
 *
 *----------------------------------------------------------------*/

func genBandpass(f1 float64, f2 float64, size int, wtype windowType) []float64 {
	var kernel = make([]float64, size)
	var center = 0.5 * float64(size-1)

	for j := 0; j < size; j++ {
		var sinc float64
		if float64(j)-center == 0 {
			sinc = 2 * (f2 - f1)
		} else {
			sinc = math.Sin(2*math.Pi*f2*(float64(j)-center))/(math.Pi*(float64(j)-center)) -
				math.Sin(2*math.Pi*f1*(float64(j)-center))/(math.Pi*(float64(j)-center))
		}
		kernel[j] = sinc * filterWindow(wtype, size, j)
	}

	// Can't normalize against the DC sum like the lowpass.
	// Compute the gain in the middle of the passband instead.
	// See http://dsp.stackexchange.com/questions/4693/fir-filter-gain
	var w = 2 * math.Pi * (f1 + f2) / 2
	var g float64
	for j := 0; j < size; j++ {
		g += 2 * kernel[j] * math.Cos((float64(j)-center)*w)
	}
	for j := range kernel {
		kernel[j] /= g
	}

	return kernel
}

/* Add sample to buffer and shift the rest down. */

func pushSample(val float64, buff []float64) {
	copy(buff[1:], buff[:len(buff)-1])
	buff[0] = val
}

/* FIR filter. */

func convolve(data, filter []float64) float64 {
	var sum float64
	for j := range filter {
		sum += filter[j] * data[j]
	}
	return sum
}

// Automatic gain control.  An IIR envelope follower with fast attack
// and slow decay tracks the peak and the valley of the tone amplitude.
// The valley matters because it does not go down to zero when the tone
// is absent.  The normalized result settles down to roughly one unit
// peak to peak, i.e. -0.5 to +0.5.

func agc(in, fastAttack, slowDecay, inPeak, inValley float64) (peak, valley, norm float64) {
	if in >= inPeak {
		peak = in*fastAttack + inPeak*(1.0-fastAttack)
	} else {
		peak = in*slowDecay + inPeak*(1.0-slowDecay)
	}

	if in <= inValley {
		valley = in*fastAttack + inValley*(1.0-fastAttack)
	} else {
		valley = in*slowDecay + inValley*(1.0-slowDecay)
	}

	if peak > valley {
		return peak, valley, (in - 0.5*(peak+valley)) / (peak - valley)
	}

	return peak, valley, 0.0
}
