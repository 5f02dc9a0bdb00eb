package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Demodulator for the two-tone AFSK carrying SAME bursts.
 *
 * Input:	16 bit signed audio samples, one at a time.
 *
 * Outputs:	Calls the bit sink for each bit recovered at the
 *		SAME symbol rate.
 *
 * Description:	Rather than convolving each sample with pre-computed
 *		mark and space filters, we have two free running local
 *		oscillators.  The sample is mixed with the I and Q
 *		phases of each oscillator and low-pass filtered to get
 *		the amplitude of each tone.  Automatic gain control
 *		scales the two amplitudes to the same range before
 *		comparing because, in the real world, the two tones
 *		rarely arrive at the same level.
 *
 *		A digital phase locked loop recovers the symbol clock
 *		and picks out data bits at the proper rate.  The phase
 *		accumulator carries over between calls so bit timing
 *		tracks drift instead of resetting on every chunk.
 *
 *		No resampling is performed.  The caller must supply
 *		audio at the configured rate; a mismatched rate is an
 *		input configuration problem, not something corrected
 *		here.
 *
 *----------------------------------------------------------------*/

import (
	"math"
)

// SAME transmission parameters.  The symbol rate is exactly
// 4166.667 Hz / 8 which does not land on an integer.
const (
	sameBaud      = 520.83
	sameMarkFreq  = 2083.3 // bit 1
	sameSpaceFreq = 1562.5 // bit 0
)

const ticksPerPLLCycle = 256.0 * 256.0 * 256.0 * 256.0

// BitSink receives one demodulated bit (0 or 1).  The return value
// reports whether the consumer is currently inside a burst, which the
// PLL uses as its locked/searching indication.
type BitSink func(bit int) bool

// Demodulator recovers the SAME bitstream from mono PCM audio.
// Methods must be called from a single goroutine.
type Demodulator struct {
	sink BitSink

	cos256 [256]float64

	preFilter []float64
	rawBuf    []float64

	mOscPhase uint32
	mOscDelta uint32
	sOscPhase uint32
	sOscDelta uint32

	lpFilter []float64
	mIRaw    []float64
	mQRaw    []float64
	sIRaw    []float64
	sQRaw    []float64

	agcFastAttack float64
	agcSlowDecay  float64
	mPeak         float64
	mValley       float64
	sPeak         float64
	sValley       float64

	// Squelch: when neither tone envelope shows enough peak-to-valley
	// swing, the channel is considered idle and the recovered bits
	// are forced to zero.
	squelchLevel float64

	pllStepPerSample int32
	dataClockPLL     int32
	pllLockedInertia float64
	pllSearchInertia float64
	prevDemodData    bool
	gathering        bool
}

func (d *Demodulator) fcos256(phase uint32) float64 {
	return d.cos256[(phase>>24)&0xff]
}

func (d *Demodulator) fsin256(phase uint32) float64 {
	return d.cos256[((phase>>24)-64)&0xff]
}

/*------------------------------------------------------------------
 *
 * Name:	NewDemodulator
 *
 * Purpose:	Select appropriate parameters for the SAME symbol rate
 *		and set up filters.
 *
 * Inputs:	sampleRate	- Audio sample rate, e.g. 48000.
 *		squelchLevel	- Minimum tone envelope swing before
 *				  bits are considered confident.
 *		sink		- Called once per recovered bit.
 *
 *----------------------------------------------------------------*/

func NewDemodulator(sampleRate int, squelchLevel float64, sink BitSink) *Demodulator {
	var d = &Demodulator{
		sink:             sink,
		agcFastAttack:    0.70,
		agcSlowDecay:     0.000090,
		squelchLevel:     squelchLevel,
		pllLockedInertia: 0.74,
		pllSearchInertia: 0.50,
	}

	for j := 0; j < 256; j++ {
		d.cos256[j] = math.Cos(float64(j) * 2.0 * math.Pi / 256.0)
	}

	var fsps = float64(sampleRate)

	// Bandpass prefilter to attenuate everything outside the two
	// tones of interest.  Values are for symbol rates below 600.
	var prefilterBaud = 0.87
	var preTaps = int(1.857*fsps/sameBaud) | 1 // odd is a little better
	var f1 = (sameSpaceFreq - prefilterBaud*sameBaud) / fsps
	var f2 = (sameMarkFreq + prefilterBaud*sameBaud) / fsps
	d.preFilter = genBandpass(f1, f2, preTaps, windowCosine)
	d.rawBuf = make([]float64, preTaps)

	// Local oscillators for the mark and space tones.
	d.mOscDelta = uint32(math.Round(math.Pow(2, 32) * sameMarkFreq / fsps))
	d.sOscDelta = uint32(math.Round(math.Pow(2, 32) * sameSpaceFreq / fsps))

	// Low pass filter for the tone envelopes.
	var lpTaps = int(math.Round(1.388*fsps/sameBaud)) | 1
	var fc = sameBaud * 0.14 / fsps
	d.lpFilter = genLowpass(fc, lpTaps, windowTruncated)
	d.mIRaw = make([]float64, lpTaps)
	d.mQRaw = make([]float64, lpTaps)
	d.sIRaw = make([]float64, lpTaps)
	d.sQRaw = make([]float64, lpTaps)

	// The symbol rate is not an integer so the PLL step is computed
	// from the exact value.  The DPLL keeps it in sync regardless.
	d.pllStepPerSample = int32(math.Round(ticksPerPLLCycle * sameBaud / fsps))

	return d
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessSample
 *
 * Purpose:	(1) Demodulate the AFSK signal.
 *		(2) Recover clock and data.
 *
 * Inputs:	sam	- One sample of audio, -32768 .. 32767.
 *
 * Description:	For each recovered data bit the registered sink is
 *		called.  When the squelch is closed the PLL keeps
 *		free-running and the recovered bits are forced to
 *		zero: the consumer sees an idle line, keeps scanning,
 *		and its gap clock keeps counting.
 *
 *----------------------------------------------------------------*/

func (d *Demodulator) ProcessSample(sam int16) {
	/* Scale to nice number. */
	var fsam = float64(sam) / 16384.0

	pushSample(fsam, d.rawBuf)
	fsam = convolve(d.rawBuf, d.preFilter)

	pushSample(fsam*d.fcos256(d.mOscPhase), d.mIRaw)
	pushSample(fsam*d.fsin256(d.mOscPhase), d.mQRaw)
	d.mOscPhase += d.mOscDelta

	pushSample(fsam*d.fcos256(d.sOscPhase), d.sIRaw)
	pushSample(fsam*d.fsin256(d.sOscPhase), d.sQRaw)
	d.sOscPhase += d.sOscDelta

	var mAmp = math.Hypot(convolve(d.mIRaw, d.lpFilter), convolve(d.mQRaw, d.lpFilter))
	var sAmp = math.Hypot(convolve(d.sIRaw, d.lpFilter), convolve(d.sQRaw, d.lpFilter))

	var mNorm, sNorm float64
	d.mPeak, d.mValley, mNorm = agc(mAmp, d.agcFastAttack, d.agcSlowDecay, d.mPeak, d.mValley)
	d.sPeak, d.sValley, sNorm = agc(sAmp, d.agcFastAttack, d.agcSlowDecay, d.sPeak, d.sValley)

	var open = (d.mPeak-d.mValley) > d.squelchLevel || (d.sPeak-d.sValley) > d.squelchLevel

	// The normalized values are around -0.5 to +0.5 so the difference
	// works out to roughly -1 to +1.
	d.nudgePLL(mNorm-sNorm, open)
}

/*
 * The PLL samples near the centers of the data bits.
 *
 * dataClockPLL is a SIGNED 32 bit variable.  When it overflows from a
 * large positive value to a negative value, we sample a data bit from
 * the demodulated signal.
 *
 * Transitions in the demodulated signal nudge the PLL phase toward
 * the incoming signal by scaling the accumulator toward zero.  The
 * adjustment never changes the sign so it cannot cause erratic bit
 * sampling.  Be more aggressive while searching for a signal and less
 * so when a burst is being gathered.
 */

func (d *Demodulator) nudgePLL(demodOut float64, squelchOpen bool) {
	var prev = d.dataClockPLL

	// Perform the add as unsigned to avoid signed overflow error.
	d.dataClockPLL = int32(uint32(d.dataClockPLL) + uint32(d.pllStepPerSample))

	if d.dataClockPLL < 0 && prev > 0 {
		/* Overflow - this is where we sample. */
		var bit = 0
		if squelchOpen && demodOut > 0 {
			bit = 1
		}
		d.gathering = d.sink(bit)
	}

	var demodData = demodOut > 0
	if demodData != d.prevDemodData {
		if d.gathering {
			d.dataClockPLL = int32(float64(d.dataClockPLL) * d.pllLockedInertia)
		} else {
			d.dataClockPLL = int32(float64(d.dataClockPLL) * d.pllSearchInertia)
		}
	}

	d.prevDemodData = demodData
}
