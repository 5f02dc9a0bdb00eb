package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Extract SAME bursts from a stream of bits and group
 *		the repetitions belonging to one transmission.
 *
 * Description:	Every burst begins with a long run of the 0xAB
 *		preamble byte, then "ZCZC" for a header or "NNNN" for
 *		the end-of-message marker.  Bytes are sent LSB first
 *		with no error detection.  Keeping the most recent 64
 *		bits in an accumulator and comparing against the two
 *		start patterns gives byte alignment for free.
 *
 *		A header is transmitted three times back to back with
 *		roughly a one second pause between repetitions.  Bursts
 *		that close within the configured gap are collected into
 *		one batch for reconciliation.  The batch is flushed
 *		when the third repetition arrives, when the gap expires,
 *		when the end-of-message marker is heard, or when the
 *		caller flushes at end of input.
 *
 *----------------------------------------------------------------*/

// Last 64 bits on the wire for each interesting pattern: four
// preamble bytes followed by the four start characters.
const (
	accumZCZC = 0x435a435aabababab
	accumNNNN = 0x4e4e4e4eabababab
)

// Longest legal burst, not including preamble.  Allows the maximum of
// 31 geographic areas.
const maxBurstLen = 268

// FrameSync slices a demodulated bitstream into burst candidates.
type FrameSync struct {
	onBatch func(candidates []string)
	onEOM   func()

	acc uint64

	gathering       bool
	bitsInOctet     int
	frame           []byte
	plusFound       bool
	fieldsAfterPlus int

	bitClock     uint64 // bits seen since start, for gap measurement
	batch        []string
	lastBurstBit uint64
	maxGapBits   uint64
}

// NewFrameSync creates a synchronizer.  maxGapBits bounds the pause
// between repetitions of one transmission, measured in bit times.
// onBatch receives 1-3 candidates; onEOM fires on the NNNN marker and
// may be nil.
func NewFrameSync(maxGapBits uint64, onBatch func([]string), onEOM func()) *FrameSync {
	return &FrameSync{
		onBatch:    onBatch,
		onEOM:      onEOM,
		maxGapBits: maxGapBits,
		frame:      make([]byte, 0, maxBurstLen),
	}
}

// RecvBit consumes one demodulated bit.  The return value reports
// whether a burst is currently being gathered, which doubles as the
// data-carrier indication for the demodulator's PLL.
func (f *FrameSync) RecvBit(bit int) bool {
	f.bitClock++

	// A pending batch that never got its next repetition closes early.
	if !f.gathering && len(f.batch) > 0 && f.bitClock-f.lastBurstBit > f.maxGapBits {
		f.flush()
	}

	// Accumulate most recent 64 bits.
	f.acc >>= 1
	if bit != 0 {
		f.acc |= 0x8000000000000000
	}

	switch {
	case f.acc == accumZCZC:
		f.gathering = true
		f.bitsInOctet = 0
		f.plusFound = false
		f.fieldsAfterPlus = 0
		f.frame = append(f.frame[:0], "ZCZC"...)

	case f.acc == accumNNNN:
		f.gathering = false
		f.flush()
		if f.onEOM != nil {
			f.onEOM()
		}

	case f.gathering:
		f.bitsInOctet++
		if f.bitsInOctet == 8 {
			f.bitsInOctet = 0
			f.recvOctet(byte(f.acc >> 56))
		}
	}

	return f.gathering
}

func (f *FrameSync) recvOctet(ch byte) {
	// Only ASCII is allowed.  The geographic area list can contain
	// anything printable and the examples show a slash in the
	// station field, so the gate is just "printable or CR/LF".
	if !((ch >= ' ' && ch <= 0x7f) || ch == '\r' || ch == '\n') {
		f.gathering = false
		return
	}

	f.frame = append(f.frame, ch)
	if len(f.frame) > maxBurstLen {
		f.gathering = false
		return
	}

	if ch == '+' {
		f.plusFound = true
		f.fieldsAfterPlus = 0
	}
	if f.plusFound && ch == '-' {
		f.fieldsAfterPlus++
		if f.fieldsAfterPlus == 3 {
			// Trailing dash after the station field: the burst
			// is complete.
			f.closeBurst()
		}
	}
}

func (f *FrameSync) closeBurst() {
	f.gathering = false
	f.lastBurstBit = f.bitClock
	f.batch = append(f.batch, string(f.frame))
	metricBurstsSeen.Inc()

	if len(f.batch) == 3 {
		f.flush()
	}
}

// Flush delivers any pending batch.  Called on end of input.
func (f *FrameSync) Flush() {
	f.gathering = false
	f.flush()
}

func (f *FrameSync) flush() {
	if len(f.batch) == 0 {
		return
	}
	var batch = f.batch
	f.batch = nil
	f.onBatch(batch)
}
