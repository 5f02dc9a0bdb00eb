package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Combine the repeated transmissions of one SAME header
 *		into a single trustworthy string.
 *
 * Description:	SAME has no error detection, but each header is sent
 *		three times.  Voting per character position across the
 *		repetitions recovers from isolated bit errors the same
 *		way multi-slicer voting recovers from marginal slicing
 *		levels.  With two candidates a disagreement cannot be
 *		resolved; with three, majority wins.
 *
 *----------------------------------------------------------------*/

import (
	"strings"
)

const headerPrefix = "ZCZC-"

// Positions up to and including the event code ("ZCZC-ORG-EEE") are
// fixed format; any unresolved disagreement there is fatal because a
// wrong originator or event code changes the meaning of the alert.
const fixedPrefixLen = 12

// Reconcile merges 1-3 burst candidates captured for the same
// physical transmission.  tolerance bounds the number of unresolved
// positions outside the fixed-format prefix before the batch is
// rejected.
func Reconcile(candidates []string, tolerance int) (string, error) {
	if len(candidates) == 0 {
		return "", &ReconciliationError{Reason: "no candidates captured", Candidates: 0}
	}

	// Left-align on the fixed prefix.  The synchronizer only starts a
	// burst on ZCZC so a mismatch here means the candidate is junk;
	// drop it rather than let it poison the vote.
	var aligned []string
	for _, c := range candidates {
		if strings.HasPrefix(c, headerPrefix) {
			aligned = append(aligned, c)
		}
	}
	if len(aligned) == 0 {
		return "", &ReconciliationError{
			Reason:     "no candidate carries the " + headerPrefix + " prefix",
			Candidates: len(candidates),
		}
	}

	var shortest = len(aligned[0])
	for _, c := range aligned[1:] {
		if len(c) < shortest {
			shortest = len(c)
		}
	}

	var out = make([]byte, 0, shortest)
	var lowConfidence int
	for pos := 0; pos < shortest; pos++ {
		ch, unanimousEnough := vote(aligned, pos)
		if !unanimousEnough {
			if pos < fixedPrefixLen {
				return "", &ReconciliationError{
					Reason:     "disagreement in fixed-format prefix",
					Candidates: len(candidates),
				}
			}
			lowConfidence++
			if lowConfidence > tolerance {
				return "", &ReconciliationError{
					Reason:     "too many unresolved positions",
					Candidates: len(candidates),
				}
			}
		}
		out = append(out, ch)
	}

	// Trailing tail beyond the shortest candidate: the longest
	// candidate that agrees with the reconciled part wins.
	var result = string(out)
	var tail string
	for _, c := range aligned {
		if strings.HasPrefix(c, result) && len(c)-shortest > len(tail) {
			tail = c[shortest:]
		}
	}

	return result + tail, nil
}

// vote picks the majority character at pos.  The bool result is false
// when no strict majority exists; the first candidate's character is
// returned as the best guess in that case.
func vote(aligned []string, pos int) (byte, bool) {
	var counts [3]int
	var chars [3]byte
	var distinct int

	for _, c := range aligned {
		var ch = c[pos]
		var found = false
		for i := 0; i < distinct; i++ {
			if chars[i] == ch {
				counts[i]++
				found = true
				break
			}
		}
		if !found {
			chars[distinct] = ch
			counts[distinct]++
			distinct++
		}
	}

	var best = 0
	for i := 1; i < distinct; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}

	if counts[best]*2 > len(aligned) {
		return chars[best], true
	}
	return aligned[0][pos], false
}
