package samealert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Day 123 of 2026 is May 3rd.
var parseNow = time.Date(2026, time.May, 3, 15, 0, 0, 0, time.UTC)

func TestParseHeader(t *testing.T) {
	a, err := ParseHeader("ZCZC-WXR-RWT-019101-019103+0030-1231200-KFSD/NWS-", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "WXR", a.Originator)
	assert.Equal(t, "RWT", a.EventCode)
	assert.Equal(t, []string{"019101", "019103"}, a.LocationCodes)
	assert.Equal(t, 30*time.Minute, a.PurgeTime)
	assert.Equal(t, time.Date(2026, time.May, 3, 12, 0, 0, 0, time.UTC), a.IssueTime)
	assert.Equal(t, a.IssueTime.Add(30*time.Minute), a.Expiry)
	assert.Equal(t, "KFSD/NWS", a.StationID)
	assert.Equal(t, "ZCZC-WXR-RWT-019101-019103+0030-1231200-KFSD/NWS-", a.RawHeader)
}

func TestParseHeaderPaddedStation(t *testing.T) {
	// Some stations pad the 8 character identifier with a space.
	a, err := ParseHeader("ZCZC-CIV-TOR-019153+0015-1231805-KARO/CFC -", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "CIV", a.Originator)
	assert.Equal(t, "TOR", a.EventCode)
	assert.Equal(t, []string{"019153"}, a.LocationCodes)
	assert.Equal(t, 15*time.Minute, a.PurgeTime)
	assert.Equal(t, "KARO/CFC", a.StationID)
}

func TestParseHeaderRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"wrong prefix", "NNNN-WXR-RWT-019101+0030-1231200-KFSD/NWS-"},
		{"missing trailing dash", "ZCZC-WXR-RWT-019101+0030-1231200-KFSD/NWS"},
		{"missing plus", "ZCZC-WXR-RWT-019101-0030-1231200-KFSD/NWS-"},
		{"no locations", "ZCZC-WXR-RWT+0030-1231200-KFSD/NWS-"},
		{"short location", "ZCZC-WXR-RWT-19101+0030-1231200-KFSD/NWS-"},
		{"letters in location", "ZCZC-WXR-RWT-01910A+0030-1231200-KFSD/NWS-"},
		{"lowercase originator", "ZCZC-wxr-RWT-019101+0030-1231200-KFSD/NWS-"},
		{"short event", "ZCZC-WXR-RW-019101+0030-1231200-KFSD/NWS-"},
		{"zero purge", "ZCZC-WXR-RWT-019101+0000-1231200-KFSD/NWS-"},
		{"absurd purge", "ZCZC-WXR-RWT-019101+9900-1231200-KFSD/NWS-"},
		{"purge minutes overflow", "ZCZC-WXR-RWT-019101+0060-1231200-KFSD/NWS-"},
		{"day zero", "ZCZC-WXR-RWT-019101+0030-0001200-KFSD/NWS-"},
		{"day too big", "ZCZC-WXR-RWT-019101+0030-3671200-KFSD/NWS-"},
		{"hour too big", "ZCZC-WXR-RWT-019101+0030-1232400-KFSD/NWS-"},
		{"minute too big", "ZCZC-WXR-RWT-019101+0030-1231260-KFSD/NWS-"},
		{"empty station", "ZCZC-WXR-RWT-019101+0030-1231200--"},
		{"missing station field", "ZCZC-WXR-RWT-019101+0030-1231200-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.header, parseNow)
			require.Error(t, err)

			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
		})
	}
}

func TestParseHeaderYearRollback(t *testing.T) {
	// Heard on January 2nd: a header stamped day 365 must be from the
	// previous year, not eleven months in the future.
	var now = time.Date(2026, time.January, 2, 1, 0, 0, 0, time.UTC)

	a, err := ParseHeader("ZCZC-WXR-WSW-046099+0600-3652300-KFSD/NWS-", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), a.IssueTime)
}

func TestParseHeaderLeapDay366(t *testing.T) {
	// Day 366 only exists in a leap year.  Heard early in 2025 it can
	// only be December 31st 2024.
	var now = time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	a, err := ParseHeader("ZCZC-WXR-WSW-046099+0600-3660001-KFSD/NWS-", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 1, 0, 0, time.UTC), a.IssueTime)
}

func TestHeaderRoundTrip(t *testing.T) {
	var original = "ZCZC-WXR-RWT-019101-019103+0030-1231200-KFSD/NWS-"

	a, err := ParseHeader(original, parseNow)
	require.NoError(t, err)
	assert.Equal(t, original, a.Header())

	b, err := ParseHeader(a.Header(), parseNow)
	require.NoError(t, err)
	assert.Equal(t, a.Originator, b.Originator)
	assert.Equal(t, a.EventCode, b.EventCode)
	assert.Equal(t, a.LocationCodes, b.LocationCodes)
	assert.Equal(t, a.PurgeTime, b.PurgeTime)
	assert.Equal(t, a.IssueTime, b.IssueTime)
	assert.Equal(t, a.StationID, b.StationID)
}

func TestHeaderRoundTripProperty(t *testing.T) {
	// Midyear clock so generated issue days never look like a year
	// boundary case.
	var now = time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		var letters = rapid.StringOfN(rapid.RuneFrom([]rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")), 3, 3, 3)
		var org = letters.Draw(t, "org")
		var event = letters.Draw(t, "event")

		var nLocs = rapid.IntRange(1, 5).Draw(t, "nLocs")
		var locs = make([]string, nLocs)
		for i := range locs {
			locs[i] = rapid.StringOfN(rapid.RuneFrom([]rune("0123456789")), 6, 6, 6).Draw(t, "loc")
		}

		var purgeQuarters = rapid.IntRange(1, 24).Draw(t, "purgeQuarters")
		var purge = time.Duration(purgeQuarters) * 15 * time.Minute

		var day = rapid.IntRange(1, 182).Draw(t, "day")
		var hour = rapid.IntRange(0, 23).Draw(t, "hour")
		var minute = rapid.IntRange(0, 59).Draw(t, "minute")
		var station = rapid.StringOfN(rapid.RuneFrom([]rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ/")), 8, 8, 8).Draw(t, "station")

		var a = &Alert{
			Originator:    org,
			EventCode:     event,
			LocationCodes: locs,
			PurgeTime:     purge,
			IssueTime:     yearDay(2026, day, hour, minute),
			StationID:     station,
		}

		parsed, err := ParseHeader(a.Header(), now)
		if err != nil {
			t.Fatalf("re-parse of %q: %v", a.Header(), err)
		}

		if parsed.Originator != a.Originator ||
			parsed.EventCode != a.EventCode ||
			strings.Join(parsed.LocationCodes, "-") != strings.Join(a.LocationCodes, "-") ||
			parsed.PurgeTime != a.PurgeTime ||
			!parsed.IssueTime.Equal(a.IssueTime) ||
			parsed.StationID != a.StationID {
			t.Fatalf("round trip mismatch: %+v != %+v", parsed, a)
		}
	})
}

func TestFingerprintIgnoresStation(t *testing.T) {
	a, err := ParseHeader("ZCZC-WXR-TOR-019153+0015-1231805-KFSD/NWS-", parseNow)
	require.NoError(t, err)
	b, err := ParseHeader("ZCZC-WXR-TOR-019153+0015-1231805-WXYZ/TV -", parseNow)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := ParseHeader("ZCZC-WXR-TOR-019153+0015-1231806-KFSD/NWS-", parseNow)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
