package samealert

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, alertCh, testCh int) (*Router, *[]Delivery, *time.Time) {
	t.Helper()

	locations, err := LoadLocationTable()
	require.NoError(t, err)

	var clock = time.Date(2026, time.May, 3, 18, 10, 0, 0, time.UTC)
	var sent []Delivery

	cfg := DefaultConfig()
	cfg.AlertChannel = alertCh
	cfg.TestChannel = testCh

	r := NewRouter(cfg, locations,
		func() time.Time { return clock },
		func(d Delivery) { sent = append(sent, d) })
	return r, &sent, &clock
}

func mustParse(t *testing.T, header string) *Alert {
	t.Helper()
	a, err := ParseHeader(header, time.Date(2026, time.May, 3, 18, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	return a
}

func TestRouterForwardsWarning(t *testing.T) {
	r, sent, _ := newTestRouter(t, 3, TestChannelUnset)

	r.Handle(mustParse(t, "ZCZC-CIV-TOR-019153+0015-1231805-KARO/CFC -"))

	require.Len(t, *sent, 1)
	d := (*sent)[0]
	assert.Equal(t, 3, d.Channel)
	assert.Contains(t, d.Text, "Tornado Warning")
	assert.Contains(t, d.Text, "Issued By: Civil Authorities")
	assert.Contains(t, d.Text, "Location: Polk")
	assert.True(t, strings.HasPrefix(d.Text, "\U0001F6A8"))
}

func TestRouterSuppressesDuplicates(t *testing.T) {
	r, sent, clock := newTestRouter(t, 0, TestChannelUnset)

	var a = mustParse(t, "ZCZC-WXR-TOR-019153+0015-1231805-KFSD/NWS-")
	r.Handle(a)
	require.Len(t, *sent, 1)

	// Same transmission relayed by another station.
	r.Handle(mustParse(t, "ZCZC-WXR-TOR-019153+0015-1231805-WXYZ/TV -"))
	assert.Len(t, *sent, 1)

	// After the purge time passes, a re-announcement is fresh again.
	*clock = a.Expiry.Add(time.Minute)
	r.Handle(mustParse(t, "ZCZC-WXR-TOR-019153+0015-1231805-KFSD/NWS-"))
	assert.Len(t, *sent, 2)
}

func TestRouterDropsTestsWithoutTestChannel(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, TestChannelUnset)

	r.Handle(mustParse(t, "ZCZC-WXR-RWT-019101-019103+0030-1231200-KFSD/NWS-"))
	assert.Empty(t, *sent)
}

func TestRouterRoutesTestsToTestChannel(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, 2)

	r.Handle(mustParse(t, "ZCZC-WXR-RWT-019101-019103+0030-1231200-KFSD/NWS-"))

	require.Len(t, *sent, 1)
	d := (*sent)[0]
	assert.Equal(t, 2, d.Channel)
	assert.Contains(t, d.Text, "Required Weekly Test from KFSD/NWS")
	assert.Contains(t, d.Text, "Issued By: National Weather Service")
	assert.Contains(t, d.Text, "Locations: Jefferson, Johnson")
	assert.True(t, strings.HasPrefix(d.Text, "\U0001F4D6"))
}

func TestRouterNationwideAlert(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, TestChannelUnset)

	r.Handle(mustParse(t, "ZCZC-PEP-EAN-000000+0100-1231900-WASH/PEP-"))

	require.Len(t, *sent, 1)
	d := (*sent)[0]
	assert.Contains(t, d.Text, "Emergency Action Notification")
	assert.Contains(t, d.Text, "Issued By: United States Government")
	assert.Contains(t, d.Text, "Nationwide Alert")
	assert.NotContains(t, d.Text, "Location:")
}

func TestRouterUnknownCountyFallsBackToCode(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, TestChannelUnset)

	r.Handle(mustParse(t, "ZCZC-WXR-TOR-099999+0015-1231805-KFSD/NWS-"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].Text, "099999")
}

func TestRouterSubdivisionPrefix(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, TestChannelUnset)

	r.Handle(mustParse(t, "ZCZC-WXR-TOR-719153+0015-1231805-KFSD/NWS-"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].Text, "Southwest Polk")
}

func TestRouterTruncatesLongMessages(t *testing.T) {
	r, sent, _ := newTestRouter(t, 0, TestChannelUnset)

	// 31 distinct unknown codes render as raw digits and overflow the
	// mesh payload limit.
	var locs []string
	for i := 0; i < 31; i++ {
		locs = append(locs, "09"+strings.Repeat("9", 2)+string(rune('0'+i%10))+string(rune('0'+i/10)))
	}
	header := "ZCZC-WXR-TOR-" + strings.Join(locs, "-") + "+0015-1231805-KFSD/NWS-"

	r.Handle(mustParse(t, header))

	require.Len(t, *sent, 1)
	assert.LessOrEqual(t, len((*sent)[0].Text), 228)
	assert.True(t, utf8.ValidString((*sent)[0].Text))
}

func TestTruncateMessageKeepsRuneBoundary(t *testing.T) {
	// One ASCII byte then three-byte runes: the payload limit lands
	// mid-rune, so the cut must back up to the previous boundary.
	var long = "a" + strings.Repeat("⚠", 100)
	got := truncateMessage(long)

	assert.Equal(t, 226, len(got))
	assert.True(t, utf8.ValidString(got))

	// Short messages pass through untouched.
	var short = "🚨Tornado Warning"
	assert.Equal(t, short, truncateMessage(short))
}
