package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Decide what happens to each decoded alert: suppress
 *		duplicates, drop unrouted tests, pick the target
 *		channel, and hand the message text to the forwarder.
 *
 * Description:	The same transmission is often heard more than once:
 *		relayed by several stations, or replayed when a long
 *		event is re-announced.  A fingerprint of the fields
 *		that identify the event is remembered until the alert's
 *		own purge time passes; anything already remembered is
 *		dropped.  The record is inserted before the hand-off so
 *		a delivery retry can never turn into a second delivery.
 *
 *----------------------------------------------------------------*/

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Meshtastic text payloads top out at 228 bytes.
const maxMessageLen = 228

// Delivery is one routed alert on its way to the mesh.
type Delivery struct {
	Fingerprint string
	Text        string
	Channel     int
}

type seenRecord struct {
	firstSeen time.Time
	expiry    time.Time
}

// Router classifies alerts and suppresses duplicates.  It is used
// only from the decode goroutine and needs no locking.
type Router struct {
	alertChannel int
	testChannel  int

	seen      map[string]seenRecord
	locations *LocationTable
	now       func() time.Time
	forward   func(Delivery)
}

// NewRouter wires the router to a forwarding function.  now is the
// clock, injectable for tests.
func NewRouter(cfg *Config, locations *LocationTable, now func() time.Time, forward func(Delivery)) *Router {
	return &Router{
		alertChannel: cfg.AlertChannel,
		testChannel:  cfg.TestChannel,
		seen:         make(map[string]seenRecord),
		locations:    locations,
		now:          now,
		forward:      forward,
	}
}

// Handle routes one decoded alert.
func (r *Router) Handle(a *Alert) {
	var now = r.now()
	r.purgeExpired(now)

	var fp = a.Fingerprint()
	if rec, ok := r.seen[fp]; ok {
		metricAlertsSuppressed.Inc()
		logger.Info("Suppressing duplicate alert",
			"event", a.EventCode, "fingerprint", fp, "first_seen", rec.firstSeen)
		return
	}

	var channel = r.alertChannel
	if IsRoutineTest(a.EventCode) {
		if r.testChannel == TestChannelUnset {
			metricAlertsSuppressed.Inc()
			logger.Info("Ignoring test alert", "event", a.EventCode, "station", a.StationID)
			return
		}
		channel = r.testChannel
	}

	// Remember before handing off so that at most one delivery is
	// ever initiated per fingerprint, even if forwarding fails and
	// retries.
	r.seen[fp] = seenRecord{firstSeen: now, expiry: a.Expiry}

	var text = r.buildMessage(a)
	metricAlertsRouted.Inc()
	logger.Info("Routing alert", "event", a.EventCode, "channel", channel, "message", text)

	r.forward(Delivery{Fingerprint: fp, Text: text, Channel: channel})
}

// purgeExpired drops records whose alerts have passed their purge
// time.  Done lazily on each arrival so no background sweeper is
// needed.
func (r *Router) purgeExpired(now time.Time) {
	for fp, rec := range r.seen {
		if now.After(rec.expiry) {
			delete(r.seen, fp)
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	buildMessage
 *
 * Purpose:	Render the mesh message text for one alert.
 *
 * Examples:	🚨Tornado Warning, Issued By: Civil Authorities,
 *		Location: Polk
 *
 *		📖Required Weekly Test from KFSD/NWS, Issued By:
 *		National Weather Service, Locations: Jefferson, Johnson
 *
 *----------------------------------------------------------------*/

func (r *Router) buildMessage(a *Alert) string {
	var sig = EventSignificance(a.EventCode)

	var b strings.Builder
	b.WriteString(sigEmoji(sig))
	b.WriteString(EventName(a.EventCode))
	if sig == SigTest {
		b.WriteString(" from ")
		b.WriteString(a.StationID)
	}
	b.WriteString(", Issued By: ")
	b.WriteString(OriginatorName(a.Originator))

	if IsNational(a) {
		b.WriteString(" Nationwide Alert")
	} else {
		var places []string
		for _, code := range a.LocationCodes {
			if place, ok := r.locations.Describe(code); ok {
				places = append(places, place)
			} else {
				logger.Debug("Location code not found", "code", code)
				places = append(places, code)
			}
		}
		if len(places) == 1 {
			b.WriteString(", Location: ")
		} else {
			b.WriteString(", Locations: ")
		}
		b.WriteString(strings.Join(places, ", "))
	}

	return truncateMessage(b.String())
}

// truncateMessage bounds the text to the mesh payload limit without
// cutting through a multi-byte rune.
func truncateMessage(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	logger.Debug("Message too long for the mesh, truncating", "len", len(text))

	var cut = maxMessageLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
