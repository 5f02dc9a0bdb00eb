package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Decode a reconciled SAME header into an Alert.
 *
 * Grammar:	ZCZC-ORG-EEE-PSSCCC(-PSSCCC)*+TTTT-JJJHHMM-LLLLLLLL-
 *
 *		ORG	3 letter originator.
 *		EEE	3 letter event code.
 *		PSSCCC	location: optional subdivision digit P, then
 *			the state+county FIPS digits.  Up to 31.
 *		TTTT	purge duration, hours and minutes.
 *		JJJHHMM	issue time: day of year, hour, minute (UTC).
 *			The header carries no year.
 *		LLLLLLLL  8 character station identifier.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"strings"
	"time"
)

const maxLocationCodes = 31

// The widest purge duration considered sane.  Routine products use
// 15 minutes to 6 hours; anything above a day is corruption.
const maxPurge = 24 * time.Hour

// Alert is the decoded record of one SAME transmission.  It is
// immutable once constructed; the expiry is fixed at decode time.
type Alert struct {
	Originator    string
	EventCode     string
	LocationCodes []string
	PurgeTime     time.Duration
	IssueTime     time.Time
	Expiry        time.Time
	StationID     string
	RawHeader     string
}

// ParseHeader validates and decodes a canonical header.  now supplies
// the wall clock year the header itself lacks.
func ParseHeader(header string, now time.Time) (*Alert, error) {
	fail := func(reason string) (*Alert, error) {
		return nil, &FormatError{Header: header, Reason: reason}
	}

	if !strings.HasPrefix(header, headerPrefix) {
		return fail("missing " + headerPrefix + " prefix")
	}
	if !strings.HasSuffix(header, "-") {
		return fail("missing trailing separator")
	}

	var body = header[len(headerPrefix) : len(header)-1]

	var plus = strings.IndexByte(body, '+')
	if plus < 0 {
		return fail("missing + before purge duration")
	}

	var left = strings.Split(body[:plus], "-")
	if len(left) < 3 {
		return fail("missing originator, event code, or location codes")
	}

	var originator = left[0]
	if !isUpperAlpha(originator, 3) {
		return fail("originator is not three letters")
	}

	var event = left[1]
	if !isUpperAlpha(event, 3) {
		return fail("event code is not three letters")
	}

	var locations = left[2:]
	if len(locations) > maxLocationCodes {
		return fail("more than 31 location codes")
	}
	for _, l := range locations {
		if !isDigits(l, 6) {
			return fail("location code " + l + " is not six digits")
		}
	}

	// After the +: TTTT-JJJHHMM-LLLLLLLL (final dash already removed).
	var right = body[plus+1:]
	var parts = strings.SplitN(right, "-", 3)
	if len(parts) != 3 {
		return fail("missing issue time or station fields")
	}

	purge, err := parsePurge(parts[0])
	if err != nil {
		return fail(err.Error())
	}

	issue, err := parseIssue(parts[1], now)
	if err != nil {
		return fail(err.Error())
	}

	var station = strings.TrimRight(parts[2], " ")
	if station == "" || len(parts[2]) > 8+1 {
		return fail("station identifier is not 1-8 characters")
	}

	return &Alert{
		Originator:    originator,
		EventCode:     event,
		LocationCodes: locations,
		PurgeTime:     purge,
		IssueTime:     issue,
		Expiry:        issue.Add(purge),
		StationID:     station,
		RawHeader:     header,
	}, nil
}

func parsePurge(tttt string) (time.Duration, error) {
	if !isDigits(tttt, 4) {
		return 0, fmt.Errorf("purge duration %q is not four digits", tttt)
	}
	var hours = int(tttt[0]-'0')*10 + int(tttt[1]-'0')
	var minutes = int(tttt[2]-'0')*10 + int(tttt[3]-'0')
	if minutes > 59 {
		return 0, fmt.Errorf("purge minutes %d out of range", minutes)
	}
	var d = time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if d == 0 {
		return 0, fmt.Errorf("zero purge duration")
	}
	if d > maxPurge {
		return 0, fmt.Errorf("purge duration %s beyond sane maximum", d)
	}
	return d, nil
}

// parseIssue combines the day-of-year timestamp with the current
// wall-clock year.  A result more than one day in the future means we
// are on the near side of a year boundary and the header was issued
// in the previous year.
func parseIssue(jjjhhmm string, now time.Time) (time.Time, error) {
	if !isDigits(jjjhhmm, 7) {
		return time.Time{}, fmt.Errorf("issue time %q is not seven digits", jjjhhmm)
	}

	var day = int(jjjhhmm[0]-'0')*100 + int(jjjhhmm[1]-'0')*10 + int(jjjhhmm[2]-'0')
	var hour = int(jjjhhmm[3]-'0')*10 + int(jjjhhmm[4]-'0')
	var minute = int(jjjhhmm[5]-'0')*10 + int(jjjhhmm[6]-'0')

	if day < 1 || day > 366 {
		return time.Time{}, fmt.Errorf("day of year %d out of range", day)
	}
	if hour > 23 {
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	}

	var issue = yearDay(now.Year(), day, hour, minute)
	if issue.YearDay() != day {
		// Day 366 in a non-leap year; try the year before.
		issue = yearDay(now.Year()-1, day, hour, minute)
		if issue.YearDay() != day {
			return time.Time{}, fmt.Errorf("day of year %d does not exist", day)
		}
	} else if issue.After(now.Add(24 * time.Hour)) {
		issue = yearDay(now.Year()-1, day, hour, minute)
	}

	return issue, nil
}

func yearDay(year, day, hour, minute int) time.Time {
	return time.Date(year, time.January, 1, hour, minute, 0, 0, time.UTC).
		AddDate(0, 0, day-1)
}

// Fingerprint identifies a transmission for duplicate suppression.
// Two headers for the same event, area, and issue time are the same
// alert no matter which station relayed them.
func (a *Alert) Fingerprint() string {
	var b strings.Builder
	b.WriteString(a.Originator)
	b.WriteByte('-')
	b.WriteString(a.EventCode)
	b.WriteByte('-')
	b.WriteString(strings.Join(a.LocationCodes, "-"))
	b.WriteByte('@')
	b.WriteString(a.IssueTime.Format("2006002T1504"))
	return b.String()
}

// Header re-serializes the decoded fields in canonical form.
func (a *Alert) Header() string {
	return fmt.Sprintf("ZCZC-%s-%s-%s+%02d%02d-%03d%02d%02d-%s-",
		a.Originator,
		a.EventCode,
		strings.Join(a.LocationCodes, "-"),
		int(a.PurgeTime.Hours()),
		int(a.PurgeTime.Minutes())%60,
		a.IssueTime.YearDay(),
		a.IssueTime.Hour(),
		a.IssueTime.Minute(),
		a.StationID)
}

func isUpperAlpha(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
