package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dateTime matches ISO dates (2024-08-10, 2024-08-10 15:00, 2024-08-10T15:00)
// and day-first dotted dates (10.8.2024, 10.8.2024 15:00, 10.8.2024 klo 15.00).
const dateTime = `(\d{4}-\d{2}-\d{2}(?:[ T]\d{1,2}:\d{2})?|\d{1,2}\.\d{1,2}\.\d{4}(?:\s+(?:klo\s+)?\d{1,2}[:.]\d{2})?)`

var (
	checkInRe  = regexp.MustCompile(`(?i)\bcheck[\s-]?in\b[^0-9]{0,12}` + dateTime)
	checkOutRe = regexp.MustCompile(`(?i)\bcheck[\s-]?out\b[^0-9]{0,12}` + dateTime)
	kloRe      = regexp.MustCompile(`(?i)\s+klo\s+`)
)

var (
	isoLayouts    = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}
	dottedLayouts = []string{"2.1.2006 15:04", "2.1.2006"}
)

// StayDates holds the check-in and check-out times mentioned in a piece of text.
type StayDates struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// Empty reports whether neither date was found.
func (s StayDates) Empty() bool {
	return s.CheckIn == nil && s.CheckOut == nil
}

// ParseStayDates looks for "check-in <date>" and "check-out <date>" phrases.
// Text without either phrase yields empty StayDates and no error; a phrase
// followed by an impossible date is an error.
func ParseStayDates(text string, loc *time.Location) (StayDates, error) {
	if loc == nil {
		loc = time.UTC
	}

	var out StayDates
	if m := checkInRe.FindStringSubmatch(text); m != nil {
		t, err := parseDateTime(m[1], loc)
		if err != nil {
			return StayDates{}, fmt.Errorf("check-in: %w", err)
		}
		out.CheckIn = &t
	}
	if m := checkOutRe.FindStringSubmatch(text); m != nil {
		t, err := parseDateTime(m[1], loc)
		if err != nil {
			return StayDates{}, fmt.Errorf("check-out: %w", err)
		}
		out.CheckOut = &t
	}

	if out.CheckIn != nil && out.CheckOut != nil && out.CheckOut.Before(*out.CheckIn) {
		return StayDates{}, fmt.Errorf("check-out %s is before check-in %s", out.CheckOut.Format(time.RFC3339), out.CheckIn.Format(time.RFC3339))
	}
	return out, nil
}

func parseDateTime(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)

	layouts := isoLayouts
	if !strings.Contains(s, "-") {
		layouts = dottedLayouts
		s = kloRe.ReplaceAllString(s, " ")
		// 15.00 -> 15:00; only the time part has a dot after a space.
		if i := strings.LastIndex(s, " "); i >= 0 {
			s = s[:i] + " " + strings.Replace(s[i+1:], ".", ":", 1)
		}
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", raw)
}
