// Package callsign classifies and canonicalizes aircraft identifiers
// extracted from transmissions.
package callsign

import (
	"regexp"
	"strings"
)

// Kind is the shape of an aircraft identifier.
type Kind string

const (
	KindFlightNumber Kind = "flight_number" // UAE215
	KindTailNumber   Kind = "tail_number"   // N123AB
	KindUnknown      Kind = "unknown"
)

var (
	flightNumberRe = regexp.MustCompile(`^[A-Za-z]{2,3}[0-9]{1,4}$`)

	// Common tail number shapes: US N-numbers and hyphenated registrations.
	tailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^N[0-9]{1,5}$`),
		regexp.MustCompile(`^N[0-9]{1,4}[A-Za-z]{1,2}$`),
		regexp.MustCompile(`^[A-Z]-[A-Z0-9]{4}$`),
		regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{3,4}$`),
	}

	spaceRe = regexp.MustCompile(`\s+`)
)

// telephony maps radio telephony designators to ICAO airline codes.
var telephony = map[string]string{
	"american":  "AAL",
	"alaska":    "ASA",
	"speedbird": "BAW",
	"delta":     "DAL",
	"lufthansa": "DLH",
	"envoy":     "ENY",
	"eva":       "EVA",
	"jetblue":   "JBU",
	"cactus":    "AWE",
	"skywest":   "SKW",
	"southwest": "SWA",
	"emirates":  "UAE",
	"united":    "UAL",
}

// Classify reports the shape of a bare identifier such as "UAE215" or
// "N123AB".
func Classify(id string) Kind {
	if flightNumberRe.MatchString(id) {
		return KindFlightNumber
	}
	upper := strings.ToUpper(id)
	for _, p := range tailPatterns {
		if p.MatchString(upper) {
			return KindTailNumber
		}
	}
	return KindUnknown
}

// Canonical converts the spoken callsign text of a transmission to its
// compact identifier: "Emirates 215" becomes "UAE215", "N 1 2 3 A B"
// becomes "N123AB". Unknown telephony designators keep the spoken word.
// Returns "" when the text holds no identifier at all.
func Canonical(spoken string) string {
	spoken = strings.TrimSpace(spoken)
	if spoken == "" {
		return ""
	}
	fields := strings.Fields(spoken)

	head := strings.ToLower(fields[0])
	if code, ok := telephony[head]; ok {
		rest := strings.ToUpper(spaceRe.ReplaceAllString(strings.Join(fields[1:], ""), ""))
		return code + rest
	}

	// Already-compact identifiers, possibly spelled out with spaces.
	joined := strings.ToUpper(strings.Join(fields, ""))
	if Classify(joined) != KindUnknown {
		return joined
	}
	return ""
}
