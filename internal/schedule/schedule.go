// Package schedule turns natural-language routine schedules into RRULE strings.
package schedule

import (
	"sort"
	"strings"
)

var dayCodes = map[string]string{
	// German
	"montag":     "MO",
	"dienstag":   "TU",
	"mittwoch":   "WE",
	"donnerstag": "TH",
	"freitag":    "FR",
	"samstag":    "SA",
	"sonntag":    "SU",
	// English
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
	"sunday":    "SU",
}

// checked in order, before individual days
var specialSchedules = []struct {
	pattern string
	rrule   string
}{
	{"jeden tag", "FREQ=DAILY"},
	{"täglich", "FREQ=DAILY"},
	{"daily", "FREQ=DAILY"},
	{"werktags", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"},
	{"weekdays", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"},
	{"am wochenende", "FREQ=WEEKLY;BYDAY=SA,SU"},
	{"wochenende", "FREQ=WEEKLY;BYDAY=SA,SU"},
	{"weekend", "FREQ=WEEKLY;BYDAY=SA,SU"},
}

var weekOrder = map[string]int{"MO": 0, "TU": 1, "WE": 2, "TH": 3, "FR": 4, "SA": 5, "SU": 6}

// ParseRRule converts a schedule such as "Montag, Mittwoch, Freitag" into
// "FREQ=WEEKLY;BYDAY=MO,WE,FR". It reports false when nothing is recognised.
func ParseRRule(schedule string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(schedule))
	if s == "" {
		return "", false
	}

	for _, special := range specialSchedules {
		if strings.Contains(s, special.pattern) {
			return special.rrule, true
		}
	}

	seen := make(map[string]bool)
	var days []string
	for name, code := range dayCodes {
		if strings.Contains(s, name) && !seen[code] {
			seen[code] = true
			days = append(days, code)
		}
	}
	if len(days) == 0 {
		return "", false
	}

	sort.Slice(days, func(i, j int) bool { return weekOrder[days[i]] < weekOrder[days[j]] })
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ","), true
}
