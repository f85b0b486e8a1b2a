package recur

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Kind identifies how a rule is expanded into concrete instants.
type Kind string

const (
	// KindTimes is an explicit list of absolute instants.
	KindTimes Kind = "times"
	// KindHourly fires once per hour at a fixed minute offset.
	KindHourly Kind = "hourly"
	// KindInterval fires every N hours on the hour.
	KindInterval Kind = "interval"
	// KindDaily fires at a list of authored times of day, projected
	// across the next few calendar days.
	KindDaily Kind = "daily"
	// KindRRule is a raw iCalendar RRULE string.
	KindRRule Kind = "rrule"
)

const (
	// HourlyWindowHours is the forward window for cadence rules.
	HourlyWindowHours = 48
	// DailyWindowDays is the forward window for daily time-of-day rules.
	DailyWindowDays = 4
	// AuthoringOffsetHours shifts authored hours into the displayed
	// timezone. Spawn tables are authored against GMT+2 but the board is
	// displayed in GMT+7, so declared hours move forward by 5 mod 24.
	// This is a fixed convention, not a timezone computation.
	AuthoringOffsetHours = 5
)

// Rule describes the recurrence of a single event. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Rule struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Times holds explicit absolute instants (KindTimes).
	Times []time.Time `json:"times,omitempty" yaml:"times,omitempty"`

	// Minute is the per-hour offset for KindHourly (0, 30, 35, 50, ...).
	Minute int `json:"minute,omitempty" yaml:"minute,omitempty"`

	// EveryHours is the cadence for KindInterval.
	EveryHours int `json:"every_hours,omitempty" yaml:"every_hours,omitempty"`

	// Daily holds authored "HH:MM" times of day for KindDaily.
	Daily []string `json:"daily,omitempty" yaml:"daily,omitempty"`

	// RRule is a raw RRULE string for KindRRule.
	RRule string `json:"rrule,omitempty" yaml:"rrule,omitempty"`
}

// Expand produces the concrete ordered occurrence instants for a rule,
// anchored at now. The sequence is strictly increasing. Cadence rules cover
// roughly [now, now+48h]; daily rules cover [now, now+4d].
//
// Top-of-hour generators (KindHourly with Minute 0, and KindInterval)
// include the current hour's truncated instant even though it is not
// strictly in the future. The board relies on that instant to mark events
// that fired earlier in the current hour as active. All other generators
// are strictly future.
func Expand(rule Rule, now time.Time) []time.Time {
	switch rule.Kind {
	case KindTimes:
		return expandTimes(rule.Times, now)
	case KindHourly:
		return expandHourly(rule.Minute, now)
	case KindInterval:
		return expandInterval(rule.EveryHours, now)
	case KindDaily:
		return expandDaily(rule.Daily, now)
	case KindRRule:
		return expandRRule(rule.RRule, now)
	default:
		return nil
	}
}

func expandTimes(times []time.Time, now time.Time) []time.Time {
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(now) {
			out = append(out, t)
		}
	}
	sortInstants(out)
	return out
}

func expandHourly(minute int, now time.Time) []time.Time {
	base := now.Truncate(time.Hour)
	out := make([]time.Time, 0, HourlyWindowHours)
	for i := 0; i < HourlyWindowHours; i++ {
		t := base.Add(time.Duration(i) * time.Hour).Add(time.Duration(minute) * time.Minute)
		if minute == 0 {
			// Keep the current hour's instant even when it is in the
			// past; hourly spawns stay visible as active after firing.
			out = append(out, t)
			continue
		}
		if t.After(now) {
			out = append(out, t)
		}
	}
	return out
}

func expandInterval(everyHours int, now time.Time) []time.Time {
	if everyHours <= 0 {
		return nil
	}
	steps := HourlyWindowHours / everyHours
	if HourlyWindowHours%everyHours != 0 {
		steps++
	}
	base := now.Truncate(time.Hour)
	out := make([]time.Time, 0, steps+1)
	for k := 0; k <= steps; k++ {
		out = append(out, base.Add(time.Duration(k*everyHours)*time.Hour))
	}
	return out
}

func expandDaily(daily []string, now time.Time) []time.Time {
	var out []time.Time
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	for _, spec := range daily {
		hour, minute, ok := parseTimeOfDay(spec)
		if !ok {
			log.Printf("recur: skipping malformed time of day %q", spec)
			continue
		}
		displayHour := (hour + AuthoringOffsetHours) % 24
		for i := 0; i < DailyWindowDays; i++ {
			t := midnight.AddDate(0, 0, i).
				Add(time.Duration(displayHour)*time.Hour + time.Duration(minute)*time.Minute)
			if t.After(now) {
				out = append(out, t)
			}
		}
	}
	sortInstants(out)
	return out
}

func expandRRule(raw string, now time.Time) []time.Time {
	if raw == "" {
		return nil
	}
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		log.Printf("recur: failed to parse RRULE %q: %v", raw, err)
		return nil
	}
	// Anchor unanchored rules at the current minute so the expansion
	// window starts at now rather than the library default.
	if !strings.Contains(raw, "DTSTART") {
		r.DTStart(now.Truncate(time.Minute))
	}

	end := now.Add(HourlyWindowHours * time.Hour)
	candidates := r.Between(now, end, true)

	out := make([]time.Time, 0, len(candidates))
	for _, t := range candidates {
		if t.After(now) {
			out = append(out, t)
		}
	}
	sortInstants(out)
	return out
}

// parseTimeOfDay parses "HH:MM" (or "HH") into hour and minute.
func parseTimeOfDay(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(parts[1])
		if err != nil || m < 0 || m > 59 {
			return 0, 0, false
		}
	}
	return h, m, true
}

func sortInstants(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
