// Package urgency computes countdowns, urgency tiers and display ordering for dated records.
//
// Every function is pure: the reference instant is always supplied by the caller and inputs are
// never mutated, so the package is safe for concurrent use.
package urgency

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	minutesPerHour   = 60
	secondsPerMinute = 60
	hoursPerDay      = 24
	minutesPerDay    = hoursPerDay * minutesPerHour

	urgentMaxDays  = 1
	warningMaxDays = 3
	weekDays       = 7
)

// Tier buckets a record by how close its deadline is.
type Tier string

const (
	TierNoDate  Tier = "no-date"
	TierExpired Tier = "expired"
	TierUrgent  Tier = "urgent"
	TierWarning Tier = "warning"
	TierSafe    Tier = "safe"
)

// Tiers lists every tier in display order.
var Tiers = []Tier{TierUrgent, TierWarning, TierSafe, TierExpired, TierNoDate}

// Badge returns the short upper-case marker shown next to a deadline.
func (t Tier) Badge() string {
	switch t {
	case TierUrgent:
		return "URGENT"
	case TierWarning:
		return "ATTENTION"
	case TierSafe:
		return "OK"
	case TierExpired:
		return "EXPIRED"
	default:
		return "NO DEADLINE"
	}
}

// Label returns the human readable tier name.
func (t Tier) Label() string {
	switch t {
	case TierUrgent:
		return "Urgent"
	case TierWarning:
		return "Attention"
	case TierSafe:
		return "Relaxed"
	case TierExpired:
		return "Expired"
	default:
		return "No deadline"
	}
}

// Remaining is the time left until a deadline. Days, Hours and Minutes are only meaningful
// when Expired is false. A nil *Remaining means the record has no deadline.
type Remaining struct {
	Expired bool `json:"expired"`
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
}

// SortKey is the hour-granularity ordering key, days*24+hours.
func (r Remaining) SortKey() int {
	return r.Days*hoursPerDay + r.Hours
}

// TotalMinutes recomposes the countdown into whole minutes.
func (r Remaining) TotalMinutes() int64 {
	return int64(r.Days)*minutesPerDay + int64(r.Hours)*minutesPerHour + int64(r.Minutes)
}

// ComputeRemaining decomposes deadline-ref into days, hours and minutes. A deadline equal to
// or before ref is expired.
func ComputeRemaining(ref time.Time, deadline *time.Time) *Remaining {
	if deadline == nil {
		return nil
	}
	if !deadline.After(ref) {
		return &Remaining{Expired: true}
	}
	total := minutesBetween(ref, *deadline)
	return &Remaining{
		Days:    int(total / minutesPerDay),
		Hours:   int(total % minutesPerDay / minutesPerHour),
		Minutes: int(total % minutesPerHour),
	}
}

// minutesBetween returns the whole minutes from ref to a later deadline. time.Duration
// saturates past roughly 292 years, so wider spans are measured in Unix seconds instead.
func minutesBetween(ref, deadline time.Time) int64 {
	if delta := deadline.Sub(ref); delta < math.MaxInt64 {
		return int64(delta / time.Minute)
	}
	seconds := deadline.Unix() - ref.Unix()
	if deadline.Nanosecond() < ref.Nanosecond() {
		seconds--
	}
	return seconds / secondsPerMinute
}

// Classify maps a countdown to its tier. Only Days participates once the deadline is live.
func Classify(r *Remaining) Tier {
	switch {
	case r == nil:
		return TierNoDate
	case r.Expired:
		return TierExpired
	case r.Days <= urgentMaxDays:
		return TierUrgent
	case r.Days <= warningMaxDays:
		return TierWarning
	default:
		return TierSafe
	}
}

// Format renders a countdown for display.
func Format(r *Remaining) string {
	switch {
	case r == nil:
		return "no deadline set"
	case r.Expired:
		return "deadline passed"
	case r.Days > 0:
		unit := "day"
		if r.Days > 1 {
			unit = "days"
		}
		return fmt.Sprintf("%d %s and %dh", r.Days, unit, r.Hours)
	case r.Hours > 0:
		return fmt.Sprintf("%dh and %dmin", r.Hours, r.Minutes)
	default:
		return fmt.Sprintf("%d minutes", r.Minutes)
	}
}

// Compare orders two countdowns for display: dated before undated, live before expired, then
// ascending by SortKey. It returns a negative number when a sorts first and zero on ties.
func Compare(a, b *Remaining) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Expired != b.Expired:
		if a.Expired {
			return 1
		}
		return -1
	}
	return a.SortKey() - b.SortKey()
}

// Annotation is the derived view of a single record.
type Annotation struct {
	Remaining *Remaining `json:"remaining,omitempty"`
	Tier      Tier       `json:"tier"`
	Display   string     `json:"display"`
}

// Annotate computes the countdown, tier and display string for one deadline.
func Annotate(ref time.Time, deadline *time.Time) Annotation {
	remaining := ComputeRemaining(ref, deadline)
	return Annotation{
		Remaining: remaining,
		Tier:      Classify(remaining),
		Display:   Format(remaining),
	}
}

// Entry pairs a caller record with its annotation.
type Entry[T any] struct {
	Record T
	Annotation
}

// Rank annotates every record against ref and returns them in display order. Records that
// compare equal keep their input order. The input slice is left untouched.
func Rank[T any](ref time.Time, records []T, deadlineOf func(T) *time.Time) []Entry[T] {
	entries := make([]Entry[T], len(records))
	for i, record := range records {
		entries[i] = Entry[T]{Record: record, Annotation: Annotate(ref, deadlineOf(record))}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i].Remaining, entries[j].Remaining) < 0
	})
	return entries
}

// Summary aggregates tier counts over a ranked set.
type Summary struct {
	Total         int          `json:"total"`
	WithDeadline  int          `json:"with_deadline"`
	DueWithinWeek int          `json:"due_within_week"`
	Urgent        int          `json:"urgent"`
	Expired       int          `json:"expired"`
	ByTier        map[Tier]int `json:"by_tier"`
}

// Summarize counts entries per tier. DueWithinWeek and Urgent only count live deadlines.
func Summarize[T any](entries []Entry[T]) Summary {
	summary := Summary{Total: len(entries), ByTier: make(map[Tier]int, len(Tiers))}
	for _, tier := range Tiers {
		summary.ByTier[tier] = 0
	}
	for _, entry := range entries {
		summary.ByTier[entry.Tier]++
		r := entry.Remaining
		if r == nil {
			continue
		}
		summary.WithDeadline++
		if r.Expired {
			summary.Expired++
			continue
		}
		if r.Days <= weekDays {
			summary.DueWithinWeek++
		}
		if r.Days <= urgentMaxDays {
			summary.Urgent++
		}
	}
	return summary
}
