// Package pickup converts spoken time expressions into validated future
// pickup instants bounded by business hours, and estimates ready times from
// the current queue. Estimates deliberately skip business-hours validation:
// an estimate is always produced even minutes before close, while an
// explicit pickup request at/after close is rejected.
package pickup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
)

// Resolver parses pickup expressions against the shop's timezone and hours.
type Resolver struct {
	business catalog.Business
	loc      *time.Location
}

// New builds a Resolver from the loaded catalog.
func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{business: cat.Business(), loc: cat.Location()}
}

// Resolved is a validated pickup instant with its display renderings.
type Resolved struct {
	Time     time.Time `json:"-"`
	Display  string    `json:"time"`     // "1:00 PM"
	FullTime string    `json:"fullTime"` // "Wednesday, November 5 at 1:00 PM"
	ISO      string    `json:"iso"`
}

var (
	isoPattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
	dayPattern     = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|today)(?:\s+at)?\s+(.+)$`)
	minutesPattern = regexp.MustCompile(`(?i)^(?:in\s+)?(\d+)\s*min(?:ute)?s?$`)
	hoursPattern   = regexp.MustCompile(`(?i)^(?:in\s+)?(\d+)\s*h(?:ou)?rs?$`)
	clockPattern   = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// Resolve tries the four expression families in fixed precedence order:
// machine-readable timestamp, named day with time, relative duration, bare
// clock time today. Every branch validates the resolved instant against the
// target day's closing time. Nil means "could not produce a valid pickup
// time"; ambiguous expressions (a day name with no time) are never guessed.
func (r *Resolver) Resolve(expr string, now time.Time) *Resolved {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	local := now.In(r.loc)

	if isoPattern.MatchString(expr) {
		return r.resolveTimestamp(expr)
	}
	if m := dayPattern.FindStringSubmatch(expr); m != nil {
		return r.resolveNamedDay(strings.ToLower(m[1]), m[2], local)
	}
	if m := minutesPattern.FindStringSubmatch(expr); m != nil {
		n, _ := strconv.Atoi(m[1])
		return r.validated(local.Add(time.Duration(n) * time.Minute))
	}
	if m := hoursPattern.FindStringSubmatch(expr); m != nil {
		n, _ := strconv.Atoi(m[1])
		return r.validated(local.Add(time.Duration(n) * time.Hour))
	}
	if m := clockPattern.FindStringSubmatch(expr); m != nil {
		hour, minute, ok := clockFrom(m)
		if !ok {
			return nil
		}
		t := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, r.loc)
		return r.validated(t)
	}
	return nil
}

func (r *Resolver) resolveTimestamp(expr string) *Resolved {
	t, err := time.Parse(time.RFC3339, expr)
	if err != nil {
		return nil
	}
	return r.validated(t.In(r.loc))
}

func (r *Resolver) resolveNamedDay(dayWord, timePart string, local time.Time) *Resolved {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(timePart))
	if m == nil {
		return nil
	}
	hour, minute, ok := clockFrom(m)
	if !ok {
		return nil
	}

	target := local.Weekday()
	switch dayWord {
	case "today":
	case "tomorrow":
		target = (local.Weekday() + 1) % 7
	default:
		target = weekdayFromName(dayWord)
	}

	daysAhead := (int(target) - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, r.loc).
		AddDate(0, 0, daysAhead)
	// Named day equal to today with the time already gone means next week.
	if daysAhead == 0 && !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return r.validated(candidate)
}

// validated rejects an instant at or after the target day's closing time,
// or on a day the shop is closed.
func (r *Resolver) validated(t time.Time) *Resolved {
	hours := r.business.HoursFor(t.Weekday())
	if hours.Closed || hours.Close == "" {
		return nil
	}
	if t.Format("15:04") >= hours.Close {
		return nil
	}
	return r.render(t)
}

func (r *Resolver) render(t time.Time) *Resolved {
	return &Resolved{
		Time:     t,
		Display:  t.Format("3:04 PM"),
		FullTime: t.Format("Monday, January 2 at 3:04 PM"),
		ISO:      t.Format(time.RFC3339),
	}
}

func clockFrom(m []string) (hour, minute int, ok bool) {
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func weekdayFromName(name string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d
		}
	}
	return time.Sunday
}

// Estimate is a queue-based ready-time projection.
type Estimate struct {
	Minutes   int    `json:"estimatedMinutes"`
	Display   string `json:"readyTime"`
	FullTime  string `json:"fullTime"`
	ISO       string `json:"iso"`
	QueueSize int    `json:"queueSize"`
}

// EstimateReadyTime computes now + base prep + queueSize per-item minutes.
// It does not consult business hours: the shop always gets an estimate, even
// just before close.
func (r *Resolver) EstimateReadyTime(queueSize int, now time.Time) Estimate {
	settings := r.business.Settings
	base := settings.DefaultPrepMinutes
	if base <= 0 {
		base = 20
	}
	perItem := settings.PrepMinutesPerItem
	if perItem <= 0 {
		perItem = 3
	}
	if queueSize < 0 {
		queueSize = 0
	}

	total := base + queueSize*perItem
	ready := now.In(r.loc).Add(time.Duration(total) * time.Minute)
	return Estimate{
		Minutes:   total,
		Display:   ready.Format("3:04 PM"),
		FullTime:  ready.Format("Monday, January 2 at 3:04 PM"),
		ISO:       ready.Format(time.RFC3339),
		QueueSize: queueSize,
	}
}

// IsOpen reports whether the shop is open at the given instant.
func (r *Resolver) IsOpen(now time.Time) bool {
	local := now.In(r.loc)
	hours := r.business.HoursFor(local.Weekday())
	if hours.Closed || hours.Open == "" || hours.Close == "" {
		return false
	}
	clock := local.Format("15:04")
	return clock >= hours.Open && clock < hours.Close
}

// NextOpenTime describes when the shop next opens, for the closed-shop
// greeting.
func (r *Resolver) NextOpenTime(now time.Time) string {
	local := now.In(r.loc)

	today := r.business.HoursFor(local.Weekday())
	if !today.Closed && today.Open != "" && local.Format("15:04") < today.Open {
		return fmt.Sprintf("%s today", today.Open)
	}

	for i := 1; i <= 7; i++ {
		day := (local.Weekday() + time.Weekday(i)) % 7
		hours := r.business.HoursFor(day)
		if hours.Closed || hours.Open == "" {
			continue
		}
		if i == 1 {
			return fmt.Sprintf("%s tomorrow", hours.Open)
		}
		return fmt.Sprintf("%s at %s", day.String(), hours.Open)
	}
	return "please check our hours"
}
