// Package schedule computes the valid pickup/delivery time slots for a day.
package schedule

import (
	"fmt"
	"time"
)

// closingBuffer keeps the last stretch before close free of scheduled
// orders: the kitchen never accepts an order due within it.
const closingBuffer = 30 * time.Minute

// overnightCutoff: a close time earlier than this hour is treated as an
// overnight close belonging to the next calendar day once it has passed.
const overnightCutoff = 6

// DayHours is one weekday's opening entry.
type DayHours struct {
	Open bool
	// Close is the closing time formatted HH:MM.
	Close string
}

// Week is the store's weekly schedule, indexed by time.Weekday.
type Week [7]DayHours

// Slots returns the ascending list of HH:MM slots available from now,
// given the minimum lead time and slot interval in minutes. The result is
// recomputed on every call; it depends on wall-clock time and must never
// be cached. An empty slice means no scheduling is possible today.
func Slots(now time.Time, week Week, leadMinutes, intervalMinutes int) []string {
	if intervalMinutes <= 0 {
		return nil
	}
	day := week[now.Weekday()]
	if !day.Open {
		return nil
	}

	closeAt, err := closeInstant(now, day.Close)
	if err != nil {
		return nil
	}

	first := roundUp(now.Add(time.Duration(leadMinutes)*time.Minute), intervalMinutes)
	last := closeAt.Add(-closingBuffer)
	if first.After(last) {
		return nil
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	var slots []string
	for t := first; !t.After(last); t = t.Add(interval) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots
}

// closeInstant resolves the HH:MM close time against today's date,
// rolling an already-passed overnight close to the next calendar day.
func closeInstant(now time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("parse close time %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("close time %q out of range", hhmm)
	}

	closeAt := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if h < overnightCutoff && closeAt.Before(now) {
		closeAt = closeAt.AddDate(0, 0, 1)
	}
	return closeAt, nil
}

// roundUp zeroes seconds and rounds the minute up to the next multiple of
// interval.
func roundUp(t time.Time, intervalMinutes int) time.Time {
	rounded := t.Truncate(time.Minute)
	if rounded.Before(t) {
		rounded = rounded.Add(time.Minute)
	}
	minutes := rounded.Hour()*60 + rounded.Minute()
	if rem := minutes % intervalMinutes; rem != 0 {
		rounded = rounded.Add(time.Duration(intervalMinutes-rem) * time.Minute)
	}
	return rounded
}
