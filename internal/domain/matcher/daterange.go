package matcher

import "time"

// Now is the clock DateRange falls back to when there is nothing to bracket
var Now = time.Now

// DateRange returns the span of order dates worth fetching for txns: the
// earliest transaction date minus windowDays through the latest plus windowDays.
// With no transactions both ends are Now().
func DateRange(txns []TransactionInfo, windowDays int) (time.Time, time.Time) {
	if len(txns) == 0 {
		now := Now()
		return now, now
	}

	earliest, latest := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(earliest) {
			earliest = t.Date
		}
		if t.Date.After(latest) {
			latest = t.Date
		}
	}

	return earliest.AddDate(0, 0, -windowDays), latest.AddDate(0, 0, windowDays)
}
