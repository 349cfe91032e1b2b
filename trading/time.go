// Package trading provides US equity session helpers.
package trading

import "time"

// Eastern time; falls back to a fixed offset if the tz database is missing.
var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

// TimeRange is one intraday session window.
type TimeRange struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// NYSE regular session, 9:30 to 16:00 Eastern.
var regularSession = []TimeRange{
	{9, 30, 16, 0},
}

// IsMarketOpen reports whether the US equity regular session is open now.
// Exchange holidays are not modeled.
func IsMarketOpen() bool {
	return IsMarketOpenAt(time.Now())
}

// IsMarketOpenAt reports whether the regular session is open at t.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(eastern)

	weekday := t.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}

	return isInTimeRanges(t, regularSession)
}

// NextMarketOpen returns the next instant the regular session is open,
// scanned at minute granularity.
func NextMarketOpen() time.Time {
	now := time.Now().In(eastern)
	for i := 0; i < 7*24*60; i++ {
		checkTime := now.Add(time.Duration(i) * time.Minute)
		if IsMarketOpenAt(checkTime) {
			return checkTime
		}
	}
	return now.Add(24 * time.Hour)
}

func isInTimeRanges(t time.Time, ranges []TimeRange) bool {
	currentMinutes := t.Hour()*60 + t.Minute()

	for _, r := range ranges {
		startMinutes := r.StartHour*60 + r.StartMinute
		endMinutes := r.EndHour*60 + r.EndMinute
		if currentMinutes >= startMinutes && currentMinutes <= endMinutes {
			return true
		}
	}
	return false
}
