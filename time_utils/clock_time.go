package timeutils

import (
	"fmt"
	"time"
)

// ClockTime represents a time of day in the given locale, without a date.
type ClockTime struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// OnDate returns a time with the given clock time on the given date
func (c *ClockTime) OnDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, c.Location)
}

// secondOfDay returns the number of seconds between midnight and the clock time.
func (c *ClockTime) secondOfDay() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// parseClockTime parses a "15:04" or "15:04:05" string into a ClockTime in the given location.
func parseClockTime(str string, location *time.Location) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		parsed, err := time.Parse(layout, str)
		if err == nil {
			return ClockTime{
				Hour:     parsed.Hour(),
				Minute:   parsed.Minute(),
				Second:   parsed.Second(),
				Location: location,
			}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("clock time '%s' is not in HH:MM or HH:MM:SS format", str)
}
