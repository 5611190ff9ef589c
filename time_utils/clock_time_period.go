package timeutils

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ClockTimePeriod represents a period of time that is defined by local clock time, without any date information,  e.g. "4pm to 6pm".
type ClockTimePeriod struct {
	Start ClockTime
	End   ClockTime
}

// AbsolutePeriod returns the equivilent `Period` instance for the given `ClockTimePeriod`, using `t` as the
// reference time that must be within the `ClockTimePeriod`.
// If `t` is outside of the `ClockTimePeriod` then the `ok` boolean is returned as false.
//
// This function is inclusive of the Period.Start, but exclusive of the Period.End.
//
// For example, calling on a ClockTimePeriod of "6am to 9pm" using a reference `t` of "2023/10/19 16:53:00" would
// yield the period: "2023/10/19 06:00:00 to 2023/10/19 21:00:00".
//
// Another example, calling on a ClockTimePeriod of "6am to 9pm" using a reference `t` of "2023/10/19 22:00:00" would
// result in false being returned as the given time is outside of the ClockTimePeriod.
func (p *ClockTimePeriod) AbsolutePeriod(t time.Time) (Period, bool) {

	if p.Start.Location.String() != p.End.Location.String() {
		panic("Clock time period must start and end in the same timezone")
	}

	if p.End.secondOfDay() < p.Start.secondOfDay() {
		// We do not currently support periods that cross midnight
		panic("Clock time period must end after it starts")
	}

	// Make sure that `t` is in the relevant timezone for the ClockTimePeriod configuration, otherwise the day can be wrong
	// if it is near midnight and there is a timezone offset
	t = t.In(p.Start.Location)
	year, month, day := t.Date()

	startDateTime := p.Start.OnDate(year, month, day)
	endDateTime := p.End.OnDate(year, month, day)

	isContained := (startDateTime.Before(t) && endDateTime.After(t)) || t.Equal(startDateTime)

	if !isContained {
		return Period{}, false
	}

	return Period{Start: startDateTime, End: endDateTime}, true
}

// Contains returns true if the given t is contained in the ClockTimePeriod
func (p *ClockTimePeriod) Contains(t time.Time) bool {
	_, contains := p.AbsolutePeriod(t)
	return contains
}

// UnmarshalYAML decodes a period of the form:
//
//	start: "06:00"
//	end: "21:30"
//	location: Europe/London
//
// The location is optional and defaults to UTC.
func (p *ClockTimePeriod) UnmarshalYAML(value *yaml.Node) error {

	var raw struct {
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Location string `yaml:"location"`
	}
	err := value.Decode(&raw)
	if err != nil {
		return fmt.Errorf("decode clock time period: %w", err)
	}

	location := time.UTC
	if raw.Location != "" {
		location, err = time.LoadLocation(raw.Location)
		if err != nil {
			return fmt.Errorf("load location: %w", err)
		}
	}

	start, err := parseClockTime(raw.Start, location)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseClockTime(raw.End, location)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if end.secondOfDay() < start.secondOfDay() {
		return fmt.Errorf("clock time period %s to %s crosses midnight", raw.Start, raw.End)
	}

	p.Start = start
	p.End = end

	return nil
}
