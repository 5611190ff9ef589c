package timeutils

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestClockTimeAbsolutePeriod(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Errorf("Failed to load London time: %v", err)
	}
	london2, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Errorf("Failed to load London time: %v", err)
	}

	daylight := ClockTimePeriod{
		Start: ClockTime{Hour: 6, Minute: 0, Second: 0, Location: london},
		End:   ClockTime{Hour: 21, Minute: 0, Second: 0, Location: london},
	}

	daylightTwoLocationInstances := ClockTimePeriod{
		Start: ClockTime{Hour: 6, Minute: 0, Second: 0, Location: london},
		End:   ClockTime{Hour: 21, Minute: 0, Second: 0, Location: london2},
	}

	midnightTo3Am := ClockTimePeriod{
		Start: ClockTime{Hour: 0, Minute: 0, Second: 0, Location: london},
		End:   ClockTime{Hour: 3, Minute: 0, Second: 0, Location: london},
	}

	// An 'absolute' version of the daylight 'clock time period' that occurs on the 22nd of August 2023
	daylightAbsolute := Period{
		Start: time.Date(2023, 8, 22, 6, 0, 0, 0, london),
		End:   time.Date(2023, 8, 22, 21, 0, 0, 0, london),
	}

	// An 'absolute' version of the midnightTo3Am 'clock time period' that occurs on the 14th of April 2023
	midnightTo3AmAbsolute := Period{
		Start: time.Date(2023, 4, 14, 0, 0, 0, 0, london),
		End:   time.Date(2023, 4, 14, 3, 0, 0, 0, london),
	}

	type subTest struct {
		name           string
		ctPeriod       ClockTimePeriod
		t              time.Time
		expectedPeriod Period
		expectedOK     bool
	}

	subTests := []subTest{
		{"OutsideBefore", daylight, time.Date(2023, 8, 22, 0, 0, 0, 0, london), Period{}, false},
		{"OutsideAfter", daylight, time.Date(2023, 8, 22, 22, 0, 0, 0, london), Period{}, false},
		{"ContainsOnStartBoundary", daylight, time.Date(2023, 8, 22, 6, 0, 0, 0, london), daylightAbsolute, true},
		{"ContainsOnEndBoundary", daylight, time.Date(2023, 8, 22, 21, 0, 0, 0, london), Period{}, false},
		{"ContainsInside", daylight, time.Date(2023, 8, 22, 13, 40, 0, 0, london), daylightAbsolute, true},

		{"ContainsInside, two location instances", daylightTwoLocationInstances, time.Date(2023, 8, 22, 9, 40, 0, 0, london), daylightAbsolute, true},

		{"UTC time input, BST period, before midnight, outside period", midnightTo3Am, time.Date(2023, 04, 13, 22, 59, 0, 0, time.UTC), Period{}, false},
		{"UTC time input, BST period, near midnight, inside period", midnightTo3Am, time.Date(2023, 04, 13, 23, 0, 0, 0, time.UTC), midnightTo3AmAbsolute, true},
		{"UTC time input, BST period, on midnight, inside period", midnightTo3Am, time.Date(2023, 04, 14, 0, 0, 0, 0, time.UTC), midnightTo3AmAbsolute, true},
		{"UTC time input, BST period, after midnight, inside period", midnightTo3Am, time.Date(2023, 04, 14, 1, 30, 0, 0, time.UTC), midnightTo3AmAbsolute, true},
		{"UTC time input, BST period, after midnight, outside period", midnightTo3Am, time.Date(2023, 04, 14, 2, 0, 0, 0, time.UTC), Period{}, false},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			period, ok := subTest.ctPeriod.AbsolutePeriod(subTest.t)
			if ok != subTest.expectedOK {
				t.Errorf("OK boolean got %t, expected %t", ok, subTest.expectedOK)
			}
			if ok && !period.Equal(subTest.expectedPeriod) {
				t.Errorf("Period got %v, expected %v", period, subTest.expectedPeriod)
			}
		})
	}

}

func TestClockTimePeriodUnmarshalYAML(t *testing.T) {

	type subTest struct {
		name          string
		yaml          string
		expectedErr   bool
		expectedStart ClockTime
		expectedEnd   ClockTime
		expectedLoc   string
	}

	subTests := []subTest{
		{
			name:          "HoursAndMinutes",
			yaml:          "start: \"06:30\"\nend: \"21:00\"\nlocation: Europe/Berlin\n",
			expectedStart: ClockTime{Hour: 6, Minute: 30},
			expectedEnd:   ClockTime{Hour: 21},
			expectedLoc:   "Europe/Berlin",
		},
		{
			name:          "WithSecondsDefaultUTC",
			yaml:          "start: \"05:00:15\"\nend: \"20:59:59\"\n",
			expectedStart: ClockTime{Hour: 5, Second: 15},
			expectedEnd:   ClockTime{Hour: 20, Minute: 59, Second: 59},
			expectedLoc:   "UTC",
		},
		{
			name:        "CrossesMidnight",
			yaml:        "start: \"22:00\"\nend: \"02:00\"\n",
			expectedErr: true,
		},
		{
			name:        "BadFormat",
			yaml:        "start: \"six\"\nend: \"20:00\"\n",
			expectedErr: true,
		},
		{
			name:        "UnknownLocation",
			yaml:        "start: \"06:00\"\nend: \"20:00\"\nlocation: Nowhere/Special\n",
			expectedErr: true,
		},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			var period ClockTimePeriod
			err := yaml.Unmarshal([]byte(subTest.yaml), &period)
			if subTest.expectedErr {
				if err == nil {
					t.Errorf("Expected an error, got period %+v", period)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if period.Start.Hour != subTest.expectedStart.Hour || period.Start.Minute != subTest.expectedStart.Minute || period.Start.Second != subTest.expectedStart.Second {
				t.Errorf("Start got %+v, expected %+v", period.Start, subTest.expectedStart)
			}
			if period.End.Hour != subTest.expectedEnd.Hour || period.End.Minute != subTest.expectedEnd.Minute || period.End.Second != subTest.expectedEnd.Second {
				t.Errorf("End got %+v, expected %+v", period.End, subTest.expectedEnd)
			}
			if period.Start.Location.String() != subTest.expectedLoc {
				t.Errorf("Location got %s, expected %s", period.Start.Location, subTest.expectedLoc)
			}
		})
	}
}
