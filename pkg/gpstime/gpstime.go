// Package gpstime provides calendar date and epoch arithmetic for GPS
// referenced instrument data, built around the Modified Julian Date.
package gpstime

import (
	"math"
	"time"
)

// Reference epochs of the supported time scales.
var (
	// NTPEpoch is the zero point of NTP timestamps.
	NTPEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

	// GPSEpoch is the zero point of the GPS time scale.
	GPSEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

	// MJDEpoch is the zero point of the Modified Julian Date.
	MJDEpoch = time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)
)

const (
	// J2000JD is the Julian Date of the J2000.0 epoch (2000-01-01T12:00:00).
	J2000JD = 2451545.0

	// mjdToJD shifts a Modified Julian Date to a full Julian Date.
	mjdToJD = 2400000.5

	secondsPerDay = 86400.0
)

// ModifiedJulianDate returns the MJD of a calendar date. Month is 1
// through 12. Hour, minute and second may be fractional, and second may
// be negative for dates already reduced by leap seconds.
func ModifiedJulianDate(year, month, day, hour, minute, second float64) float64 {
	return 367.0*year -
		math.Floor(7.0*(year+math.Floor((month+9.0)/12.0))/4.0) -
		math.Floor(3.0*(math.Floor((year+(month-9.0)/7.0)/100.0)+1.0)/4.0) +
		math.Floor(275.0*month/9.0) +
		day +
		hour/24.0 + minute/1440.0 + second/secondsPerDay +
		1721028.5 - mjdToJD
}

// CalendarToDeltaTime converts a calendar date into the time elapsed
// since epoch: seconds for scale 1.0, days for scale 1/86400.
func CalendarToDeltaTime(year, month, day, hour, minute, second float64, epoch time.Time, scale float64) float64 {
	days := ModifiedJulianDate(year, month, day, hour, minute, second) - epochMJD(epoch)
	return scale * days * secondsPerDay
}

// CalendarToDeltaTimes is the elementwise form of CalendarToDeltaTime for
// one calendar date with per-record clock readings. The three clock
// slices must have equal length.
func CalendarToDeltaTimes(year, month, day float64, hour, minute, second []float64, epoch time.Time, scale float64) []float64 {
	if len(minute) != len(hour) || len(second) != len(hour) {
		panic("gpstime: clock slices differ in length")
	}

	out := make([]float64, len(hour))
	for i := range hour {
		out[i] = CalendarToDeltaTime(year, month, day, hour[i], minute[i], second[i], epoch, scale)
	}
	return out
}

// ConvertDeltaTime re-references a seconds count from one epoch to
// another, scaled.
func ConvertDeltaTime(delta float64, from, to time.Time, scale float64) float64 {
	return scale * (delta - to.Sub(from).Seconds())
}

// JulianDay returns the Julian Date of a calendar date.
func JulianDay(year, month, day, hour, minute, second float64) float64 {
	mjd := CalendarToDeltaTime(year, month, day, hour, minute, second, MJDEpoch, 1.0/secondsPerDay)
	return mjd + mjdToJD
}

// GPSSeconds returns the seconds elapsed since the GPS epoch, without
// leap seconds.
func GPSSeconds(year, month, day, hour, minute, second float64) float64 {
	return CalendarToDeltaTime(year, month, day, hour, minute, second, GPSEpoch, 1.0)
}

// J2000 returns the continuous seconds since the J2000.0 epoch.
func J2000(year, month, day, hour, minute, second float64) float64 {
	return (JulianDay(year, month, day, hour, minute, second) - J2000JD) * secondsPerDay
}

// epochMJD is the Modified Julian Date of an epoch.
func epochMJD(epoch time.Time) float64 {
	return epoch.Sub(MJDEpoch).Seconds() / secondsPerDay
}
