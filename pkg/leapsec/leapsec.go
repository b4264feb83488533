// Package leapsec reads leap second tables in the leap-seconds.list
// format and counts the leap seconds elapsed at instants on the GPS time
// scale. The list is published at
// https://www.ietf.org/timezones/data/leap-seconds.list.
package leapsec

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cryotools/qfitgo/pkg/gpstime"
)

const (
	// taiGPS is the constant offset between the TAI and GPS time scales.
	taiGPS = 19.0

	// eventShift moves each published instant back one second, so that
	// the inserted second itself already counts towards the event.
	eventShift = 1.0
)

// Entry is one row of the list: the NTP timestamp at which a new
// cumulative offset takes effect and that offset.
type Entry struct {
	NTP    float64 // seconds since 1900-01-01
	TAIUTC float64 // cumulative TAI-UTC offset in seconds
}

// Table is a parsed leap second list.
type Table struct {
	entries []Entry
	expiry  time.Time
	gps     []float64 // event instants as GPS seconds, pre-GPS events dropped
}

// Decode parses a leap-seconds.list stream. Data lines carry the NTP
// timestamp of the event and the cumulative TAI-UTC offset valid from
// it; the line tagged #@ carries the expiry of the list.
func Decode(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#@") {
			fields := strings.Fields(line[2:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("leapsec: line %d: expiry tag without value", lineNum)
			}
			secs, err := strconv.ParseFloat(fields[len(fields)-1], 64)
			if err != nil {
				return nil, fmt.Errorf("leapsec: line %d: parse expiry: %v", lineNum, err)
			}
			t.expiry = gpstime.NTPEpoch.Add(time.Duration(secs) * time.Second)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("leapsec: line %d: want NTP seconds and offset, got %q", lineNum, line)
		}
		ntp, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("leapsec: line %d: parse seconds: %v", lineNum, err)
		}
		off, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("leapsec: line %d: parse offset: %v", lineNum, err)
		}
		t.entries = append(t.entries, Entry{NTP: ntp, TAIUTC: off})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.entries) == 0 {
		return nil, fmt.Errorf("leapsec: no entries found")
	}

	// Events on the GPS axis. Events before the GPS epoch have no
	// representation there and are dropped.
	for _, e := range t.entries {
		gps := gpstime.ConvertDeltaTime(e.NTP+e.TAIUTC-taiGPS-eventShift, gpstime.NTPEpoch, gpstime.GPSEpoch, 1.0)
		if gps < 0 {
			continue
		}
		t.gps = append(t.gps, gps)
	}

	return t, nil
}

// Entries returns the parsed rows in file order.
func (t *Table) Entries() []Entry { return t.entries }

// Expiry returns the instant the list stops being authoritative. It is
// the zero time if the list carried no #@ tag.
func (t *Table) Expiry() time.Time { return t.expiry }

// Expired reports whether the list is stale at the given instant. A
// stale list stays usable, later leap seconds are just unknown to it.
func (t *Table) Expired(at time.Time) bool {
	return !t.expiry.IsZero() && at.After(t.expiry)
}

// GPSTimes returns the event instants as seconds on the GPS time scale,
// ascending. Events from before the GPS epoch are dropped.
func (t *Table) GPSTimes() []float64 {
	out := make([]float64, len(t.gps))
	copy(out, t.gps)
	return out
}

// Count returns the number of leap seconds elapsed at an instant given
// as seconds on the GPS time scale. The count is right-continuous: an
// instant exactly at an event already includes it.
func (t *Table) Count(gpsSeconds float64) int {
	n := 0
	for _, ev := range t.gps {
		if gpsSeconds >= ev {
			n++
		}
	}
	return n
}

// Elapsed returns the leap seconds elapsed at every clock reading of one
// calendar date. The clock slices must have equal length.
func (t *Table) Elapsed(year, month, day float64, hour, minute, second []float64) []float64 {
	gps := gpstime.CalendarToDeltaTimes(year, month, day, hour, minute, second, gpstime.GPSEpoch, 1.0)
	out := make([]float64, len(gps))
	for i, g := range gps {
		out[i] = float64(t.Count(g))
	}
	return out
}

//go:embed leap-seconds.list
var embeddedList []byte

// defaultTable is the lazily parsed process-wide list.
var defaultTable *Table

// Default returns the process-wide table, parsing the embedded list on
// first use.
func Default() (*Table, error) {
	if defaultTable != nil {
		return defaultTable, nil
	}

	t, err := Decode(bytes.NewReader(embeddedList))
	if err != nil {
		return nil, fmt.Errorf("leapsec: embedded list: %v", err)
	}
	if t.Expired(time.Now()) {
		// TODO: fetch a current list from the IETF mirror once the
		// embedded snapshot has expired.
		log.Printf("leapsec: WARN: leap second list expired %s", t.Expiry().Format("2006-01-02"))
	}
	defaultTable = t
	return defaultTable, nil
}

// SetDefault installs tbl as the process-wide table.
func SetDefault(tbl *Table) { defaultTable = tbl }

// Reset drops the process-wide table so the next Default call reloads
// the embedded list.
func Reset() { defaultTable = nil }
