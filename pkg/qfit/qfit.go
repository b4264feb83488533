// Package qfit implements decoding of Airborne Topographic Mapper (ATM)
// level 1B granules in the QFIT binary format.
// Product documentation is available at https://nsidc.org/data/ilatm1b.
package qfit

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrFormat means the input is not usable QFIT data.
var ErrFormat = errors.New("QFIT: invalid format")

// maxWords is the largest known record length in words.
const maxWords = 14

// Mission identifies the producer tag of a granule.
type Mission int

// Missions writing QFIT granules.
const (
	MissionBLATM1B Mission = iota + 1 // pre-IceBridge ATM
	MissionILATM1B                    // Operation IceBridge ATM
	MissionILNSA1B                    // Operation IceBridge narrow swath ATM
)

func (m Mission) String() string {
	return [...]string{"", "BLATM1B", "ILATM1B", "ILNSA1B"}[m]
}

// mission lookup map.
var missionMap = map[string]Mission{
	"BLATM1B": MissionBLATM1B,
	"ILATM1B": MissionILATM1B,
	"ILNSA1B": MissionILNSA1B,
}

// FieldKind tells how a raw record word is interpreted.
type FieldKind int

const (
	// KindFloat words carry a scaled measurement, raw/scale as float64.
	KindFloat FieldKind = iota + 1
	// KindInt words carry a plain counter kept as int32.
	KindInt
)

func (k FieldKind) String() string {
	return [...]string{"", "float", "int"}[k]
}

// Column names of the record layouts.
const (
	FieldRelTime           = "rel_time"             // seconds from the start of the data segment
	FieldLatitude          = "latitude"             // degrees
	FieldLongitude         = "longitude"            // degrees east
	FieldElevation         = "elevation"            // meters above the ellipsoid
	FieldXmtSigstr         = "xmt_sigstr"           // transmitted signal strength
	FieldRcvSigstr         = "rcv_sigstr"           // received signal strength
	FieldAzimuth           = "azimuth"              // scan azimuth in degrees
	FieldPitch             = "pitch"                // degrees
	FieldRoll              = "roll"                 // degrees
	FieldGPSPDOP           = "gps_pdop"             // GPS dilution of precision
	FieldPulseWidth        = "pulse_width"          // laser received pulse width
	FieldPassiveSig        = "passive_sig"          // passive signal
	FieldPassFootLat       = "pass_foot_lat"        // passive footprint latitude in degrees
	FieldPassFootLong      = "pass_foot_long"       // passive footprint longitude in degrees east
	FieldPassFootSynthElev = "pass_foot_synth_elev" // passive footprint synthesized elevation in meters
	FieldTimeHHMMSS        = "time_hhmmss"          // packed GPS time of day, hhmmss.sss
	FieldTimeJ2000         = "time_J2000"           // derived seconds since 2000-01-01T12:00:00
)

// Field describes one word of a record layout.
type Field struct {
	Name  string
	Kind  FieldKind
	Scale float64 // divisor applied to the raw word, 1 for counters
}

// Layout is a fixed QFIT record layout: Words consecutive signed 32-bit
// words per record, in file byte order.
type Layout struct {
	Words  int
	Fields []Field
}

// The three record layouts. The first nine words are common to all.
var (
	layout10 = Layout{Words: 10, Fields: []Field{
		{FieldRelTime, KindFloat, 1.0e3},
		{FieldLatitude, KindFloat, 1.0e6},
		{FieldLongitude, KindFloat, 1.0e6},
		{FieldElevation, KindFloat, 1.0e3},
		{FieldXmtSigstr, KindInt, 1},
		{FieldRcvSigstr, KindInt, 1},
		{FieldAzimuth, KindFloat, 1.0e3},
		{FieldPitch, KindFloat, 1.0e3},
		{FieldRoll, KindFloat, 1.0e3},
		{FieldTimeHHMMSS, KindFloat, 1.0e3},
	}}

	layout12 = Layout{Words: 12, Fields: []Field{
		{FieldRelTime, KindFloat, 1.0e3},
		{FieldLatitude, KindFloat, 1.0e6},
		{FieldLongitude, KindFloat, 1.0e6},
		{FieldElevation, KindFloat, 1.0e3},
		{FieldXmtSigstr, KindInt, 1},
		{FieldRcvSigstr, KindInt, 1},
		{FieldAzimuth, KindFloat, 1.0e3},
		{FieldPitch, KindFloat, 1.0e3},
		{FieldRoll, KindFloat, 1.0e3},
		{FieldGPSPDOP, KindFloat, 1.0e1},
		{FieldPulseWidth, KindInt, 1},
		{FieldTimeHHMMSS, KindFloat, 1.0e3},
	}}

	layout14 = Layout{Words: 14, Fields: []Field{
		{FieldRelTime, KindFloat, 1.0e3},
		{FieldLatitude, KindFloat, 1.0e6},
		{FieldLongitude, KindFloat, 1.0e6},
		{FieldElevation, KindFloat, 1.0e3},
		{FieldXmtSigstr, KindInt, 1},
		{FieldRcvSigstr, KindInt, 1},
		{FieldAzimuth, KindFloat, 1.0e3},
		{FieldPitch, KindFloat, 1.0e3},
		{FieldRoll, KindFloat, 1.0e3},
		{FieldPassiveSig, KindInt, 1},
		{FieldPassFootLat, KindFloat, 1.0e6},
		{FieldPassFootLong, KindFloat, 1.0e6},
		{FieldPassFootSynthElev, KindFloat, 1.0e3},
		{FieldTimeHHMMSS, KindFloat, 1.0e3},
	}}
)

// LayoutForWords returns the record layout for a word count. Only 10, 12
// and 14 word records exist.
func LayoutForWords(words int) (Layout, error) {
	switch words {
	case 10:
		return layout10, nil
	case 12:
		return layout12, nil
	case 14:
		return layout14, nil
	}
	return Layout{}, fmt.Errorf("no layout for %d word records: %w", words, ErrFormat)
}

// granulePattern is the compiled regex for ATM1B granule file names,
// e.g. ILATM1B_20110315_163556.ATM4BT4.qi or BLATM1B_950523_093612.qi.
var granulePattern = regexp.MustCompile(`^(BLATM1B|ILATM1B|ILNSA1B)_((\d{4})|(\d{2}))(\d{2})(\d{2})(.*?)\.qi$`)

// Granule is the metadata encoded in a granule file name: the producing
// mission and the calendar date of the flight.
type Granule struct {
	Mission Mission `validate:"required"`
	Year    int     `validate:"required"`
	Month   int     `validate:"min=1,max=12"`
	Day     int     `validate:"min=1,max=31"`
}

// Date returns the flight date at midnight UTC.
func (g Granule) Date() time.Time {
	return time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, time.UTC)
}

// use a single instance of Validate, it caches struct info
var validate *validator.Validate

// Validate checks the fields against the known missions and calendar
// ranges.
func (g Granule) Validate() error {
	if validate == nil {
		validate = validator.New()
	}
	return validate.Struct(g)
}

// ParseGranule extracts the metadata from a granule file name. Leading
// directories and a trailing .gz are ignored. Two digit years from 90 on
// belong to the 1900s, the rest to the 2000s.
func ParseGranule(name string) (Granule, error) {
	base := strings.TrimSuffix(path.Base(name), ".gz")
	res := granulePattern.FindStringSubmatch(base)
	if res == nil {
		return Granule{}, fmt.Errorf("unusable granule name %q: %w", name, ErrFormat)
	}

	year, err := strconv.Atoi(res[2])
	if err != nil {
		return Granule{}, fmt.Errorf("parse year: %v", err)
	}
	if len(res[2]) == 2 {
		if year >= 90 {
			year += 1900
		} else {
			year += 2000
		}
	}
	month, err := strconv.Atoi(res[5])
	if err != nil {
		return Granule{}, fmt.Errorf("parse month: %v", err)
	}
	day, err := strconv.Atoi(res[6])
	if err != nil {
		return Granule{}, fmt.Errorf("parse day: %v", err)
	}

	g := Granule{Mission: missionMap[res[1]], Year: year, Month: month, Day: day}
	if err := g.Validate(); err != nil {
		return Granule{}, fmt.Errorf("granule name %q: %v: %w", name, err, ErrFormat)
	}
	return g, nil
}

// UnpackTime splits a packed hhmmss.sss clock reading, the form the GPS
// time of day is stored in records, into its parts. Leading zeros
// matter: 15332.01 reads as 01:53:32.010.
func UnpackTime(packed float64) (hour, minute, second float64) {
	s := fmt.Sprintf("%010.3f", packed)
	hour, _ = strconv.ParseFloat(s[0:2], 64)
	minute, _ = strconv.ParseFloat(s[2:4], 64)
	second, _ = strconv.ParseFloat(s[4:], 64)
	return hour, minute, second
}
