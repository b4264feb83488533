package leapsec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// A shortened list: one pre-GPS entry and two countable events.
const sampleList = `# sample list
#$	3944678400
#@	4007404800
2272060800	10	# 1 Jan 1972
2571782400	20	# 1 Jul 1981
2603318400	21	# 1 Jul 1982
`

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	tbl, err := Decode(strings.NewReader(sampleList))
	assert.NoError(err)
	assert.NotNil(tbl)

	entries := tbl.Entries()
	assert.Len(entries, 3)
	assert.Equal(Entry{NTP: 2272060800, TAIUTC: 10}, entries[0])
	assert.Equal(Entry{NTP: 2603318400, TAIUTC: 21}, entries[2])

	assert.Equal(time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC), tbl.Expiry(), "expiry from the #@ tag")
}

func TestDecode_errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "comments only", in: "# nothing\n#@	4007404800\n"},
		{name: "bad seconds", in: "garbage here\n"},
		{name: "bad offset", in: "2571782400	x\n"},
		{name: "missing offset", in: "2571782400\n"},
		{name: "bad expiry", in: "#@ soon\n2571782400	20\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestTable_GPSTimes(t *testing.T) {
	assert := assert.New(t)

	tbl, err := Decode(strings.NewReader(sampleList))
	assert.NoError(err)

	gps := tbl.GPSTimes()
	assert.Len(gps, 2, "the 1972 entry predates the GPS epoch")
	assert.InDelta(46828800.0, gps[0], 1e-6)
	assert.InDelta(78364801.0, gps[1], 1e-6)
}

func TestTable_Count(t *testing.T) {
	tbl, err := Decode(strings.NewReader(sampleList))
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		gpsSeconds float64
		want       int
	}{
		"gps epoch":          {0, 0},
		"before first event": {46828799.9, 0},
		"at first event":     {46828800.0, 1},
		"between events":     {60000000.0, 1},
		"at second event":    {78364801.0, 2},
		"after last event":   {2e9, 2},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tbl.Count(tt.gpsSeconds))
		})
	}
}

func TestTable_Elapsed(t *testing.T) {
	assert := assert.New(t)

	tbl, err := Default()
	assert.NoError(err)

	got := tbl.Elapsed(2011, 3, 15, []float64{0, 12}, []float64{0, 30}, []float64{0, 1.5})
	assert.Equal([]float64{15, 15}, got)

	assert.Equal([]float64{0}, tbl.Elapsed(1980, 2, 1, []float64{0}, []float64{0}, []float64{0}))
	assert.Equal([]float64{18}, tbl.Elapsed(2017, 6, 1, []float64{0}, []float64{0}, []float64{0}))
}

func TestTable_Expired(t *testing.T) {
	assert := assert.New(t)

	tbl, err := Decode(strings.NewReader(sampleList))
	assert.NoError(err)

	assert.False(tbl.Expired(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(tbl.Expired(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	// A list without the #@ tag never goes stale.
	tbl2, err := Decode(strings.NewReader("2571782400	20\n"))
	assert.NoError(err)
	assert.False(tbl2.Expired(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDefault(t *testing.T) {
	defer Reset()
	assert := assert.New(t)

	tbl, err := Default()
	assert.NoError(err)
	assert.Len(tbl.Entries(), 28, "embedded snapshot")
	assert.Len(tbl.GPSTimes(), 18, "events on the GPS axis")

	again, err := Default()
	assert.NoError(err)
	assert.Same(tbl, again, "cached between calls")

	custom, err := Decode(strings.NewReader(sampleList))
	assert.NoError(err)
	SetDefault(custom)
	injected, err := Default()
	assert.NoError(err)
	assert.Same(custom, injected)

	Reset()
	reloaded, err := Default()
	assert.NoError(err)
	assert.NotSame(custom, reloaded)
	assert.Len(reloaded.Entries(), 28)
}
