package qfit

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// writeGranule writes a small synthetic granule into dir and returns its path.
func writeGranule(t *testing.T, dir, name string) string {
	t.Helper()
	records := [][]int32{
		{1000, 67123456, -45987654, 1234567, 900, 450, 180000, -1500, 2500, 163556100},
		{2000, 67123500, -45987700, 1234600, 910, 460, 180100, -1400, 2600, 163557100},
	}
	stream := buildStream(t, binary.BigEndian, 10, []string{"ATM QFIT file\n"}, records)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, stream, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFile(t *testing.T) {
	assert := assert.New(t)

	f, err := NewFile("/data/atm/ILATM1B_20110315_163556.ATM4BT4.qi")
	assert.NoError(err)
	assert.Equal(MissionILATM1B, f.Granule.Mission)
	assert.Equal(2011, f.Granule.Year)
	assert.Equal(3, f.Granule.Month)
	assert.Equal(15, f.Granule.Day)

	_, err = NewFile("notes.txt")
	assert.ErrorIs(err, ErrFormat)
}

func TestFileRead(t *testing.T) {
	assert := assert.New(t)
	path := writeGranule(t, t.TempDir(), "ILATM1B_20110315_163556.ATM4BT4.qi")

	f, err := NewFile(path)
	assert.NoError(err)

	ds, err := f.Read()
	assert.NoError(err)
	assert.Equal(2, ds.NumRecords())
	assert.Len(ds.Columns(), 11, "derived time column included")

	_, err = ds.Floats(FieldTimeJ2000)
	assert.NoError(err)

	// Envelope fields are valid after the read.
	assert.Equal(10, f.Words)
	assert.Equal(binary.BigEndian, f.ByteOrder)
	assert.EqualValues(80, f.HeaderLen)
	assert.Equal("ATM QFIT file", f.Header)
	assert.Equal(2, f.NumRecords)
}

func TestFileReadSubset(t *testing.T) {
	assert := assert.New(t)
	path := writeGranule(t, t.TempDir(), "ILATM1B_20110315_163556.ATM4BT4.qi")

	f, err := NewFile(path)
	assert.NoError(err)

	ds, err := f.ReadSubset([]int{1})
	assert.NoError(err)
	assert.Equal(1, ds.NumRecords())
	relTime, err := ds.Floats(FieldRelTime)
	assert.NoError(err)
	assert.InDelta(2.0, relTime[0], 1e-9)
}

func TestFileReadHeader(t *testing.T) {
	assert := assert.New(t)
	path := writeGranule(t, t.TempDir(), "ILATM1B_20110315_163556.ATM4BT4.qi")

	f, err := NewFile(path)
	assert.NoError(err)

	header, err := f.ReadHeader()
	assert.NoError(err)
	assert.Equal("ATM QFIT file", header)
}

func TestFileShape(t *testing.T) {
	assert := assert.New(t)
	path := writeGranule(t, t.TempDir(), "ILATM1B_20110315_163556.ATM4BT4.qi")

	f, err := NewFile(path)
	assert.NoError(err)

	records, words, err := f.Shape()
	assert.NoError(err)
	assert.Equal(2, records)
	assert.Equal(10, words)
}

func TestFileReadGarbage(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ILATM1B_20110315_163556.ATM4BT4.qi")
	err := os.WriteFile(path, []byte{0, 0, 0, 64, 1, 2, 3}, 0644)
	assert.NoError(err)

	f, err := NewFile(path)
	assert.NoError(err)
	_, err = f.Read()
	assert.ErrorIs(err, ErrFormat, "64 byte records do not exist")
}

func TestIsCompressed(t *testing.T) {
	assert := assert.New(t)
	assert.True(IsCompressed("ILATM1B_20110315_163556.ATM4BT4.qi.gz"))
	assert.True(IsCompressed("ILATM1B_20110315_163556.ATM4BT4.qi.GZ"))
	assert.False(IsCompressed("ILATM1B_20110315_163556.ATM4BT4.qi"))
}

func TestFileCompressDecompress(t *testing.T) {
	assert := assert.New(t)
	path := writeGranule(t, t.TempDir(), "ILATM1B_20110315_163556.ATM4BT4.qi")

	f, err := NewFile(path)
	assert.NoError(err)

	err = f.Compress()
	assert.NoError(err)
	assert.Equal(path+".gz", f.Path)
	_, err = os.Stat(path + ".gz")
	assert.NoError(err)
	_, err = os.Stat(path)
	assert.True(os.IsNotExist(err), "source removed after compression")

	// Compressing again is a no-op.
	err = f.Compress()
	assert.NoError(err)
	assert.Equal(path+".gz", f.Path)

	err = f.Decompress()
	assert.NoError(err)
	assert.Equal(path, f.Path)
	_, err = os.Stat(path + ".gz")
	assert.True(os.IsNotExist(err), "archive removed after decompression")

	ds, err := f.Read()
	assert.NoError(err)
	assert.Equal(2, ds.NumRecords())
}
