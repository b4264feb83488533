package qfit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cryotools/qfitgo/pkg/gpstime"
	"github.com/cryotools/qfitgo/pkg/leapsec"
)

// DetectFormat reads the leading word of a QFIT stream and derives the
// record length in words and the byte order. The first word of a granule
// holds the record length in bytes; a big endian reading above 100 means
// the file is little endian. The stream is rewound afterwards, header
// extraction consumes the leading record again.
func DetectFormat(r io.ReadSeeker) (int, binary.ByteOrder, error) {
	var word [4]byte
	if _, err := io.ReadFull(r, word[:]); err != nil {
		return 0, nil, fmt.Errorf("qfit: read record length: %v", err)
	}

	var order binary.ByteOrder = binary.BigEndian
	recBytes := int32(binary.BigEndian.Uint32(word[:]))
	if recBytes > 100 {
		order = binary.LittleEndian
		recBytes = int32(binary.LittleEndian.Uint32(word[:]))
	}

	words := int(recBytes) / 4
	if words > maxWords {
		return 0, nil, fmt.Errorf("%d words per record, at most %d known: %w", words, maxWords, ErrFormat)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, nil, err
	}
	return words, order, nil
}

// recordReader reads fixed length records and can step back one record,
// making the boundary between header filler and data explicit.
type recordReader struct {
	r   io.ReadSeeker
	buf []byte
}

func newRecordReader(r io.ReadSeeker, recLen int) *recordReader {
	return &recordReader{r: r, buf: make([]byte, recLen)}
}

// next reads one record. The returned slice is only valid until the
// following call.
func (rr *recordReader) next() ([]byte, error) {
	if _, err := io.ReadFull(rr.r, rr.buf); err != nil {
		return nil, err
	}
	return rr.buf, nil
}

// unread rewinds the stream to the start of the record read last.
func (rr *recordReader) unread() error {
	_, err := rr.r.Seek(-int64(len(rr.buf)), io.SeekCurrent)
	return err
}

// extractHeader consumes the header region: the leading record holding
// the record length, then every record tagged with a negative first
// word. The first data record is unread, leaving the stream at its
// start. Returns the header length in bytes and the cleaned header text.
func extractHeader(r io.ReadSeeker, words int, order binary.ByteOrder) (int64, string, error) {
	recLen := words * 4
	rr := newRecordReader(r, recLen)

	// The tail of the leading record is undefined, not header text.
	if _, err := rr.next(); err != nil {
		return 0, "", fmt.Errorf("qfit: read leading record: %v", err)
	}
	headerLen := int64(recLen)

	var text bytes.Buffer
	for {
		rec, err := rr.next()
		if err != nil {
			return 0, "", fmt.Errorf("stream ends inside the header region: %v: %w", err, ErrFormat)
		}
		if int32(order.Uint32(rec[:4])) >= 0 {
			if err := rr.unread(); err != nil {
				return 0, "", err
			}
			break
		}
		text.Write(rec[4:])
		headerLen += int64(recLen)
	}

	return headerLen, cleanHeaderText(text.Bytes()), nil
}

// cleanHeaderText drops the trailing filler word, the NUL padding and
// trailing whitespace from raw header text. Text shorter than one
// word is all filler.
func cleanHeaderText(b []byte) string {
	if len(b) < 4 {
		b = nil
	} else {
		b = b[:len(b)-4]
	}
	b = bytes.ReplaceAll(b, []byte{0}, nil)
	return strings.TrimRight(string(b), " \t\n\r\v\f")
}

// Decoder reads and decodes a QFIT input stream.
type Decoder struct {
	// Date is the calendar date of the granule. When set, decoding
	// derives the continuous time_J2000 column from the packed GPS
	// times of day.
	Date time.Time

	// Leaps overrides the leap second table used for the derived time
	// column. Nil means the process-wide default.
	Leaps *leapsec.Table

	r          io.ReadSeeker
	layout     Layout
	order      binary.ByteOrder
	headerLen  int64
	header     string
	numRecords int
}

// NewDecoder returns a decoder that reads from r. The format probe and
// the header are consumed implicitly; afterwards the stream is
// positioned at the first data record.
func NewDecoder(r io.ReadSeeker) (*Decoder, error) {
	words, order, err := DetectFormat(r)
	if err != nil {
		return nil, err
	}
	layout, err := LayoutForWords(words)
	if err != nil {
		return nil, err
	}
	headerLen, header, err := extractHeader(r, words, order)
	if err != nil {
		return nil, err
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(headerLen, io.SeekStart); err != nil {
		return nil, err
	}

	return &Decoder{
		r:          r,
		layout:     layout,
		order:      order,
		headerLen:  headerLen,
		header:     header,
		numRecords: int((size - headerLen) / int64(words*4)),
	}, nil
}

// Layout returns the record layout of the stream.
func (dec *Decoder) Layout() Layout { return dec.layout }

// ByteOrder returns the detected byte order.
func (dec *Decoder) ByteOrder() binary.ByteOrder { return dec.order }

// Header returns the cleaned header text.
func (dec *Decoder) Header() string { return dec.header }

// HeaderLen returns the length of the header region in bytes, the
// leading record included.
func (dec *Decoder) HeaderLen() int64 { return dec.headerLen }

// NumRecords returns the number of complete data records. A trailing
// partial record does not count.
func (dec *Decoder) NumRecords() int { return dec.numRecords }

// Decode reads every data record.
func (dec *Decoder) Decode() (*Dataset, error) {
	if _, err := dec.r.Seek(dec.headerLen, io.SeekStart); err != nil {
		return nil, err
	}
	return dec.decode(nil)
}

// DecodeSubset reads only the records at the given zero based indices,
// in the given order.
func (dec *Decoder) DecodeSubset(indices []int) (*Dataset, error) {
	if indices == nil {
		indices = []int{}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= dec.numRecords {
			return nil, fmt.Errorf("qfit: record index %d out of range, stream has %d records", idx, dec.numRecords)
		}
	}
	return dec.decode(indices)
}

func (dec *Decoder) decode(indices []int) (*Dataset, error) {
	n := dec.numRecords
	if indices != nil {
		n = len(indices)
	}

	recLen := dec.layout.Words * 4
	cols := make([]*Column, len(dec.layout.Fields))
	for i, f := range dec.layout.Fields {
		c := &Column{Name: f.Name, Kind: f.Kind}
		if f.Kind == KindInt {
			c.Ints = make([]int32, n)
		} else {
			c.Floats = make([]float64, n)
		}
		cols[i] = c
	}

	// Clock readings unpacked from the packed GPS time words.
	hour := make([]float64, n)
	minute := make([]float64, n)
	second := make([]float64, n)

	buf := make([]byte, recLen)
	for i := 0; i < n; i++ {
		if indices != nil {
			off := dec.headerLen + int64(recLen)*int64(indices[i])
			if _, err := dec.r.Seek(off, io.SeekStart); err != nil {
				return nil, err
			}
		}
		if _, err := io.ReadFull(dec.r, buf); err != nil {
			return nil, fmt.Errorf("qfit: read record %d: %v", i, err)
		}

		for w, f := range dec.layout.Fields {
			raw := int32(dec.order.Uint32(buf[4*w:]))
			if f.Kind == KindInt {
				cols[w].Ints[i] = raw
				continue
			}
			v := float64(raw) / f.Scale
			cols[w].Floats[i] = v
			if f.Name == FieldTimeHHMMSS {
				hour[i], minute[i], second[i] = UnpackTime(v)
			}
		}
	}

	ds := newDataset(n)
	for _, c := range cols {
		ds.addColumn(c)
	}

	if !dec.Date.IsZero() {
		j2000, err := dec.timeJ2000(hour, minute, second)
		if err != nil {
			return nil, err
		}
		ds.addColumn(&Column{Name: FieldTimeJ2000, Kind: KindFloat, Floats: j2000})
	}

	return ds, nil
}

// timeJ2000 derives the continuous time column: the packed GPS clock
// readings reduced by the elapsed leap seconds, as seconds since the
// J2000.0 epoch.
func (dec *Decoder) timeJ2000(hour, minute, second []float64) ([]float64, error) {
	tbl := dec.Leaps
	if tbl == nil {
		var err error
		tbl, err = leapsec.Default()
		if err != nil {
			return nil, err
		}
	}

	y := float64(dec.Date.Year())
	mo := float64(int(dec.Date.Month()))
	d := float64(dec.Date.Day())

	leaps := tbl.Elapsed(y, mo, d, hour, minute, second)
	out := make([]float64, len(hour))
	for i := range out {
		out[i] = gpstime.J2000(y, mo, d, hour[i], minute[i], second[i]-leaps[i])
	}
	return out, nil
}
