package qfit

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
)

// File contains fields and methods for QFIT granule files.
type File struct {
	Path    string  // The file path.
	Granule Granule // Parsed from the file name.

	// Envelope fields, valid after the first read.
	Words      int
	ByteOrder  binary.ByteOrder
	HeaderLen  int64
	Header     string
	NumRecords int
}

// NewFile returns a new QFIT file. The name will be parsed, nothing is read yet.
func NewFile(path string) (*File, error) {
	f := &File{Path: path}
	gran, err := ParseGranule(path)
	f.Granule = gran
	return f, err
}

func (f *File) newDecoder(r io.ReadSeeker) (*Decoder, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	dec.Date = f.Granule.Date()
	f.Words = dec.Layout().Words
	f.ByteOrder = dec.ByteOrder()
	f.HeaderLen = dec.HeaderLen()
	f.Header = dec.Header()
	f.NumRecords = dec.NumRecords()
	return dec, nil
}

// Read decodes all data records of the granule.
func (f *File) Read() (*Dataset, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	dec, err := f.newDecoder(r)
	if err != nil {
		return nil, err
	}
	return dec.Decode()
}

// ReadSubset decodes only the records at the given zero based indices.
func (f *File) ReadSubset(indices []int) (*Dataset, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	dec, err := f.newDecoder(r)
	if err != nil {
		return nil, err
	}
	return dec.DecodeSubset(indices)
}

// Parse and return the header text.
func (f *File) ReadHeader() (string, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	dec, err := f.newDecoder(r)
	if err != nil {
		return "", err
	}
	return dec.Header(), nil
}

// Shape returns the number of data records and the number of words per record.
func (f *File) Shape() (int, int, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()
	dec, err := f.newDecoder(r)
	if err != nil {
		return 0, 0, err
	}
	return dec.NumRecords(), dec.Layout().Words, nil
}

// IsCompressed returns true if the file given by filename is gzip compressed.
// This is checked by the filenames' extension.
func IsCompressed(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".gz"
}

// Compress a granule file using the gzip format.
// The source file will be removed if the compression finishes without errors.
func (f *File) Compress() error {
	if IsCompressed(f.Path) {
		return nil
	}

	err := archiver.CompressFile(f.Path, f.Path+".gz")
	if err != nil {
		return err
	}
	os.Remove(f.Path)
	f.Path = f.Path + ".gz"
	return nil
}

// Decompress a gzip compressed granule file.
// The source file will be removed if the decompression finishes without errors.
func (f *File) Decompress() error {
	if !IsCompressed(f.Path) {
		return nil
	}

	dst := strings.TrimSuffix(f.Path, filepath.Ext(f.Path))
	err := archiver.DecompressFile(f.Path, dst)
	if err != nil {
		return err
	}
	os.Remove(f.Path)
	f.Path = dst
	return nil
}
