// qfit2csv reads ATM QFIT granules and writes their records as CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/cryotools/qfitgo/pkg/qfit"
)

const (
	version = "0.1.0"
)

func main() {
	outPath := ""
	fs := flag.NewFlagSet("qfit2csv/"+version, flag.ExitOnError)
	fs.StringVar(&outPath, "o", "", "Write the CSV to this file. Default is stdout.")
	fs.Usage = func() {
		fmt.Println("qfit2csv - convert ATM QFIT granules to CSV")
		fmt.Println("")
		fmt.Println("USAGE: qfit2csv [OPTIONS] FILE...")
		fmt.Println("")
		fmt.Println("Gzip compressed granules are decompressed in place first.")
		fmt.Printf("\nFLAGS:\n")
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    $ qfit2csv ILATM1B_20110315_163556.ATM4BT4.qi >out.csv
    $ qfit2csv -o flight.csv ILATM1B_20110315_*.qi
        `)
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Source: %s\n", "https://github.com/cryotools/qfitgo/tree/master/cmd/qfit2csv")
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "No granule files given\n")
		fs.Usage()
		os.Exit(1)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer f.Close()
		out = f
	}
	w := csv.NewWriter(out)
	defer w.Flush()

	var header []string
	for _, path := range fs.Args() {
		f, err := qfit.NewFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		if qfit.IsCompressed(f.Path) {
			if err := f.Decompress(); err != nil {
				log.Fatalf("decompress %s: %v", path, err)
			}
		}

		ds, err := f.Read()
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}

		names := columnNames(ds)
		if header == nil {
			header = names
			if err := w.Write(header); err != nil {
				log.Fatalf("%v", err)
			}
		} else if !equalNames(header, names) {
			log.Printf("skipping %s: columns differ from the first granule", path)
			continue
		}

		if err := writeRecords(w, ds); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
	}
}

func columnNames(ds *qfit.Dataset) []string {
	names := make([]string, 0, len(ds.Columns()))
	for _, col := range ds.Columns() {
		names = append(names, col.Name)
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func writeRecords(w *csv.Writer, ds *qfit.Dataset) error {
	cols := ds.Columns()
	row := make([]string, len(cols))
	for i := 0; i < ds.NumRecords(); i++ {
		for j, col := range cols {
			if col.Kind == qfit.KindInt {
				row[j] = strconv.FormatInt(int64(col.Ints[i]), 10)
			} else {
				row[j] = strconv.FormatFloat(col.Floats[i], 'f', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
