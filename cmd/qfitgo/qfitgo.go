// Command-line tool for inspecting and decoding ATM QFIT granules.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cryotools/qfitgo/pkg/gpstime"
	"github.com/cryotools/qfitgo/pkg/leapsec"
	"github.com/cryotools/qfitgo/pkg/qfit"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "qfitgo",
		Usage:   "one more ATM laser altimetry tool",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "leaps",
				Usage: "read the leap second list from `FILE` instead of the built in one",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("leaps"); path != "" {
				return loadLeaps(path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Print the envelope of granules",
				ArgsUsage: "FILE...",
				Action:    runInfo,
			},
			{
				Name:      "dump",
				Usage:     "Print decoded records, one line per record",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "fields",
						Usage: "comma separated column names, all columns when empty",
					},
					&cli.StringFlag{
						Name:  "subset",
						Usage: "comma separated record indices, all records when empty",
					},
				},
				Action: runDump,
			},
			{
				Name:   "leaps",
				Usage:  "Print the leap second table",
				Action: runLeaps,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadLeaps replaces the built in leap second list for this run.
func loadLeaps(path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	tbl, err := leapsec.Decode(r)
	if err != nil {
		return fmt.Errorf("read leap second list %s: %v", path, err)
	}
	leapsec.SetDefault(tbl)
	return nil
}

func runInfo(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("info needs at least one granule file", 1)
	}

	for i, path := range c.Args().Slice() {
		if i > 0 {
			fmt.Println()
		}
		f, err := qfit.NewFile(path)
		if err != nil {
			return err
		}
		records, words, err := f.Shape()
		if err != nil {
			return err
		}

		fmt.Printf("file      : %s\n", f.Path)
		fmt.Printf("mission   : %s\n", f.Granule.Mission)
		fmt.Printf("date      : %s\n", f.Granule.Date().Format("2006-01-02"))
		fmt.Printf("byte order: %v\n", f.ByteOrder)
		fmt.Printf("records   : %d x %d words\n", records, words)
		if f.Header != "" {
			fmt.Printf("header    : %s\n", f.Header)
		}
	}
	return nil
}

func runDump(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("dump needs one granule file", 1)
	}

	f, err := qfit.NewFile(c.Args().First())
	if err != nil {
		return err
	}
	ds, err := readRecords(f, c.String("subset"))
	if err != nil {
		return err
	}

	cols := ds.Columns()
	if names := c.String("fields"); names != "" {
		sel := make([]*qfit.Column, 0, len(cols))
		for _, name := range strings.Split(names, ",") {
			col, err := ds.Column(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			sel = append(sel, col)
		}
		cols = sel
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	fmt.Println("# " + strings.Join(names, " "))

	for i := 0; i < ds.NumRecords(); i++ {
		row := make([]string, len(cols))
		for j, col := range cols {
			if col.Kind == qfit.KindInt {
				row[j] = strconv.FormatInt(int64(col.Ints[i]), 10)
			} else {
				row[j] = strconv.FormatFloat(col.Floats[i], 'f', -1, 64)
			}
		}
		fmt.Println(strings.Join(row, " "))
	}
	return nil
}

func readRecords(f *qfit.File, subset string) (*qfit.Dataset, error) {
	if subset == "" {
		return f.Read()
	}
	indices, err := parseIndices(subset)
	if err != nil {
		return nil, err
	}
	return f.ReadSubset(indices)
}

func parseIndices(list string) ([]int, error) {
	var indices []int
	for _, field := range strings.Split(list, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("record index %q: %v", field, err)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func runLeaps(c *cli.Context) error {
	tbl, err := leapsec.Default()
	if err != nil {
		return err
	}

	if !tbl.Expiry().IsZero() {
		fmt.Printf("# expires %s\n", tbl.Expiry().Format("2006-01-02"))
	}
	if tbl.Expired(time.Now()) {
		fmt.Println("# WARN: the list has expired, later leap seconds are unknown")
	}

	// Events before the GPS epoch have no GPS axis instant.
	entries := tbl.Entries()
	gps := tbl.GPSTimes()
	preGPS := len(entries) - len(gps)
	for i, e := range entries {
		date := gpstime.NTPEpoch.Add(time.Duration(e.NTP) * time.Second)
		if i < preGPS {
			fmt.Printf("%s  TAI-UTC %2.0f\n", date.Format("2006-01-02"), e.TAIUTC)
			continue
		}
		fmt.Printf("%s  TAI-UTC %2.0f  GPS %.0f\n", date.Format("2006-01-02"), e.TAIUTC, gps[i-preGPS])
	}
	return nil
}
