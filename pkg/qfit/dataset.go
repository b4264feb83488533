package qfit

import "fmt"

// Column holds one decoded field across all read records. Exactly one
// of Floats and Ints is populated, matching Kind.
type Column struct {
	Name   string
	Kind   FieldKind
	Floats []float64
	Ints   []int32
}

// Dataset is the columnar result of decoding QFIT records.
type Dataset struct {
	columns []*Column
	byName  map[string]*Column
	n       int
}

func newDataset(n int) *Dataset {
	return &Dataset{byName: map[string]*Column{}, n: n}
}

func (ds *Dataset) addColumn(c *Column) {
	ds.columns = append(ds.columns, c)
	ds.byName[c.Name] = c
}

// NumRecords returns the number of records in the dataset.
func (ds *Dataset) NumRecords() int { return ds.n }

// Columns returns the columns in record order, derived columns last.
func (ds *Dataset) Columns() []*Column { return ds.columns }

// Column returns the column with the given field name.
func (ds *Dataset) Column(name string) (*Column, error) {
	c, ok := ds.byName[name]
	if !ok {
		return nil, fmt.Errorf("qfit: no column %q in dataset", name)
	}
	return c, nil
}

// Floats returns the values of a float column.
func (ds *Dataset) Floats(name string) ([]float64, error) {
	c, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindFloat {
		return nil, fmt.Errorf("qfit: column %q holds %s values", name, c.Kind)
	}
	return c.Floats, nil
}

// Ints returns the values of an integer column.
func (ds *Dataset) Ints(name string) ([]int32, error) {
	c, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindInt {
		return nil, fmt.Errorf("qfit: column %q holds %s values", name, c.Kind)
	}
	return c.Ints, nil
}
