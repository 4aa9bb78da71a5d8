package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xh3b4sd/tracer"
)

type Loader struct {
	// Hea skips the first record of the file.
	Hea bool
	// Pat is the required path of a CSV file. The label of every row is in
	// the first column, all remaining columns are numeric features.
	//
	//     $ head -n 2 iris.csv
	//     0,5.1,3.5,1.4,0.2
	//     0,4.9,3.0,1.4,0.2
	//
	Pat string
}

func (l *Loader) Load() (*Dataset, error) {
	if l.Pat == "" {
		return nil, tracer.Maskf(invalidConfigError, "%T.Pat must not be empty", l)
	}

	{
		ok, err := exists(l.Pat)
		if err != nil {
			return nil, tracer.Mask(err)
		}
		if !ok {
			return nil, tracer.Maskf(fileNotFoundError, "%s", l.Pat)
		}
	}

	var fil *os.File
	{
		var err error

		fil, err = os.Open(l.Pat)
		if err != nil {
			return nil, tracer.Mask(err)
		}
		defer fil.Close()
	}

	var d *Dataset
	{
		var err error

		d, err = Read(fil, l.Hea)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	return d, nil
}

// Read parses CSV records from r, the label being the first column of every
// record.
func Read(r io.Reader, hea bool) (*Dataset, error) {
	var rea *csv.Reader
	{
		rea = csv.NewReader(r)
		rea.TrimLeadingSpace = true
	}

	var fea [][]float64
	var lab []float64
	for n := 0; ; n++ {
		rec, err := rea.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, tracer.Mask(err)
		}

		if hea && n == 0 {
			continue
		}

		if len(rec) < 2 {
			return nil, tracer.Maskf(invalidInputError, "record %d must have a label and at least one feature", n)
		}

		row := make([]float64, len(rec))
		for j, v := range rec {
			row[j], err = strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, tracer.Maskf(invalidInputError, "record %d column %d: %s", n, j, err)
			}
		}

		lab = append(lab, row[0])
		fea = append(fea, row[1:])
	}

	d, err := New(fea, lab)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return d, nil
}
