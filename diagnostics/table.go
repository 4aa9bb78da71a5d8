package diagnostics

import (
	"bytes"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/stat"
)

// Row aggregates the cross validation results of one estimator in one layer.
type Row struct {
	Lay int
	Slo int
	Est string
	// Sco holds the per fold scores in fold order. Folds whose scoring failed
	// are absent.
	Sco []float64
	// ScoM and ScoS are the mean and the population standard deviation of
	// Sco. Both are zero if Sco is empty.
	ScoM float64
	ScoS float64
	// FitM and FitS aggregate the fit durations of the fold models.
	FitM time.Duration
	FitS time.Duration
	// PreM and PreS aggregate the holdout predict durations of the fold
	// models.
	PreM time.Duration
	PreS time.Duration
}

// Table is a read only view over a Log, computed from its entries on demand.
type Table struct {
	Row []Row
	// Tim enables the timing columns when rendering.
	Tim bool
	War []Warning
}

// Aggregate builds a Table from the given log. Rows are ordered by layer id
// and then by estimator registration order.
func Aggregate(l *Log, tim bool) *Table {
	var ind map[[2]int]int
	var row []Row
	{
		ind = map[[2]int]int{}
	}

	get := func(lay int, slo int, est string) *Row {
		k := [2]int{lay, slo}
		i, ok := ind[k]
		if !ok {
			i = len(row)
			ind[k] = i
			row = append(row, Row{Lay: lay, Slo: slo, Est: est})
		}

		return &row[i]
	}

	var rec []Record
	{
		rec = l.Records()
		sort.SliceStable(rec, func(i, j int) bool { return rec[i].Fol < rec[j].Fol })
	}

	for _, r := range rec {
		x := get(r.Lay, r.Slo, r.Est)
		x.Sco = append(x.Sco, r.Sco)
	}

	fit := map[[2]int][]float64{}
	pre := map[[2]int][]float64{}
	for _, t := range l.Timings() {
		get(t.Lay, t.Slo, t.Est)

		if t.Fol == Full {
			continue
		}

		k := [2]int{t.Lay, t.Slo}
		fit[k] = append(fit[k], float64(t.Fit))
		pre[k] = append(pre[k], float64(t.Pre))
	}

	for i := range row {
		k := [2]int{row[i].Lay, row[i].Slo}

		row[i].ScoM, row[i].ScoS = meanStd(row[i].Sco)

		{
			m, s := meanStd(fit[k])
			row[i].FitM, row[i].FitS = time.Duration(m), time.Duration(s)
		}

		{
			m, s := meanStd(pre[k])
			row[i].PreM, row[i].PreS = time.Duration(m), time.Duration(s)
		}
	}

	sort.SliceStable(row, func(i, j int) bool {
		if row[i].Lay != row[j].Lay {
			return row[i].Lay < row[j].Lay
		}

		return row[i].Slo < row[j].Slo
	})

	t := &Table{
		Row: row,
		Tim: tim,
		War: l.Warnings(),
	}

	return t
}

// Lookup returns the row of the given layer id and estimator name.
func (t *Table) Lookup(lay int, est string) (Row, bool) {
	for _, r := range t.Row {
		if r.Lay == lay && r.Est == est {
			return r, true
		}
	}

	return Row{}, false
}

func (t *Table) String() string {
	var buf bytes.Buffer

	err := t.Write(&buf)
	if err != nil {
		panic(err)
	}

	return buf.String()
}

// Write renders the table as aligned plain text.
func (t *Table) Write(w io.Writer) error {
	var err error

	var tem *template.Template
	{
		tem, err = template.New("table").Parse(deftem)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		err = tem.Execute(w, t.mapping())
		if err != nil {
			return tracer.Mask(err)
		}
	}

	return nil
}

func meanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}

	return stat.PopMeanStdDev(x, nil)
}
