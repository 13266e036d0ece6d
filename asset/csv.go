package asset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted in the first column of data files.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// table is a parsed CSV file: a date column plus named numeric columns.
type table struct {
	dates []time.Time
	cols  map[string][]float64
}

func (t table) column(names ...string) []float64 {
	for _, n := range names {
		if c, ok := t.cols[n]; ok {
			return c
		}
	}
	return nil
}

// readTable reads rows of:
//
//	date,<col>,<col>...
//
// The header row is required and column names are matched case-insensitively.
// Empty cells and "nan" are read as NaN.
func readTable(r io.Reader) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return table{}, fmt.Errorf("header needs a date column and at least one value column: %v", header)
	}
	first := strings.ToLower(strings.TrimSpace(header[0]))
	if first != "date" && first != "time" {
		return table{}, fmt.Errorf("first column must be date or time, got %q", header[0])
	}

	names := make([]string, len(header))
	t := table{cols: make(map[string][]float64, len(header)-1)}
	for i, h := range header[1:] {
		names[i+1] = strings.ToLower(strings.TrimSpace(h))
		t.cols[names[i+1]] = nil
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table{}, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) != len(header) {
			return table{}, fmt.Errorf("line %d: got %d fields, want %d", line, len(row), len(header))
		}

		d, err := parseDate(row[0])
		if err != nil {
			return table{}, fmt.Errorf("line %d: %w", line, err)
		}
		t.dates = append(t.dates, d)

		for i := 1; i < len(row); i++ {
			v, err := parseValue(row[i])
			if err != nil {
				return table{}, fmt.Errorf("line %d column %s: %w", line, names[i], err)
			}
			t.cols[names[i]] = append(t.cols[names[i]], v)
		}
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", s, err)
	}
	return v, nil
}

func readTableFile(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadQuotes parses a quotes CSV with columns date, close (or c), exec and
// optionally open/o, high/h, low/l, volume/v.
func ReadQuotes(r io.Reader) (Quotes, error) {
	t, err := readTable(r)
	if err != nil {
		return Quotes{}, err
	}
	return quotesFromTable(t)
}

// LoadQuotes reads a quotes CSV file, see ReadQuotes.
func LoadQuotes(path string) (Quotes, error) {
	t, err := readTableFile(path)
	if err != nil {
		return Quotes{}, err
	}
	q, err := quotesFromTable(t)
	if err != nil {
		return Quotes{}, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

func quotesFromTable(t table) (Quotes, error) {
	q := Quotes{
		Dates:  t.dates,
		Open:   t.column("open", "o"),
		High:   t.column("high", "h"),
		Low:    t.column("low", "l"),
		Close:  t.column("close", "c"),
		Volume: t.column("volume", "v"),
		Exec:   t.column("exec"),
	}
	if _, ok := t.cols["close"]; !ok {
		if _, ok := t.cols["c"]; !ok {
			return Quotes{}, fmt.Errorf("quotes need a close column")
		}
	}
	if _, ok := t.cols["exec"]; !ok {
		return Quotes{}, fmt.Errorf("quotes need an exec column")
	}
	return q, nil
}

// LoadSeries reads one named column of a CSV file as a Series.
func LoadSeries(path, column string) (Series, error) {
	t, err := readTableFile(path)
	if err != nil {
		return Series{}, err
	}
	column = strings.ToLower(column)
	vals, ok := t.cols[column]
	if !ok {
		return Series{}, fmt.Errorf("%s: no %q column", path, column)
	}
	if vals == nil {
		vals = []float64{}
	}
	return Series{Dates: t.dates, Values: vals}, nil
}

// LoadCostTable reads per-unit costs with columns date, close (or c), exec.
func LoadCostTable(path string) (CostTable, error) {
	t, err := readTableFile(path)
	if err != nil {
		return CostTable{}, err
	}
	ct := CostTable{Dates: t.dates, Close: t.column("close", "c"), Exec: t.column("exec")}
	if _, ok := t.cols["exec"]; !ok {
		return CostTable{}, fmt.Errorf("%s: costs need close and exec columns", path)
	}
	if ct.Close == nil {
		if _, ok := t.cols["close"]; !ok {
			if _, ok := t.cols["c"]; !ok {
				return CostTable{}, fmt.Errorf("%s: costs need close and exec columns", path)
			}
		}
		ct.Close = []float64{}
	}
	if ct.Exec == nil {
		ct.Exec = []float64{}
	}
	return ct, nil
}
