package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	time.DateTime,
	"2006-01-02 15:04",
	time.RFC3339,
	time.DateOnly,
}

type record struct {
	file   string
	line   int
	fields []string
	index  map[string]int
}

func loadError(file string, line int, column, msg string) *pkgerrors.Error {
	details := map[string]any{"file": file}
	if line > 0 {
		details["line"] = line
	}
	if column != "" {
		details["column"] = column
	}
	return pkgerrors.New(pkgerrors.CodeDataLoad, msg).WithDetails(details)
}

// readCSV walks every data row of body, resolving columns by header name.
func readCSV(file string, body []byte, required []string, fn func(record) error) error {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return loadError(file, 1, "", "missing header row")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDataLoad, err, "read header").WithDetails(map[string]any{"file": file, "line": 1})
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return loadError(file, 1, col, "missing required column")
		}
	}

	line := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDataLoad, err, "read row").WithDetails(map[string]any{"file": file, "line": line})
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		if err := fn(record{file: file, line: line, fields: fields, index: index}); err != nil {
			return err
		}
	}
}

func (r record) raw(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) String(col string) string {
	return r.raw(col)
}

// RequiredString fails when the cell is blank.
func (r record) RequiredString(col string) (string, error) {
	v := r.raw(col)
	if v == "" {
		return "", loadError(r.file, r.line, col, "empty value")
	}
	return v, nil
}

func (r record) Decimal(col string) (decimal.Decimal, error) {
	v := r.raw(col)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, loadError(r.file, r.line, col, fmt.Sprintf("invalid decimal %q", v))
	}
	return d, nil
}

func (r record) Float(col string) (float64, error) {
	v := r.raw(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, loadError(r.file, r.line, col, fmt.Sprintf("invalid number %q", v))
	}
	return f, nil
}

func (r record) Int(col string) (int, error) {
	v := r.raw(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(v, ".0"))
	if err != nil {
		return 0, loadError(r.file, r.line, col, fmt.Sprintf("invalid integer %q", v))
	}
	return n, nil
}

// Time parses a timestamp cell; an empty cell yields the zero time.
func (r record) Time(col string) (time.Time, error) {
	v := r.raw(col)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, loadError(r.file, r.line, col, fmt.Sprintf("invalid timestamp %q", v))
}

// Zip normalizes postal-code prefixes so "01001", "1001", and "1001.0" join equally.
func (r record) Zip(col string) string {
	return NormalizeZip(r.raw(col))
}

func NormalizeZip(v string) string {
	v = strings.TrimSuffix(strings.TrimSpace(v), ".0")
	trimmed := strings.TrimLeft(v, "0")
	if trimmed == "" && v != "" {
		return "0"
	}
	return trimmed
}
