// Package dataset loads labeled transaction datasets.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/med2305/mlops/internal/domain/model"
)

const (
	DefaultLabelField = "is_fraud"
	IDField           = "transaction_id"
)

// Options controls which columns become part of the dataset.
type Options struct {
	// Exclude lists columns dropped before typing, such as identifiers.
	Exclude []string
}

// DefaultOptions drops the transaction identifier.
func DefaultOptions() Options {
	return Options{Exclude: []string{IDField}}
}

// LoadCSV reads a labeled CSV file.
func LoadCSV(path string, opts Options) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV data. Header order becomes the field declaration
// order. A column is numeric only when every one of its values parses as a
// float; otherwise all of its values are category labels.
func ReadCSV(r io.Reader, opts Options) (model.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return model.Dataset{}, model.ErrEmptyDataset
	}
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read header: %w", err)
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, c := range opts.Exclude {
		excluded[c] = struct{}{}
	}

	var fields []string
	var cols []int
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return model.Dataset{}, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := seen[name]; dup {
			return model.Dataset{}, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = struct{}{}
		if _, skip := excluded[name]; skip {
			continue
		}
		fields = append(fields, name)
		cols = append(cols, i)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return model.Dataset{}, model.ErrEmptyDataset
	}

	numeric := make([]bool, len(cols))
	parsed := make([][]float64, len(cols))
	for j, c := range cols {
		numeric[j] = true
		parsed[j] = make([]float64, len(rows))
		for i, row := range rows {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				numeric[j] = false
				break
			}
			parsed[j][i] = v
		}
	}

	records := make([]model.RawRecord, len(rows))
	for i, row := range rows {
		rec := make(model.RawRecord, len(cols))
		for j, c := range cols {
			if numeric[j] {
				rec[fields[j]] = model.Number(parsed[j][i])
			} else {
				rec[fields[j]] = model.Category(strings.TrimSpace(row[c]))
			}
		}
		records[i] = rec
	}

	return model.Dataset{Fields: fields, Records: records}, nil
}
