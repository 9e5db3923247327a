package view

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// CSVMime is the MIME type reported by CSV.
const CSVMime = "text/csv; charset=utf-8"

// CSV is a BinaryView writing rows taken from the accumulator key Source.
// Source must hold a []map[string]any or a [][]string. With maps, Columns
// fixes the header; empty Columns uses the sorted keys of the first row.
type CSV struct {
	Source  string
	Name    string
	Columns []string
}

// NewCSV builds a CSV view for the rows stored under source.
func NewCSV(source, filename string, columns ...string) *CSV {
	return &CSV{Source: source, Name: filename, Columns: columns}
}

// MIMEType implements ports.BinaryView.
func (v *CSV) MIMEType() string { return CSVMime }

// FileName implements ports.BinaryView.
func (v *CSV) FileName() string {
	if v.Name == "" {
		return "export.csv"
	}
	return v.Name
}

// Render implements ports.View.
func (v *CSV) Render(w io.Writer, data map[string]any) error {
	cw := csv.NewWriter(w)

	switch rows := data[v.Source].(type) {
	case [][]string:
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	case []map[string]any:
		cols := v.Columns
		if len(cols) == 0 && len(rows) > 0 {
			for k := range rows[0] {
				cols = append(cols, k)
			}
			sort.Strings(cols)
		}
		if err := cw.Write(cols); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		record := make([]string, len(cols))
		for _, row := range rows {
			for i, c := range cols {
				record[i] = cell(row[c])
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	case nil:
		if len(v.Columns) > 0 {
			if err := cw.Write(v.Columns); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	default:
		return fmt.Errorf("csv source %q has unsupported type %T", v.Source, rows)
	}

	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
