// Package output renders command results — projection datasets and summary
// structs — as tables, CSV, JSON, or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// Format selects an output rendering.
type Format string

const (
	// FormatTable renders a human-readable table.
	FormatTable Format = "table"
	// FormatCSV renders datasets as CSV, matching the saved projection files.
	FormatCSV Format = "csv"
	// FormatJSON renders JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// Formatter renders one value to a writer.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter creates the formatter for a format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TableFormatter{}
	}
}

// DetectFormat auto-detects the output format: explicit flag wins, a
// terminal gets a table, a pipe gets CSV so projections can be redirected
// straight into files.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatCSV
}

// ParseFormat converts a string to a Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, csv, json, yaml", s)
	}
}

// JSONFormatter renders JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if ds, ok := data.(*tables.Dataset); ok {
		data = datasetDocument(ds)
	}
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter renders YAML.
type YAMLFormatter struct{}

// Format implements the Formatter interface for YAML output.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	if ds, ok := data.(*tables.Dataset); ok {
		data = datasetDocument(ds)
	}
	out, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// CSVFormatter renders datasets as CSV. Non-dataset values fall back to JSON.
type CSVFormatter struct{}

// Format implements the Formatter interface for CSV output.
func (f *CSVFormatter) Format(w io.Writer, data any) error {
	ds, ok := data.(*tables.Dataset)
	if !ok {
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
	return ingest.Write(w, ds)
}

// TableFormatter renders a human-readable table.
type TableFormatter struct{}

// Format implements the Formatter interface for table output.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case *tables.Dataset:
		rows := make([][]string, 0, v.Len())
		record := make([]string, len(v.Columns))
		for _, row := range v.Rows {
			for i, col := range v.Columns {
				record[i] = row.Get(col)
			}
			rows = append(rows, append([]string(nil), record...))
		}
		return renderTable(w, v.Columns, rows)
	case Data:
		return renderTable(w, v.Headers, v.Rows)
	default:
		if tableData := convertToTableData(data); tableData != nil {
			return renderTable(w, tableData.Headers, tableData.Rows)
		}
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
}

// Data is pre-shaped table content.
type Data struct {
	Headers []string
	Rows    [][]string
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	if len(headers) > 0 {
		cells := make([]any, len(headers))
		for i, h := range headers {
			cells[i] = h
		}
		table.Header(cells...)
	}

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}

	return table.Render()
}

// datasetDocument shapes a dataset for structured output: column order
// preserved in a header list, rows as ordered value slices.
func datasetDocument(ds *tables.Dataset) map[string]any {
	rows := make([][]string, 0, ds.Len())
	for _, row := range ds.Rows {
		record := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			record[i] = row.Get(col)
		}
		rows = append(rows, record)
	}
	return map[string]any{
		"name":    ds.Name,
		"columns": ds.Columns,
		"rows":    rows,
	}
}

// convertToTableData renders struct slices and single structs as tables,
// using json tags for header names.
func convertToTableData(data any) *Data {
	v := reflect.ValueOf(data)

	if v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct {
		return structSliceToTableData(v)
	}
	if v.Kind() == reflect.Struct {
		return singleStructToTableData(v)
	}
	return nil
}

func structSliceToTableData(v reflect.Value) *Data {
	elemType := v.Index(0).Type()

	headers := make([]string, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		headers = append(headers, fieldHeader(elemType.Field(i)))
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		row := make([]string, 0, elem.NumField())
		for j := 0; j < elem.NumField(); j++ {
			row = append(row, fmt.Sprintf("%v", elem.Field(j).Interface()))
		}
		rows = append(rows, row)
	}

	return &Data{Headers: headers, Rows: rows}
}

func singleStructToTableData(v reflect.Value) *Data {
	elemType := v.Type()

	rows := make([][]string, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		rows = append(rows, []string{
			fieldHeader(elemType.Field(i)),
			fmt.Sprintf("%v", v.Field(i).Interface()),
		})
	}

	return &Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func fieldHeader(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return field.Name
	}
	if idx := strings.Index(jsonTag, ","); idx > 0 {
		jsonTag = jsonTag[:idx]
	}
	return strings.ReplaceAll(jsonTag, "_", " ")
}
