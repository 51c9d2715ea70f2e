// Package ingest is the local-file ingestion boundary: it reads source CSV
// exports into datasets and writes projection datasets back out. Output
// files carry PHI-adjacent data, so they are written with owner-only
// permissions.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// ReadCSV loads one CSV export into a dataset named after the file.
func ReadCSV(path string) (*tables.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds, err := Read(f, name)
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	return ds, nil
}

// Read parses CSV content into a dataset. The first record is the header;
// header cells are trimmed, and rows consisting only of blank cells are
// dropped. Ragged rows are tolerated: short rows leave trailing columns
// unset, long rows drop the extra cells.
func Read(r io.Reader, name string) (*tables.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", name, "file has no header row", nil)
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	ds := tables.New(name, columns)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(tables.Row, len(columns))
		empty := true
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			row[col] = record[i]
			if strings.TrimSpace(record[i]) != "" {
				empty = false
			}
		}
		if !empty {
			ds.Append(row)
		}
	}
	return ds, nil
}

// WriteCSV writes a dataset to path in its declared column order, creating
// parent directories as needed.
func WriteCSV(path string, ds *tables.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(constants.SecureFilePermissions))
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	if err := Write(f, ds); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return f.Close()
}

// Write renders a dataset as CSV: header first, then rows in input order.
func Write(w io.Writer, ds *tables.Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Columns); err != nil {
		return err
	}

	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
