package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Loader bounds ingestion of uploaded tabular files.
type Loader struct {
	MaxRows int
}

// NewLoader constructs a Loader; maxRows <= 0 disables the row cap.
func NewLoader(maxRows int) *Loader {
	return &Loader{MaxRows: maxRows}
}

// LoadCSV reads a comma-separated stream into a Table. The first record is
// the header row; short records are padded, long records truncated to the
// header width.
func (l *Loader) LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	t := &Table{Columns: columns}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, rowFromRecord(columns, record))
		if l.MaxRows > 0 && len(t.Rows) >= l.MaxRows {
			break
		}
	}
	return t, nil
}

// LoadXLSX reads the first sheet of an Excel workbook into a Table using a
// streaming row iterator; the first row is the header.
func (l *Loader) LoadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open workbook: %w", err)
	}
	defer f.Close()
	return l.loadWorkbook(f)
}

// LoadXLSXReader is LoadXLSX over an in-memory stream, for multipart uploads
// that never touch disk.
func (l *Loader) LoadXLSXReader(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: open workbook: %w", err)
	}
	defer f.Close()
	return l.loadWorkbook(f)
}

func (l *Loader) loadWorkbook(f *excelize.File) (*Table, error) {

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("dataset: workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("dataset: read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var t *Table
	for rows.Next() {
		vals, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		if t == nil {
			columns := make([]string, len(vals))
			for i, h := range vals {
				columns[i] = strings.TrimSpace(h)
			}
			t = &Table{Columns: columns}
			continue
		}
		t.Rows = append(t.Rows, rowFromRecord(t.Columns, vals))
		if l.MaxRows > 0 && len(t.Rows) >= l.MaxRows {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("dataset: empty sheet %q", sheets[0])
	}
	return t, nil
}

// LoadFile dispatches on the file extension. Callers are expected to have
// validated the path against the security allow-list first.
func (l *Loader) LoadFile(path string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.LoadCSV(r)
	case ".xlsx", ".xlsm":
		return l.LoadXLSX(path)
	default:
		return nil, fmt.Errorf("dataset: unsupported format: %s", filepath.Ext(path))
	}
}

// LoadUpload dispatches on the uploaded filename's extension, reading
// everything from the stream.
func (l *Loader) LoadUpload(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return l.LoadCSV(r)
	case ".xlsx", ".xlsm":
		return l.LoadXLSXReader(r)
	default:
		return nil, fmt.Errorf("dataset: unsupported format: %s", filepath.Ext(filename))
	}
}

func rowFromRecord(columns []string, record []string) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if col == "" {
			continue
		}
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row
}
