// Package tabular reads and writes the csv files exchanged between the stages.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ronin-scraper/internal/ronin"
)

const (
	ColumnIdentifier = "Axie ID"
	ColumnTxHash     = "Tx Hash"
	ColumnDate       = "Date"
	// the dates file names the identifier column differently
	ColumnDatedIdentifier = "Axie_id"
)

// TransferHeader is the header of a transfer file.
var TransferHeader = []string{ColumnIdentifier, ColumnTxHash}

// DatedColumns is the column order of the (headerless) dates file.
var DatedColumns = []string{ColumnTxHash, ColumnDate, ColumnDatedIdentifier}

var ErrEmptyFile = errors.New("no header row")

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// ReadAll returns every row of a csv file, including the header if it has one.
func ReadAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := newReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadIdentifiers returns the trimmed first column of every row after the header.
// Blank cells are kept as empty strings.
func ReadIdentifiers(path string) ([]string, error) {
	rows, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: %w", path, ErrEmptyFile)
	}

	identifiers := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		identifiers = append(identifiers, strings.TrimSpace(row[0]))
	}
	return identifiers, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		// excel likes to prefix a byte order mark
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing column %q", name)
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ReadTransfers reads a transfer file by its header names.
func ReadTransfers(path string) ([]ronin.TransferRecord, error) {
	rows, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: %w", path, ErrEmptyFile)
	}

	idCol, err := columnIndex(rows[0], ColumnIdentifier)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	hashCol, err := columnIndex(rows[0], ColumnTxHash)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	records := make([]ronin.TransferRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, ronin.TransferRecord{
			Identifier: cell(row, idCol),
			TxHash:     cell(row, hashCol),
		})
	}
	return records, nil
}

// WriteTransfers replaces the file at path with a header and one row per record.
func WriteTransfers(path string, records []ronin.TransferRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Write(TransferHeader)
	for _, r := range records {
		w.Write([]string{r.Identifier, r.TxHash})
	}
	w.Flush()

	err = errors.Join(w.Error(), f.Close())
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AppendDated appends one headerless row per record to the file at path, creating it
// if needed. Records without a date get an empty Date cell.
func AppendDated(path string, records []ronin.DatedRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, r := range records {
		w.Write([]string{r.TxHash, r.Date, r.Identifier})
	}
	w.Flush()

	err = errors.Join(w.Error(), f.Close())
	if err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}
