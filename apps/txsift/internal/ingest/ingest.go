package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

// ErrInputNotFound signals that the input file is missing. The run must abort
// before any output is produced.
var ErrInputNotFound = errors.New("input file not found")

// Literals treated as missing values when reading cells, mirroring common
// CSV conventions for NA markers.
var naLiterals = map[string]bool{
	"nan":  true,
	"NaN":  true,
	"NULL": true,
	"null": true,
	"None": true,
	"N/A":  true,
	"NA":   true,
	"n/a":  true,
}

type Ingester struct {
	logger *zap.Logger
}

func NewIngester(logger *zap.Logger) *Ingester {
	return &Ingester{logger: logger}
}

// ReadCSV reads the input file into a raw dataset. Header names are matched
// after normalization (trim, lowercase, spaces to underscores); columns that
// are not part of the transaction schema are dropped. Cells are trimmed and
// empty or NA-literal cells become null.
func (i *Ingester) ReadCSV(path string) (*model.RawDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		i.logger.Warn("Input file is empty", zap.String("path", path))
		return &model.RawDataset{Columns: map[string]bool{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	indexes := make(map[string]int)
	columns := make(map[string]bool)
	normalized := make([]string, 0, len(header))
	for pos, name := range header {
		if pos == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		col := normalizeColumnName(name)
		normalized = append(normalized, col)
		for _, logical := range model.LogicalColumns {
			if col != logical {
				continue
			}
			if _, seen := indexes[col]; !seen {
				indexes[col] = pos
				columns[col] = true
			}
		}
	}

	dataset := &model.RawDataset{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		dataset.Rows = append(dataset.Rows, model.RawRecord{
			Timestamp:        cellAt(record, indexes, model.ColTimestamp),
			ReceivingAddress: cellAt(record, indexes, model.ColReceivingAddress),
			LocationRegion:   cellAt(record, indexes, model.ColLocationRegion),
			TransactionType:  cellAt(record, indexes, model.ColTransactionType),
			Amount:           cellAt(record, indexes, model.ColAmount),
			RiskScore:        cellAt(record, indexes, model.ColRiskScore),
		})
	}

	i.logger.Info("Ingested input file",
		zap.String("path", path),
		zap.Int("rows", len(dataset.Rows)),
		zap.Strings("columns", normalized))

	return dataset, nil
}

func normalizeColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

// cellAt returns the trimmed cell for the given logical column, or nil when
// the column is absent, the row is short, or the value is an NA marker.
func cellAt(record []string, indexes map[string]int, col string) *string {
	pos, ok := indexes[col]
	if !ok || pos >= len(record) {
		return nil
	}
	value := strings.TrimSpace(record[pos])
	if value == "" || naLiterals[value] {
		return nil
	}
	return &value
}
