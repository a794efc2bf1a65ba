package standardize

import (
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"txsift/apps/txsift/internal/model"
)

func sp(v string) *string {
	return &v
}

func rawDataset(columns []string, rows []model.RawRecord) *model.RawDataset {
	cols := make(map[string]bool)
	for _, c := range columns {
		cols[c] = true
	}
	return &model.RawDataset{Rows: rows, Columns: cols}
}

var allColumns = []string{
	model.ColTimestamp,
	model.ColReceivingAddress,
	model.ColLocationRegion,
	model.ColTransactionType,
	model.ColAmount,
	model.ColRiskScore,
}

func TestApplyNormalizesStringFields(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{
			Timestamp:        sp("2021-01-01T00:00:00Z"),
			ReceivingAddress: sp("  0xAbC  "),
			LocationRegion:   sp("nan"),
			TransactionType:  sp("  SALE "),
			Amount:           sp("10"),
			RiskScore:        sp("0.5"),
		},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(clean.Rows))
	}
	row := clean.Rows[0]
	if row.ReceivingAddress == nil || *row.ReceivingAddress != "0xAbC" {
		t.Errorf("Expected receiving address to be trimmed, got %v", row.ReceivingAddress)
	}
	if row.LocationRegion != nil {
		t.Errorf("Expected nan region to become null, got %v", *row.LocationRegion)
	}
	if row.TransactionType != "sale" {
		t.Errorf("Expected transaction type 'sale', got '%s'", row.TransactionType)
	}
	if row.RiskScore == nil || *row.RiskScore != 0.5 {
		t.Errorf("Expected risk score 0.5, got %v", row.RiskScore)
	}
}

func TestApplyZeroLiteralHandling(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{
			Timestamp:        sp("2021-01-01T00:00:00Z"),
			ReceivingAddress: sp("0"),
			LocationRegion:   sp("0"),
			TransactionType:  sp("0"),
			Amount:           sp("1"),
		},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(clean.Rows))
	}
	row := clean.Rows[0]
	if row.ReceivingAddress != nil {
		t.Error("Expected zero receiving address to become null")
	}
	if row.LocationRegion != nil {
		t.Error("Expected zero location region to become null")
	}
	if row.TransactionType != "0" {
		t.Errorf("Expected zero transaction type to be kept, got '%s'", row.TransactionType)
	}
}

func TestApplyDropsInvalidRows(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{Timestamp: nil, TransactionType: sp("sale"), Amount: sp("10")},
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: nil, Amount: sp("10")},
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: sp("sale"), Amount: nil},
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: sp("sale"), Amount: sp("-1")},
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: sp("sale"), Amount: sp("not a number")},
		{Timestamp: sp("2021-01-02T00:00:00Z"), TransactionType: sp("sale"), Amount: sp("0")},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 1 {
		t.Fatalf("Expected only the zero-amount row to survive, got %d rows", len(clean.Rows))
	}
	if clean.Rows[0].Amount != 0 {
		t.Errorf("Expected amount 0, got %v", clean.Rows[0].Amount)
	}
}

func TestApplyDeduplicates(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{
			Timestamp:        sp("2021-01-01T00:00:00Z"),
			ReceivingAddress: sp("0xaaa"),
			LocationRegion:   sp("europe"),
			TransactionType:  sp("sale"),
			Amount:           sp("10"),
		},
		{
			Timestamp:        sp("2021-01-01T00:00:00Z"),
			ReceivingAddress: sp("0xaaa"),
			LocationRegion:   sp("asia"),
			TransactionType:  sp("sale"),
			Amount:           sp("10"),
		},
		{
			Timestamp:        sp("2021-01-01T00:00:00Z"),
			ReceivingAddress: sp("0xaaa"),
			TransactionType:  sp("sale"),
			Amount:           sp("20"),
		},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 2 {
		t.Fatalf("Expected 2 rows after dedup, got %d", len(clean.Rows))
	}
	if clean.Rows[0].LocationRegion == nil || *clean.Rows[0].LocationRegion != "europe" {
		t.Error("Expected the first occurrence of a duplicate key to be kept")
	}
}

func TestApplyDeduplicatesNullAddresses(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: sp("sale"), Amount: sp("10"), LocationRegion: sp("europe")},
		{Timestamp: sp("2021-01-01T00:00:00Z"), TransactionType: sp("sale"), Amount: sp("10"), LocationRegion: sp("asia")},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 1 {
		t.Fatalf("Expected null addresses to compare equal in dedup, got %d rows", len(clean.Rows))
	}
}

func TestApplyNumericTimestamps(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{Timestamp: sp("1609459200000"), TransactionType: sp("sale"), Amount: sp("1")},
		{Timestamp: sp("1609545600000"), TransactionType: sp("sale"), Amount: sp("2")},
		{Timestamp: nil, TransactionType: sp("sale"), Amount: sp("3")},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(clean.Rows))
	}
	want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if !clean.Rows[0].Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, clean.Rows[0].Timestamp)
	}
}

func TestApplyDatetimeTimestamps(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{Timestamp: sp("2021-06-01 12:00:00"), TransactionType: sp("sale"), Amount: sp("1")},
		{Timestamp: sp("not a date"), TransactionType: sp("sale"), Amount: sp("2")},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 1 {
		t.Fatalf("Expected the unparseable timestamp row to be dropped, got %d rows", len(clean.Rows))
	}
	want := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	if !clean.Rows[0].Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, clean.Rows[0].Timestamp)
	}
}

func TestApplyAbsentColumns(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset([]string{model.ColTransactionType, model.ColAmount}, []model.RawRecord{
		{TransactionType: sp("sale"), Amount: sp("10")},
	})

	clean := s.Apply(raw)
	if len(clean.Rows) != 0 {
		t.Fatalf("Expected all rows to be dropped without a timestamp column, got %d", len(clean.Rows))
	}
	if !clean.HasColumn(model.ColTimestamp) || !clean.HasColumn(model.ColAmount) {
		t.Error("Expected timestamp and amount columns to be tracked after standardization")
	}
	if clean.HasColumn(model.ColRiskScore) {
		t.Error("Expected absent risk_score column to stay absent")
	}
}

func TestApplyIdempotent(t *testing.T) {
	s := NewStandardizer(zap.NewNop())
	raw := rawDataset(allColumns, []model.RawRecord{
		{
			Timestamp:        sp("2021-01-01 10:30:00"),
			ReceivingAddress: sp(" 0xAAA "),
			LocationRegion:   sp("Europe"),
			TransactionType:  sp("SALE"),
			Amount:           sp("10.25"),
			RiskScore:        sp("0.5"),
		},
		{
			Timestamp:       sp("2021-01-02 11:00:00"),
			TransactionType: sp("buy"),
			Amount:          sp("3"),
		},
		{
			Timestamp:       sp("2021-01-02 11:00:00"),
			TransactionType: sp("buy"),
			Amount:          sp("3"),
		},
	})

	first := s.Apply(raw)
	second := s.Apply(stringify(first))

	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("Expected row count to be stable, got %d then %d", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		a, b := first.Rows[i], second.Rows[i]
		if !a.Timestamp.Equal(b.Timestamp) {
			t.Errorf("Row %d: expected timestamp %v, got %v", i, a.Timestamp, b.Timestamp)
		}
		if a.TransactionType != b.TransactionType {
			t.Errorf("Row %d: expected type '%s', got '%s'", i, a.TransactionType, b.TransactionType)
		}
		if a.Amount != b.Amount {
			t.Errorf("Row %d: expected amount %v, got %v", i, a.Amount, b.Amount)
		}
		if !ptrEqual(a.ReceivingAddress, b.ReceivingAddress) {
			t.Errorf("Row %d: receiving address changed on reapply", i)
		}
		if !ptrEqual(a.LocationRegion, b.LocationRegion) {
			t.Errorf("Row %d: location region changed on reapply", i)
		}
	}
}

// stringify renders a clean dataset back into raw form so Apply can run again.
func stringify(ds *model.CleanDataset) *model.RawDataset {
	raw := &model.RawDataset{Columns: make(map[string]bool)}
	for col := range ds.Columns {
		raw.Columns[col] = true
	}
	for _, row := range ds.Rows {
		rec := model.RawRecord{
			Timestamp:        sp(row.Timestamp.Format(time.RFC3339Nano)),
			ReceivingAddress: row.ReceivingAddress,
			LocationRegion:   row.LocationRegion,
			TransactionType:  sp(row.TransactionType),
			Amount:           sp(strconv.FormatFloat(row.Amount, 'g', -1, 64)),
		}
		if row.RiskScore != nil {
			rec.RiskScore = sp(strconv.FormatFloat(*row.RiskScore, 'g', -1, 64))
		}
		raw.Rows = append(raw.Rows, rec)
	}
	return raw
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
