package standardize

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

type Standardizer struct {
	logger *zap.Logger
}

func NewStandardizer(logger *zap.Logger) *Standardizer {
	return &Standardizer{logger: logger}
}

type dedupKey struct {
	timestamp string
	address   string
	addrNull  bool
	txType    string
	amount    float64
}

// Apply standardizes a raw dataset: normalizes string fields, parses
// timestamps and numeric fields, drops rows missing timestamp, transaction
// type or amount (or with a negative amount), and deduplicates on
// (timestamp, receiving_address, transaction_type, amount) keeping the first
// occurrence. Invalid values are coerced to null, never raised as errors.
func (s *Standardizer) Apply(raw *model.RawDataset) *model.CleanDataset {
	timestamps := s.parseTimestamps(raw)

	columns := make(map[string]bool, len(raw.Columns)+2)
	for col := range raw.Columns {
		columns[col] = true
	}
	columns[model.ColTimestamp] = true
	columns[model.ColAmount] = true

	clean := &model.CleanDataset{Columns: columns}
	seen := make(map[dedupKey]bool)
	for idx, row := range raw.Rows {
		address := normalizeStringField(row.ReceivingAddress, true)
		region := normalizeStringField(row.LocationRegion, true)
		txType := normalizeStringField(row.TransactionType, false)
		if txType != nil {
			lowered := strings.ToLower(*txType)
			txType = &lowered
		}
		amount := parseFloat(row.Amount)
		var riskScore *float64
		if raw.HasColumn(model.ColRiskScore) {
			riskScore = parseFloat(row.RiskScore)
		}

		ts := timestamps[idx]
		if ts == nil || txType == nil || amount == nil || *amount < 0 {
			continue
		}

		key := dedupKey{
			timestamp: ts.Format(time.RFC3339Nano),
			txType:    *txType,
			amount:    *amount,
		}
		if address != nil {
			key.address = *address
		} else {
			key.addrNull = true
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		clean.Rows = append(clean.Rows, model.Record{
			Timestamp:        *ts,
			ReceivingAddress: address,
			LocationRegion:   region,
			TransactionType:  *txType,
			Amount:           *amount,
			RiskScore:        riskScore,
		})
	}

	s.logger.Info("Standardized dataset",
		zap.Int("rows_before", len(raw.Rows)),
		zap.Int("rows_after", len(clean.Rows)),
		zap.Int("rows_removed", len(raw.Rows)-len(clean.Rows)))

	return clean
}

// parseTimestamps resolves the timestamp column to UTC instants. A column
// whose non-null values all look numeric goes through unit detection;
// anything else is parsed as a generic datetime. Unparsable values become
// null, as does the whole column when it is absent.
func (s *Standardizer) parseTimestamps(raw *model.RawDataset) []*time.Time {
	parsed := make([]*time.Time, len(raw.Rows))
	if !raw.HasColumn(model.ColTimestamp) {
		return parsed
	}

	values := make([]*string, len(raw.Rows))
	for idx, row := range raw.Rows {
		values[idx] = row.Timestamp
	}

	if isNumericColumn(values) {
		unit := DetectTimestampUnit(values)
		s.logger.Info("Detected numeric timestamp column", zap.String("unit", unit.String()))
		for idx, v := range values {
			if v == nil {
				continue
			}
			num, err := cast.ToFloat64E(*v)
			if err != nil {
				continue
			}
			if t, ok := parseEpoch(num, unit); ok {
				parsed[idx] = &t
			}
		}
		return parsed
	}

	for idx, v := range values {
		if v == nil {
			continue
		}
		if t, ok := parseDatetime(*v); ok {
			parsed[idx] = &t
		}
	}
	return parsed
}

// normalizeStringField trims the value and maps the empty string and the
// literals "nan" and "None" to null. With zeroIsNull set, the literal "0" is
// also mapped to null (receiving_address and location_region).
func normalizeStringField(v *string, zeroIsNull bool) *string {
	if v == nil {
		return nil
	}
	value := strings.TrimSpace(*v)
	if value == "" || value == "nan" || value == "None" {
		return nil
	}
	if zeroIsNull && value == "0" {
		return nil
	}
	return &value
}

// parseFloat coerces a raw cell to a float. Unparsable values and NaN map to
// null so they are filtered instead of raised.
func parseFloat(v *string) *float64 {
	if v == nil {
		return nil
	}
	parsed, err := cast.ToFloat64E(*v)
	if err != nil || math.IsNaN(parsed) {
		return nil
	}
	return &parsed
}
