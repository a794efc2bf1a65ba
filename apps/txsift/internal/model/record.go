package model

import (
	"time"
)

// Logical column names after header normalization.
const (
	ColTimestamp        = "timestamp"
	ColReceivingAddress = "receiving_address"
	ColLocationRegion   = "location_region"
	ColTransactionType  = "transaction_type"
	ColAmount           = "amount"
	ColRiskScore        = "risk_score"
)

// LogicalColumns lists the columns the pipeline knows about, in reporting order.
var LogicalColumns = []string{
	ColTimestamp,
	ColTransactionType,
	ColAmount,
	ColReceivingAddress,
	ColLocationRegion,
	ColRiskScore,
}

// RawRecord is a single ingested row before standardization. A nil field means
// the cell was empty, an NA literal, or the column was absent from the header.
type RawRecord struct {
	Timestamp        *string
	ReceivingAddress *string
	LocationRegion   *string
	TransactionType  *string
	Amount           *string
	RiskScore        *string
}

// RawDataset is the ingested dataset plus the set of logical columns that were
// actually present in the source header. Column presence drives which null
// counts and rules the profiler reports.
type RawDataset struct {
	Rows    []RawRecord
	Columns map[string]bool
}

func (d *RawDataset) HasColumn(name string) bool {
	return d.Columns[name]
}

// Record is a cleaned transaction row. Timestamp, TransactionType and Amount
// are guaranteed non-null by the standardizer; the rest stay nullable.
type Record struct {
	Timestamp        time.Time
	ReceivingAddress *string
	LocationRegion   *string
	TransactionType  string
	Amount           float64
	RiskScore        *float64 // nullable field
}

// CleanDataset is the standardized dataset. Its column set is the raw column
// set plus timestamp and amount, which the standardizer always materializes.
type CleanDataset struct {
	Rows    []Record
	Columns map[string]bool
}

func (d *CleanDataset) HasColumn(name string) bool {
	return d.Columns[name]
}
