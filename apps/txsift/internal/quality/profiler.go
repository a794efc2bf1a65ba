package quality

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

const conformityEpsilon = 1e-9

type Profiler struct {
	logger *zap.Logger
	sink   Sink
}

func NewProfiler(logger *zap.Logger, sink Sink) *Profiler {
	return &Profiler{logger: logger, sink: sink}
}

// ProfileRaw computes the data quality profile of an ingested dataset before
// standardization. Raw amounts are coerced to numeric for the non-negative
// rule so profiling works on uncleaned data.
func (p *Profiler) ProfileRaw(ds *model.RawDataset, phase string) (*model.Profile, error) {
	nulls := make(map[string]int)
	for _, col := range model.LogicalColumns {
		if !ds.HasColumn(col) {
			continue
		}
		count := 0
		for _, row := range ds.Rows {
			if rawField(row, col) == nil {
				count++
			}
		}
		nulls[col] = count
	}

	negatives := 0
	for _, row := range ds.Rows {
		if row.Amount == nil {
			continue
		}
		parsed, err := cast.ToFloat64E(*row.Amount)
		if err != nil || math.IsNaN(parsed) {
			continue
		}
		if parsed < 0 {
			negatives++
		}
	}

	return p.finish(ds.Columns, nulls, negatives, len(ds.Rows), phase)
}

// ProfileClean computes the profile of a standardized dataset. The required
// fields are non-null by construction, but every rule is still evaluated and
// reported so both phases produce the same output shape.
func (p *Profiler) ProfileClean(ds *model.CleanDataset, phase string) (*model.Profile, error) {
	nulls := make(map[string]int)
	for _, col := range model.LogicalColumns {
		if !ds.HasColumn(col) {
			continue
		}
		count := 0
		for _, row := range ds.Rows {
			if cleanFieldIsNull(row, col) {
				count++
			}
		}
		nulls[col] = count
	}

	negatives := 0
	for _, row := range ds.Rows {
		if row.Amount < 0 {
			negatives++
		}
	}

	return p.finish(ds.Columns, nulls, negatives, len(ds.Rows), phase)
}

// finish aggregates null counts and rule violations into a profile, then
// persists and logs it. A rule whose column is absent stays null and
// contributes nothing to the failed-rows estimate.
func (p *Profiler) finish(columns map[string]bool, nulls map[string]int, negatives, total int, phase string) (*model.Profile, error) {
	rules := map[string]*model.RuleStat{
		model.RuleTimestampNotNull:       nil,
		model.RuleTransactionTypeNotNull: nil,
		model.RuleAmountNotNull:          nil,
		model.RuleAmountNonNegative:      nil,
	}
	if columns[model.ColTimestamp] {
		rules[model.RuleTimestampNotNull] = &model.RuleStat{Violations: nulls[model.ColTimestamp]}
	}
	if columns[model.ColTransactionType] {
		rules[model.RuleTransactionTypeNotNull] = &model.RuleStat{Violations: nulls[model.ColTransactionType]}
	}
	if columns[model.ColAmount] {
		rules[model.RuleAmountNotNull] = &model.RuleStat{Violations: nulls[model.ColAmount]}
		rules[model.RuleAmountNonNegative] = &model.RuleStat{Violations: negatives}
	}

	failed := 0
	for _, stat := range rules {
		if stat != nil {
			failed += stat.Violations
		}
	}

	profile := &model.Profile{
		Phase:              phase,
		TotalRows:          total,
		Nulls:              nulls,
		Rules:              rules,
		FailedRowsEstimate: failed,
		ConformityRate:     conformityRate(failed, total),
	}

	p.logger.Info("Computed data quality profile",
		zap.String("phase", phase),
		zap.Int("total_rows", total),
		zap.Int("failed_rows_estimate", failed),
		zap.Float64("conformity_rate", profile.ConformityRate))

	if err := p.sink.Persist(profile); err != nil {
		return nil, fmt.Errorf("failed to persist %s profile: %w", phase, err)
	}

	return profile, nil
}

// conformityRate estimates the fraction of rows satisfying all rules. The
// estimate counts a row once per violated rule, and the epsilon keeps a
// zero-row dataset at rate 1 instead of dividing by zero.
func conformityRate(failed, total int) float64 {
	return math.Max(0, 1-float64(failed)/(float64(total)+conformityEpsilon))
}

func rawField(row model.RawRecord, col string) *string {
	switch col {
	case model.ColTimestamp:
		return row.Timestamp
	case model.ColReceivingAddress:
		return row.ReceivingAddress
	case model.ColLocationRegion:
		return row.LocationRegion
	case model.ColTransactionType:
		return row.TransactionType
	case model.ColAmount:
		return row.Amount
	default:
		return row.RiskScore
	}
}

func cleanFieldIsNull(row model.Record, col string) bool {
	switch col {
	case model.ColReceivingAddress:
		return row.ReceivingAddress == nil
	case model.ColLocationRegion:
		return row.LocationRegion == nil
	case model.ColRiskScore:
		return row.RiskScore == nil
	default:
		// timestamp, transaction_type and amount are non-null after cleaning
		return false
	}
}
