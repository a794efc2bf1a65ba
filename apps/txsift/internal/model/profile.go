package model

// Pipeline phases a profile can be computed at.
const (
	PhasePreClean  = "pre_clean"
	PhasePostClean = "post_clean"
)

// Rule names reported in every profile.
const (
	RuleTimestampNotNull       = "timestamp_not_null"
	RuleTransactionTypeNotNull = "transaction_type_not_null"
	RuleAmountNotNull          = "amount_not_null"
	RuleAmountNonNegative      = "amount_non_negative"
)

// RuleNames in reporting order.
var RuleNames = []string{
	RuleTimestampNotNull,
	RuleTransactionTypeNotNull,
	RuleAmountNotNull,
	RuleAmountNonNegative,
}

type RuleStat struct {
	Violations int `json:"violations"`
}

// Profile is the data quality summary of one dataset snapshot. A nil entry in
// Rules means the rule's column was absent from the dataset. Profiles are
// immutable once returned.
type Profile struct {
	Phase              string               `json:"phase"`
	TotalRows          int                  `json:"total_rows"`
	Nulls              map[string]int       `json:"nulls"`
	Rules              map[string]*RuleStat `json:"rules"`
	FailedRowsEstimate int                  `json:"failed_rows_estimate"`
	ConformityRate     float64              `json:"conformity_rate"`
}
