package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"txsift/apps/txsift/internal/model"
)

// timestampLayout is the text form timestamps take inside the store and in
// exported files. Uniform UTC rendering keeps lexical order equal to
// chronological order, which the ranking queries rely on.
const timestampLayout = "2006-01-02 15:04:05.999999999-07:00"

// StagedTransaction is one row of stg_transactions. Seq preserves the
// original row order of the cleaned dataset so ranking ties stay stable.
type StagedTransaction struct {
	Seq              int64    `gorm:"column:seq;primaryKey"`
	Timestamp        string   `gorm:"column:timestamp"`
	ReceivingAddress *string  `gorm:"column:receiving_address"`
	LocationRegion   *string  `gorm:"column:location_region"`
	TransactionType  string   `gorm:"column:transaction_type"`
	Amount           float64  `gorm:"column:amount"`
	RiskScore        *float64 `gorm:"column:risk_score"`
}

func (StagedTransaction) TableName() string { return "stg_transactions" }

// RawSnapshotRow is one row of raw_snapshot, the unfiltered ingested dataset
// persisted for inspection when the pre-clean gate rejects.
type RawSnapshotRow struct {
	Seq              int64   `gorm:"column:seq;primaryKey"`
	Timestamp        *string `gorm:"column:timestamp"`
	ReceivingAddress *string `gorm:"column:receiving_address"`
	LocationRegion   *string `gorm:"column:location_region"`
	TransactionType  *string `gorm:"column:transaction_type"`
	Amount           *string `gorm:"column:amount"`
	RiskScore        *string `gorm:"column:risk_score"`
}

func (RawSnapshotRow) TableName() string { return "raw_snapshot" }

// RegionRisk is one row of region_risk_avg. The average is null for a region
// whose risk scores are all null.
type RegionRisk struct {
	LocationRegion string   `gorm:"column:location_region"`
	AvgRiskScore   *float64 `gorm:"column:avg_risk_score"`
}

// SaleRow is one row of last_sale_per_address or top3_recent_sales_by_receiving.
type SaleRow struct {
	ReceivingAddress *string `gorm:"column:receiving_address"`
	Amount           float64 `gorm:"column:amount"`
	Timestamp        string  `gorm:"column:timestamp"`
}

// Store owns the embedded SQLite file holding every published table. It is
// opened once per operation and closed right after; no connection is held
// across pipeline stages.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) connect(ctx context.Context) (*gorm.DB, func(), error) {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", s.path, err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db.WithContext(ctx), cleanup, nil
}

// StageTransactions replaces stg_transactions with the cleaned dataset.
func (s *Store) StageTransactions(db *gorm.DB, ds *model.CleanDataset) error {
	if err := db.Migrator().DropTable(&StagedTransaction{}); err != nil {
		return fmt.Errorf("failed to drop stg_transactions: %w", err)
	}
	if err := db.AutoMigrate(&StagedTransaction{}); err != nil {
		return fmt.Errorf("failed to create stg_transactions: %w", err)
	}

	rows := make([]StagedTransaction, 0, len(ds.Rows))
	for idx, row := range ds.Rows {
		rows = append(rows, StagedTransaction{
			Seq:              int64(idx + 1),
			Timestamp:        row.Timestamp.UTC().Format(timestampLayout),
			ReceivingAddress: row.ReceivingAddress,
			LocationRegion:   row.LocationRegion,
			TransactionType:  row.TransactionType,
			Amount:           row.Amount,
			RiskScore:        row.RiskScore,
		})
	}
	if len(rows) > 0 {
		if err := db.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert staged transactions: %w", err)
		}
	}

	s.logger.Info("Staged cleaned transactions", zap.Int("rows", len(rows)))
	return nil
}

// BuildDerivedViews recomputes the derived tables from stg_transactions.
// The seq tiebreak in the ranking keeps rows with equal timestamps in their
// original order.
func (s *Store) BuildDerivedViews(db *gorm.DB) error {
	queries := []string{
		`DROP TABLE IF EXISTS region_risk_avg`,
		`CREATE TABLE region_risk_avg AS
			SELECT location_region, avg(risk_score) AS avg_risk_score
			FROM stg_transactions
			WHERE location_region IS NOT NULL
			GROUP BY location_region
			ORDER BY avg_risk_score DESC`,
		`DROP TABLE IF EXISTS last_sale_per_address`,
		`CREATE TABLE last_sale_per_address AS
			SELECT receiving_address, amount, timestamp
			FROM (
				SELECT receiving_address, amount, timestamp,
					row_number() OVER (PARTITION BY receiving_address ORDER BY timestamp DESC, seq ASC) AS rn
				FROM stg_transactions
				WHERE transaction_type = 'sale'
			)
			WHERE rn = 1`,
		`DROP TABLE IF EXISTS top3_recent_sales_by_receiving`,
		`CREATE TABLE top3_recent_sales_by_receiving AS
			SELECT receiving_address, amount, timestamp
			FROM last_sale_per_address
			ORDER BY amount DESC
			LIMIT 3`,
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

func (s *Store) RegionRiskAvg(db *gorm.DB) ([]RegionRisk, error) {
	var rows []RegionRisk
	err := db.Raw(`SELECT location_region, avg_risk_score FROM region_risk_avg ORDER BY avg_risk_score DESC`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read region_risk_avg: %w", err)
	}
	return rows, nil
}

func (s *Store) TopRecentSales(db *gorm.DB) ([]SaleRow, error) {
	var rows []SaleRow
	err := db.Raw(`SELECT receiving_address, amount, timestamp FROM top3_recent_sales_by_receiving ORDER BY amount DESC`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read top3_recent_sales_by_receiving: %w", err)
	}
	return rows, nil
}

// WriteRawSnapshot replaces raw_snapshot with the unfiltered ingested rows.
func (s *Store) WriteRawSnapshot(db *gorm.DB, ds *model.RawDataset) error {
	if err := db.Migrator().DropTable(&RawSnapshotRow{}); err != nil {
		return fmt.Errorf("failed to drop raw_snapshot: %w", err)
	}
	if err := db.AutoMigrate(&RawSnapshotRow{}); err != nil {
		return fmt.Errorf("failed to create raw_snapshot: %w", err)
	}

	rows := make([]RawSnapshotRow, 0, len(ds.Rows))
	for idx, row := range ds.Rows {
		rows = append(rows, RawSnapshotRow{
			Seq:              int64(idx + 1),
			Timestamp:        row.Timestamp,
			ReceivingAddress: row.ReceivingAddress,
			LocationRegion:   row.LocationRegion,
			TransactionType:  row.TransactionType,
			Amount:           row.Amount,
			RiskScore:        row.RiskScore,
		})
	}
	if len(rows) > 0 {
		if err := db.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert raw snapshot rows: %w", err)
		}
	}

	s.logger.Info("Persisted raw snapshot", zap.Int("rows", len(rows)))
	return nil
}
