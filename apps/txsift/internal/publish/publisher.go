package publish

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

// Publisher persists the cleaned dataset, computes the derived views inside
// the store and exports the reportable ones as CSV files.
type Publisher struct {
	store      *Store
	curatedDir string
	logger     *zap.Logger
}

func NewPublisher(store *Store, curatedDir string, logger *zap.Logger) *Publisher {
	return &Publisher{store: store, curatedDir: curatedDir, logger: logger}
}

// Publish stages the cleaned dataset, rebuilds the derived tables and writes
// the CSV exports. Any failure is fatal to the run; nothing is retried.
func (p *Publisher) Publish(ctx context.Context, ds *model.CleanDataset) error {
	db, cleanup, err := p.store.connect(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.store.StageTransactions(db, ds); err != nil {
		return err
	}
	if err := p.store.BuildDerivedViews(db); err != nil {
		return err
	}

	regions, err := p.store.RegionRiskAvg(db)
	if err != nil {
		return err
	}
	regionRows := make([][]string, 0, len(regions))
	for _, region := range regions {
		regionRows = append(regionRows, []string{region.LocationRegion, formatNullableFloat(region.AvgRiskScore)})
	}
	regionPath := filepath.Join(p.curatedDir, "region_risk_avg.csv")
	if err := writeCSV(regionPath, []string{"location_region", "avg_risk_score"}, regionRows); err != nil {
		return err
	}

	sales, err := p.store.TopRecentSales(db)
	if err != nil {
		return err
	}
	saleRows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		saleRows = append(saleRows, []string{formatNullableString(sale.ReceivingAddress), formatFloat(sale.Amount), sale.Timestamp})
	}
	salesPath := filepath.Join(p.curatedDir, "top3_recent_sales_by_receiving.csv")
	if err := writeCSV(salesPath, []string{"receiving_address", "amount", "timestamp"}, saleRows); err != nil {
		return err
	}

	p.logger.Info("Published transform outputs",
		zap.Int("staged_rows", len(ds.Rows)),
		zap.Int("region_rows", len(regions)),
		zap.Int("top_sales", len(sales)),
		zap.String("curated_dir", p.curatedDir))

	return nil
}

// SnapshotRaw persists the unfiltered ingested dataset for inspection after
// a pre-clean gate rejection.
func (p *Publisher) SnapshotRaw(ctx context.Context, ds *model.RawDataset) error {
	db, cleanup, err := p.store.connect(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return p.store.WriteRawSnapshot(db, ds)
}
