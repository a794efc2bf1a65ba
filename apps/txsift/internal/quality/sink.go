package quality

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

// Sink persists data quality profiles to a durable location for audit.
type Sink interface {
	Persist(p *model.Profile) error
}

// FileSink writes each profile as an indented JSON file named after its
// phase, e.g. dq_metrics_pre_clean.json.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Persist(p *model.Profile) error {
	compact, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "  "); err != nil {
		return fmt.Errorf("failed to indent profile: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("dq_metrics_%s.json", p.Phase))
	if err := os.WriteFile(path, indented.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write profile to %s: %w", path, err)
	}

	s.logger.Info("Persisted data quality profile",
		zap.String("phase", p.Phase),
		zap.String("path", path),
		zap.ByteString("profile", compact))
	return nil
}
