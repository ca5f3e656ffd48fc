package service

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/reportsource"
)

type documentStore interface {
	Save(name string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ArchiveConfig controls how long imported documents are kept.
type ArchiveConfig struct {
	Retention       time.Duration
	CleanupInterval time.Duration
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArchiveService keeps a copy of every imported grade-report document.
type ArchiveService struct {
	store  documentStore
	cfg    ArchiveConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewArchiveService constructs an ArchiveService.
func NewArchiveService(store documentStore, cfg ArchiveConfig, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ArchiveService{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// Archive stores doc under imports/<yyyy>/<mm>/<dd>/ and returns its name.
func (s *ArchiveService) Archive(ctx context.Context, doc *reportsource.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("archive: nil document")
	}
	base := unsafeNameChars.ReplaceAllString(path.Base(doc.Name), "_")
	if base == "" || base == "." || base == "/" {
		base = "report"
	}
	name := path.Join("imports", s.now().UTC().Format("2006/01/02"), uuid.NewString()[:8]+"-"+strings.TrimLeft(base, "."))
	stored, err := s.store.Save(name, doc.Body)
	if err != nil {
		return "", fmt.Errorf("archive document: %w", err)
	}
	return stored, nil
}

// StartCleanup removes expired documents on an interval until ctx ends.
// A zero retention keeps documents forever.
func (s *ArchiveService) StartCleanup(ctx context.Context) {
	if s.cfg.Retention <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *ArchiveService) cleanup() {
	deleted, err := s.store.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("document archive cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("document archive cleaned", zap.Int("deleted", len(deleted)))
	}
}
