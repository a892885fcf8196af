// backend/src/services/import_service.go
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/observability"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
	"github.com/username/tradejournal/backend/src/processors"
)

const (
	ckPreviewFile = "preview_file_%s"

	DefaultPreviewTTL      = 30 * time.Minute
	PreviewCleanupInterval = 10 * time.Minute
	DefaultPreviewRows     = 5
)

type importServiceImpl struct {
	db                 *sql.DB
	ledger             *database.LedgerRepository
	trades             *database.TradeRepository
	executionProcessor processors.ExecutionProcessor
	tradeMatcher       processors.TradeMatcher
	previewCache       *cache.Cache
	sampleRows         int
	metrics            *observability.Metrics

	// Serializes the parse, append, rematch and replace sequence.
	importMu sync.Mutex
	now      func() time.Time
}

func NewImportService(
	db *sql.DB,
	executionProcessor processors.ExecutionProcessor,
	tradeMatcher processors.TradeMatcher,
	previewCache *cache.Cache,
	sampleRows int,
	metrics *observability.Metrics,
) ImportService {
	if sampleRows <= 0 {
		sampleRows = DefaultPreviewRows
	}
	return &importServiceImpl{
		db:                 db,
		ledger:             database.NewLedgerRepository(db),
		trades:             database.NewTradeRepository(db),
		executionProcessor: executionProcessor,
		tradeMatcher:       tradeMatcher,
		previewCache:       previewCache,
		sampleRows:         sampleRows,
		metrics:            metrics,
		now:                time.Now,
	}
}

// Preview reads the headers and first rows and proposes a mapping. Nothing is written; the
// file is parked in the preview cache so the confirm step can refer to it by id.
func (s *importServiceImpl) Preview(fileBytes []byte) (*models.ImportPreview, error) {
	table, err := csvutil.ReadCSV(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	suggested, candidates := parsers.SuggestMapping(table.Headers)
	sampleCount := len(table.Rows)
	if sampleCount > s.sampleRows {
		sampleCount = s.sampleRows
	}
	sample := make([][]string, 0, sampleCount)
	for _, row := range table.Rows[:sampleCount] {
		sample = append(sample, append([]string{}, row...))
	}

	preview := &models.ImportPreview{
		PreviewID:        uuid.NewString(),
		DetectedSource:   parsers.DetectSource(table.Headers),
		Headers:          table.Headers,
		SampleRows:       sample,
		SuggestedMapping: suggested,
		Candidates:       candidates,
		TotalRows:        len(table.Rows),
	}
	s.previewCache.Set(fmt.Sprintf(ckPreviewFile, preview.PreviewID), fileBytes, cache.DefaultExpiration)
	s.metrics.ObservePreview()

	logger.L.Info("Import preview created", "previewID", preview.PreviewID, "headers", len(table.Headers),
		"rows", humanize.Comma(int64(preview.TotalRows)), "size", humanize.Bytes(uint64(len(fileBytes))), "detectedSource", preview.DetectedSource)
	return preview, nil
}

func (s *importServiceImpl) RunImportFromPreview(ctx context.Context, previewID string, mapping *models.ColumnMapping, source string) (*models.ImportResult, error) {
	key := fmt.Sprintf(ckPreviewFile, previewID)
	cached, found := s.previewCache.Get(key)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrPreviewNotFound, previewID)
	}
	result, err := s.RunImport(ctx, cached.([]byte), mapping, source)
	if err == nil {
		s.previewCache.Delete(key)
	}
	return result, err
}

func (s *importServiceImpl) RunImport(ctx context.Context, fileBytes []byte, mapping *models.ColumnMapping, source string) (*models.ImportResult, error) {
	overallStartTime := time.Now()
	log := logger.FromContext(ctx)

	table, err := csvutil.ReadCSV(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if source == "" {
		source = parsers.DetectSource(table.Headers)
	}
	parser, err := parsers.GetParser(source)
	if err != nil {
		s.metrics.ObserveImportFailure(source, "unknown_source")
		return nil, fmt.Errorf("%w: %v", ErrUnknownSource, err)
	}

	effectiveMapping := s.resolveMapping(table, mapping)
	parsed, err := parser.Parse(table, effectiveMapping)
	if err != nil {
		var mErr *csvutil.MappingError
		if errors.As(err, &mErr) {
			s.metrics.ObserveImportFailure(source, "mapping_invalid")
			return nil, fmt.Errorf("%w: %w", ErrMappingInvalid, err)
		}
		s.metrics.ObserveImportFailure(source, "parsing_failed")
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	candidates := s.executionProcessor.Process(parsed.Executions)
	batchID := uuid.NewString()
	log.Info("RunImport START", "batchID", batchID, "source", source, "candidates", len(candidates),
		"rowsFailed", parsed.RowsFailed, "rowsSkipped", parsed.RowsSkipped)

	s.importMu.Lock()
	defer s.importMu.Unlock()

	var (
		appended *database.AppendResult
		matched  models.MatchResult
	)
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var txErr error
		appended, txErr = s.ledger.Append(ctx, tx, candidates, batchID, s.now())
		if txErr != nil {
			return txErr
		}
		matched, txErr = s.rematch(ctx, tx)
		return txErr
	})
	if err != nil {
		log.Error("Import rolled back", "batchID", batchID, "error", err)
		s.metrics.ObserveImportFailure(source, "storage_failed")
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	result := &models.ImportResult{
		BatchID:            batchID,
		Success:            true,
		ImportedCount:      len(appended.Imported),
		DuplicateCount:     appended.DuplicatesSkipped,
		MatchedTradesCount: len(matched.Trades),
		RowsFailed:         parsed.RowsFailed,
		OrphanCount:        len(matched.Orphans),
		OpenPositions:      len(matched.OpenPositions),
		RowErrors:          append([]string{}, parsed.RowErrors...),
	}
	result.Message = importMessage(result)
	s.metrics.ObserveImport(observability.ImportOutcome{
		Source:        source,
		Imported:      result.ImportedCount,
		Duplicates:    result.DuplicateCount,
		RowsFailed:    result.RowsFailed,
		MatchedTrades: result.MatchedTradesCount,
		Orphans:       result.OrphanCount,
		OpenPositions: result.OpenPositions,
	}, time.Since(overallStartTime))

	log.Info("RunImport END", "batchID", batchID, "imported", result.ImportedCount, "duplicates", result.DuplicateCount,
		"matchedTrades", result.MatchedTradesCount, "orphans", result.OrphanCount, "duration", time.Since(overallStartTime))
	return result, nil
}

// Rebuild rematches the whole ledger, e.g. after the matching configuration changed.
func (s *importServiceImpl) Rebuild(ctx context.Context) (*models.RebuildResult, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	var (
		executionCount int
		matched        models.MatchResult
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		executions, txErr := s.ledger.All(ctx, tx)
		if txErr != nil {
			return txErr
		}
		executionCount = len(executions)
		matched = s.tradeMatcher.Match(executions)
		return s.trades.Replace(ctx, tx, matched.Trades)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	s.metrics.ObserveRematch(len(matched.Trades), len(matched.Orphans), len(matched.OpenPositions))
	logger.FromContext(ctx).Info("Trade store rebuilt from ledger", "executions", executionCount, "trades", len(matched.Trades))
	return &models.RebuildResult{
		ExecutionCount:     executionCount,
		MatchedTradesCount: len(matched.Trades),
		OrphanCount:        len(matched.Orphans),
		OpenPositions:      len(matched.OpenPositions),
	}, nil
}

// rematch runs the matcher over the full ledger as seen by tx and replaces the trade store.
func (s *importServiceImpl) rematch(ctx context.Context, tx *sql.Tx) (models.MatchResult, error) {
	executions, err := s.ledger.All(ctx, tx)
	if err != nil {
		return models.MatchResult{}, err
	}
	matched := s.tradeMatcher.Match(executions)
	if err := s.trades.Replace(ctx, tx, matched.Trades); err != nil {
		return models.MatchResult{}, err
	}
	return matched, nil
}

// resolveMapping falls back to the suggested mapping when the caller sent none.
func (s *importServiceImpl) resolveMapping(table *csvutil.Table, mapping *models.ColumnMapping) models.ColumnMapping {
	if mapping != nil {
		return *mapping
	}
	suggested, _ := parsers.SuggestMapping(table.Headers)
	sampleTime := ""
	if h := suggested[models.FieldTime]; h != nil && len(table.Rows) > 0 {
		sampleTime = csvutil.Cell(table.Rows[0], table.Index(*h))
	}
	return parsers.MappingFromSuggestion(suggested, sampleTime)
}

func importMessage(r *models.ImportResult) string {
	msg := fmt.Sprintf("Imported %s new executions (%s duplicates skipped); %s matched trades in journal.",
		humanize.Comma(int64(r.ImportedCount)), humanize.Comma(int64(r.DuplicateCount)), humanize.Comma(int64(r.MatchedTradesCount)))
	if r.RowsFailed > 0 {
		msg += fmt.Sprintf(" %s rows could not be parsed.", humanize.Comma(int64(r.RowsFailed)))
	}
	if r.OrphanCount > 0 {
		msg += fmt.Sprintf(" %s closing fills had no matching open position.", humanize.Comma(int64(r.OrphanCount)))
	}
	return msg
}
