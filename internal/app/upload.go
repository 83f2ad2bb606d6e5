package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/smarthire/internal/adapters/mq/queue"
	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/dedupe"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/types"
	"github.com/okian/smarthire/internal/ingest"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

// Upload validates, deduplicates, scores and stores every row of a CSV file.
// A bad row is counted as a failure and never aborts the batch; file-level
// problems (extension, unknown position, unreadable CSV) fail before any row
// is stored.
func (s *Service) Upload(ctx context.Context, req types.UploadRequest) (types.UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(req.Filename), ".csv") {
		metrics.RecordUpload("rejected")
		return types.UploadResult{}, fmt.Errorf("upload %q: %w", req.Filename, ErrUnsupportedFile)
	}

	title := strings.TrimSpace(req.PositionTitle)
	if title == "" {
		metrics.RecordUpload("rejected")
		return types.UploadResult{}, fmt.Errorf("upload: %w: position is required", ErrInvalidInput)
	}
	position, err := s.store.GetPositionByTitle(ctx, title)
	if err != nil {
		metrics.RecordUpload("rejected")
		if errors.Is(err, repository.ErrNotFound) {
			return types.UploadResult{}, fmt.Errorf("upload: %w: %s", ErrPositionNotFound, title)
		}
		return types.UploadResult{}, fmt.Errorf("upload: lookup position: %w", err)
	}

	validator, err := s.recordValidator()
	if err != nil {
		return types.UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	records, malformed, err := s.reader.Read(req.Body)
	if err != nil {
		metrics.RecordUpload("rejected")
		return types.UploadResult{}, fmt.Errorf("upload %q: %w", req.Filename, err)
	}

	batchID := uuid.NewString()
	s.logger.Info(ctx, "processing upload",
		logger.String("batch_id", batchID),
		logger.String("filename", req.Filename),
		logger.String("position", position.Title),
		logger.Int("records", len(records)+len(malformed)),
	)

	start := time.Now()
	failures, err := s.processRecords(ctx, batchID, records, position, validator)
	if err != nil {
		metrics.RecordUpload("aborted")
		return types.UploadResult{}, fmt.Errorf("upload %s: %w", batchID, err)
	}
	for _, m := range malformed {
		metrics.RecordRecordFailure("malformed")
		s.logger.Warn(ctx, "malformed row",
			logger.String("batch_id", batchID),
			logger.Int("line", m.Line),
			logger.Error(m.Err),
		)
		failures = append(failures, types.RecordFailure{Line: m.Line, Reason: ingest.MalformedReason})
	}
	slices.SortFunc(failures, func(a, b types.RecordFailure) int {
		return cmp.Compare(a.Line, b.Line)
	})

	res := types.NewUploadResult(batchID, len(records)+len(malformed), failures)

	_, err = s.store.CreateUpload(ctx, model.Upload{
		BatchID:           batchID,
		Filename:          req.Filename,
		Position:          position.Title,
		TotalRecords:      res.TotalRecords,
		SuccessfulRecords: res.SuccessfulRecords,
		FailedRecords:     res.FailedRecords,
	})
	if err != nil {
		metrics.RecordErrorByComponent("service", "upload_record")
		s.logger.Error(ctx, "failed to store upload record", logger.String("batch_id", batchID), logger.Error(err))
	}
	s.notify(ctx, model.NotificationUploadComplete,
		fmt.Sprintf("Processed %d candidates from %s", res.SuccessfulRecords, req.Filename))

	switch {
	case res.FailedRecords == 0:
		metrics.RecordUpload("success")
	case res.SuccessfulRecords == 0:
		metrics.RecordUpload("failed")
	default:
		metrics.RecordUpload("partial")
	}
	s.RefreshGauges(ctx)

	s.logger.Info(ctx, "upload processed",
		logger.String("batch_id", batchID),
		logger.Int("successful", res.SuccessfulRecords),
		logger.Int("failed", res.FailedRecords),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

// processRecords fans records out to the worker pool and gathers one outcome
// per submitted job. Validation and dedupe run here, in file order, so the
// first occurrence of a duplicate is the one kept.
func (s *Service) processRecords(
	ctx context.Context,
	batchID string,
	records []model.Record,
	position model.Position,
	validator *ingest.Validator,
) ([]types.RecordFailure, error) {
	failures := make([]types.RecordFailure, 0)
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(len(records)))
	// Buffered so neither workers nor inline processing ever block on it.
	results := make(chan eventqueue.Outcome, len(records))

	pending := 0
	for _, rec := range records {
		if err := validator.Validate(rec); err != nil {
			metrics.RecordRecordFailure("invalid")
			failures = append(failures, types.RecordFailure{Line: rec.Line, Reason: validationReason(err)})
			continue
		}

		label := rec.Position
		if strings.TrimSpace(label) == "" {
			label = position.Title
		}
		if seen.SeenAndRecord(ctx, dedupe.CandidateKey(rec.Email, label)) {
			metrics.RecordRecordFailure(types.ReasonDuplicate)
			failures = append(failures, types.RecordFailure{Line: rec.Line, Reason: types.ReasonDuplicate})
			continue
		}

		job := eventqueue.Job{BatchID: batchID, Record: rec, Position: position, Result: results}
		pending++
		if !s.enqueue(ctx, job) {
			results <- s.processor.Process(ctx, job)
		}
	}

	for range pending {
		select {
		case out := <-results:
			if out.Err != nil {
				metrics.RecordRecordFailure("processing")
				s.logger.Warn(ctx, "record failed",
					logger.String("batch_id", batchID),
					logger.Int("line", out.Line),
					logger.Error(out.Err),
				)
				failures = append(failures, types.RecordFailure{Line: out.Line, Reason: out.Err.Error()})
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return failures, nil
}

func validationReason(err error) string {
	var verr *ingest.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	parts := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}
