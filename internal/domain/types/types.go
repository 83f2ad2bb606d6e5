// Package types contains the request and response shapes shared by the
// service and the HTTP API.
package types

import (
	"fmt"
	"io"
	"time"
)

// ReasonDuplicate is the failure reason of a row repeating an earlier
// email and position in the same upload.
const ReasonDuplicate = "duplicate"

// UploadRequest is one CSV file submitted for screening against a position.
type UploadRequest struct {
	Filename      string
	PositionTitle string
	Body          io.Reader
}

// RecordFailure explains why one row was not stored.
type RecordFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// UploadResult summarizes a processed upload.
type UploadResult struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	BatchID           string          `json:"batchId"`
	TotalRecords      int             `json:"totalRecords"`
	SuccessfulRecords int             `json:"successfulRecords"`
	FailedRecords     int             `json:"failedRecords"`
	Failures          []RecordFailure `json:"failures"`
}

// NewUploadResult derives the counts and message of a finished upload.
func NewUploadResult(batchID string, total int, failures []RecordFailure) UploadResult {
	if failures == nil {
		failures = []RecordFailure{}
	}
	ok := total - len(failures)
	return UploadResult{
		Success:           true,
		Message:           fmt.Sprintf("Processed %d candidates successfully. %d failed.", ok, len(failures)),
		BatchID:           batchID,
		TotalRecords:      total,
		SuccessfulRecords: ok,
		FailedRecords:     len(failures),
		Failures:          failures,
	}
}

// Stats is the dashboard summary.
type Stats struct {
	TotalCVs              int        `json:"totalCVs"`
	ShortlistedCandidates int        `json:"shortlistedCandidates"`
	ActivePositions       int        `json:"activePositions"`
	TimeSaved             string     `json:"timeSaved"`
	LastUpload            *time.Time `json:"lastUpload"`
}

// TimeSaved renders the screening time credited for cvs processed CVs as
// whole hours, rounded down.
func TimeSaved(cvs, minutesPerCV int) string {
	return fmt.Sprintf("%d hrs", cvs*minutesPerCV/60)
}
