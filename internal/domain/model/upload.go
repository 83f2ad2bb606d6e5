package model

import "time"

// Record is one ingestion row before extraction.
type Record struct {
	Line       int    `json:"line"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Position   string `json:"position"`
}

// Upload summarizes one processed CSV file.
type Upload struct {
	ID                int64     `json:"id"`
	BatchID           string    `json:"batchId"`
	Filename          string    `json:"filename"`
	Position          string    `json:"position"`
	ProcessedAt       time.Time `json:"processedAt"`
	TotalRecords      int       `json:"totalRecords"`
	SuccessfulRecords int       `json:"successfulRecords"`
	FailedRecords     int       `json:"failedRecords"`
}

// NotificationType classifies notifications.
type NotificationType string

// Known notification types.
const (
	NotificationUploadComplete NotificationType = "upload_complete"
	NotificationStatusChange   NotificationType = "status_change"
	NotificationInfo           NotificationType = "info"
)

// Notification is a user-facing event message.
type Notification struct {
	ID        int64            `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
