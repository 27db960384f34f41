package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Patient lifecycle event types published through the outbox.
const (
	EventPatientCreate = "PATIENT_CREATE"
	EventPatientUpdate = "PATIENT_UPDATE"
)

// OutboxEvent is written in the same transaction as the data change it
// describes and published asynchronously by the worker.
type OutboxEvent struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	EventType   string          `json:"eventType" db:"event_type"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	Status      OutboxStatus    `json:"status" db:"status"`
	Error       *string         `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty" db:"processed_at"`
}
