package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
)

// All repository interfaces in one file
type (
	// TxRunner executes fn within a single database transaction. The patient
	// service uses it to keep the patient row, the dentist's roster entry and
	// the outbox event consistent under one commit.
	TxRunner interface {
		WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	}

	DentistRepository interface {
		Create(ctx context.Context, dentist *model.Dentist) error
		Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error)
		GetByEmail(ctx context.Context, email string) (*model.Dentist, error)
		AppendSummaryTx(ctx context.Context, tx *sqlx.Tx, summary *model.PatientSummary) error
		UpdateSummaryNameTx(ctx context.Context, tx *sqlx.Tx, dentistID uuid.UUID, clinicID int64, name string) error
	}

	PatientRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error
		GetByClinicID(ctx context.Context, dentistID uuid.UUID, clinicID int64) (*model.Patient, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error
	}

	OutboxRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)
