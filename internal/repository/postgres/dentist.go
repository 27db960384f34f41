package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
	"github.com/Dentect/dentist-clinic-backend/internal/repository"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
)

type dentistRepository struct {
	db *sqlx.DB
}

func NewDentistRepository(db *sqlx.DB) repository.DentistRepository {
	return &dentistRepository{db: db}
}

func (r *dentistRepository) Create(ctx context.Context, dentist *model.Dentist) error {
	query := `
		INSERT INTO dentists (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	dentist.CreatedAt = time.Now()
	dentist.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		dentist.ID,
		dentist.Email,
		dentist.PasswordHash,
		dentist.FirstName,
		dentist.LastName,
		dentist.CreatedAt,
		dentist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dentist: %w", err)
	}
	return nil
}

func (r *dentistRepository) Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error) {
	query := `SELECT * FROM dentists WHERE id = $1`
	var dentist model.Dentist
	if err := r.db.GetContext(ctx, &dentist, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("dentist", err)
		}
		return nil, fmt.Errorf("failed to get dentist: %w", err)
	}

	if err := r.loadRoster(ctx, &dentist); err != nil {
		return nil, err
	}
	return &dentist, nil
}

func (r *dentistRepository) GetByEmail(ctx context.Context, email string) (*model.Dentist, error) {
	query := `SELECT * FROM dentists WHERE email = $1`
	var dentist model.Dentist
	if err := r.db.GetContext(ctx, &dentist, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("dentist", err)
		}
		return nil, fmt.Errorf("failed to get dentist by email: %w", err)
	}

	if err := r.loadRoster(ctx, &dentist); err != nil {
		return nil, err
	}
	return &dentist, nil
}

// loadRoster fills the embedded summary list in insertion order.
func (r *dentistRepository) loadRoster(ctx context.Context, dentist *model.Dentist) error {
	query := `
		SELECT dentist_id, patient_id, patient_name, patient_clinic_id, position
		FROM dentist_patients
		WHERE dentist_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &dentist.Patients, query, dentist.ID); err != nil {
		return fmt.Errorf("failed to load patient roster: %w", err)
	}
	return nil
}

func (r *dentistRepository) AppendSummaryTx(ctx context.Context, tx *sqlx.Tx, summary *model.PatientSummary) error {
	query := `
		INSERT INTO dentist_patients (dentist_id, patient_id, patient_name, patient_clinic_id, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM dentist_patients WHERE dentist_id = $1))
	`
	_, err := tx.ExecContext(ctx, query,
		summary.DentistID,
		summary.PatientID,
		summary.PatientName,
		summary.PatientClinicID,
	)
	if err != nil {
		return fmt.Errorf("failed to append patient summary: %w", err)
	}
	return nil
}

func (r *dentistRepository) UpdateSummaryNameTx(ctx context.Context, tx *sqlx.Tx, dentistID uuid.UUID, clinicID int64, name string) error {
	query := `
		UPDATE dentist_patients SET patient_name = $1
		WHERE dentist_id = $2 AND patient_clinic_id = $3
	`
	res, err := tx.ExecContext(ctx, query, name, dentistID, clinicID)
	if err != nil {
		return fmt.Errorf("failed to update patient summary name: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFound("patient summary", nil)
	}
	return nil
}
