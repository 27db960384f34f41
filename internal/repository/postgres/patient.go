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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, dentist_id, clinic_id, first_name, middle_name, last_name,
			birth_date, user_name, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		patient.ID,
		patient.DentistID,
		patient.ClinicID,
		patient.FirstName,
		patient.MiddleName,
		patient.LastName,
		patient.BirthDate,
		patient.UserName,
		patient.Age,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// GetByClinicID fetches by clinic id within the dentist's scope. Clinic ids
// are only unique per dentist, so the lookup carries the owner.
func (r *patientRepository) GetByClinicID(ctx context.Context, dentistID uuid.UUID, clinicID int64) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE dentist_id = $1 AND clinic_id = $2`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, dentistID, clinicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

// UpdateTx replaces the full document; callers pass the merged patient.
func (r *patientRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, middle_name = $2, last_name = $3, birth_date = $4,
			user_name = $5, age = $6, updated_at = $7
		WHERE id = $8
	`
	patient.UpdatedAt = time.Now()

	res, err := tx.ExecContext(ctx, query,
		patient.FirstName,
		patient.MiddleName,
		patient.LastName,
		patient.BirthDate,
		patient.UserName,
		patient.Age,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFound("patient", nil)
	}
	return nil
}
