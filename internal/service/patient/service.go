package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
	"github.com/Dentect/dentist-clinic-backend/internal/repository"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/identity"
	"github.com/Dentect/dentist-clinic-backend/pkg/logger"
	"github.com/Dentect/dentist-clinic-backend/pkg/validation"
)

// Fixed wire messages for roster violations.
const (
	MsgClinicIDExists = "Patient clinic id already exists."
	MsgWrongClinicID  = "Wrong patient clinic id."
)

type Service interface {
	AddPatient(ctx context.Context, dentistID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, dentistID uuid.UUID, clinicID int64) (*model.Patient, error)
	EditPatient(ctx context.Context, dentistID uuid.UUID, clinicID int64, updates *model.UpdatePatientRequest) (*model.Patient, error)
}

type service struct {
	dentistRepo repository.DentistRepository
	patientRepo repository.PatientRepository
	outboxRepo  repository.OutboxRepository
	tx          repository.TxRunner
	validate    *validator.Validate
	logger      *logger.Logger
}

func NewService(
	dentistRepo repository.DentistRepository,
	patientRepo repository.PatientRepository,
	outboxRepo repository.OutboxRepository,
	tx repository.TxRunner,
	logger *logger.Logger,
) Service {
	return &service{
		dentistRepo: dentistRepo,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		tx:          tx,
		validate:    validation.New(),
		logger:      logger,
	}
}

func (s *service) AddPatient(ctx context.Context, dentistID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewBadRequest(validation.FirstMessage(err), err)
	}

	dentist, err := s.loadDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}

	if dentist.FindSummary(req.ClinicID) != nil {
		return nil, apperrors.NewConflict(MsgClinicIDExists, nil)
	}

	birthDate, err := time.Parse(model.BirthDateLayout, req.BirthDate)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("%q must be a valid date", "birthDate"), err)
	}

	patient := &model.Patient{
		Base: model.Base{
			ID: uuid.New(),
		},
		DentistID:  dentistID,
		ClinicID:   req.ClinicID,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		BirthDate:  birthDate,
		UserName:   identity.GenerateUserName(req.FirstName, req.MiddleName, req.LastName),
		Age:        identity.Age(birthDate),
	}

	// Patient row, roster entry and outbox event commit together; a failure
	// anywhere rolls back all three.
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.patientRepo.CreateTx(ctx, tx, patient); err != nil {
			return err
		}
		if err := s.dentistRepo.AppendSummaryTx(ctx, tx, &model.PatientSummary{
			DentistID:       dentistID,
			PatientID:       patient.ID,
			PatientName:     patient.UserName,
			PatientClinicID: patient.ClinicID,
		}); err != nil {
			return err
		}
		return s.createOutboxEventTx(ctx, tx, model.EventPatientCreate, patient)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add patient: %w", err)
	}

	return patient, nil
}

func (s *service) GetPatient(ctx context.Context, dentistID uuid.UUID, clinicID int64) (*model.Patient, error) {
	dentist, err := s.loadDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}

	summary := dentist.FindSummary(clinicID)
	if summary == nil {
		return nil, apperrors.NewUnauthorized(MsgWrongClinicID, nil)
	}

	patient, err := s.patientRepo.GetByClinicID(ctx, dentistID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient: %w", err)
	}

	// The roster and the patients table must agree on the patient behind a
	// clinic id; a mismatch means the roster cache has drifted.
	if patient.ID != summary.PatientID {
		return nil, apperrors.NewInternal(
			fmt.Errorf("roster entry for clinic id %d points at patient %s, store has %s",
				clinicID, summary.PatientID, patient.ID))
	}

	return patient, nil
}

func (s *service) EditPatient(ctx context.Context, dentistID uuid.UUID, clinicID int64, updates *model.UpdatePatientRequest) (*model.Patient, error) {
	if err := s.validate.Struct(updates); err != nil {
		return nil, apperrors.NewBadRequest(validation.FirstMessage(err), err)
	}

	dentist, err := s.loadDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}

	summary := dentist.FindSummary(clinicID)
	if summary == nil {
		return nil, apperrors.NewUnauthorized(MsgWrongClinicID, nil)
	}

	patient, err := s.patientRepo.GetByClinicID(ctx, dentistID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient: %w", err)
	}
	if patient.ID != summary.PatientID {
		return nil, apperrors.NewInternal(
			fmt.Errorf("roster entry for clinic id %d points at patient %s, store has %s",
				clinicID, summary.PatientID, patient.ID))
	}

	if err := mergeUpdates(patient, updates); err != nil {
		return nil, err
	}

	// Display name follows the merged name fields; age is intentionally left
	// as derived at creation.
	patient.UserName = identity.GenerateUserName(patient.FirstName, patient.MiddleName, patient.LastName)

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.patientRepo.UpdateTx(ctx, tx, patient); err != nil {
			return err
		}
		if err := s.dentistRepo.UpdateSummaryNameTx(ctx, tx, dentistID, clinicID, patient.UserName); err != nil {
			return err
		}
		return s.createOutboxEventTx(ctx, tx, model.EventPatientUpdate, patient)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to edit patient: %w", err)
	}

	return patient, nil
}

// loadDentist treats a missing dentist as a broken precondition: the id came
// from a verified token, so absence is an integrity failure, not a client
// error.
func (s *service) loadDentist(ctx context.Context, dentistID uuid.UUID) (*model.Dentist, error) {
	dentist, err := s.dentistRepo.Get(ctx, dentistID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			s.logger.Error(err, "authenticated dentist missing from store",
				"dentist_id", dentistID.String())
			return nil, apperrors.NewInternal(err)
		}
		return nil, fmt.Errorf("failed to load dentist: %w", err)
	}
	return dentist, nil
}

func mergeUpdates(patient *model.Patient, updates *model.UpdatePatientRequest) error {
	if updates.FirstName != nil {
		patient.FirstName = *updates.FirstName
	}
	if updates.MiddleName != nil {
		patient.MiddleName = *updates.MiddleName
	}
	if updates.LastName != nil {
		patient.LastName = *updates.LastName
	}
	if updates.BirthDate != nil {
		birthDate, err := time.Parse(model.BirthDateLayout, *updates.BirthDate)
		if err != nil {
			return apperrors.NewBadRequest(fmt.Sprintf("%q must be a valid date", "birthDate"), err)
		}
		patient.BirthDate = birthDate
	}
	return nil
}

func (s *service) createOutboxEventTx(ctx context.Context, tx *sqlx.Tx, eventType string, patient *model.Patient) error {
	payload, err := json.Marshal(patient)
	if err != nil {
		return fmt.Errorf("failed to marshal patient for event: %w", err)
	}
	return s.outboxRepo.CreateTx(ctx, tx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	})
}
