package model

import (
	"time"

	"github.com/google/uuid"
)

// BirthDateLayout is the wire format for birth dates.
const BirthDateLayout = "2006-01-02"

type Patient struct {
	Base
	DentistID  uuid.UUID `json:"dentistId" db:"dentist_id"`
	ClinicID   int64     `json:"clinicId" db:"clinic_id"`
	FirstName  string    `json:"firstName" db:"first_name"`
	MiddleName string    `json:"middleName,omitempty" db:"middle_name"`
	LastName   string    `json:"lastName" db:"last_name"`
	BirthDate  time.Time `json:"birthDate" db:"birth_date"`
	UserName   string    `json:"userName" db:"user_name"`
	Age        int       `json:"age" db:"age"`
}

type CreatePatientRequest struct {
	FirstName  string `json:"firstName" validate:"required"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName" validate:"required"`
	ClinicID   int64  `json:"clinicId" validate:"required,gt=0"`
	BirthDate  string `json:"birthDate" validate:"required,datetime=2006-01-02"`
}

// UpdatePatientRequest is a typed partial update: nil fields are retained
// from the stored document, supplied fields overwrite. Clinic id, id and age
// are not editable.
type UpdatePatientRequest struct {
	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
	BirthDate  *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}
