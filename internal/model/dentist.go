package model

import (
	"github.com/google/uuid"
)

// Dentist owns an ordered roster of patient summaries. The roster is a
// denormalized read cache over the patients table: patient_name is refreshed
// on every edit, and age is deliberately excluded since it is never
// recomputed after creation.
type Dentist struct {
	Base
	Email        string           `json:"email" db:"email"`
	PasswordHash string           `json:"-" db:"password_hash"`
	FirstName    string           `json:"firstName" db:"first_name"`
	LastName     string           `json:"lastName" db:"last_name"`
	Patients     []PatientSummary `json:"patients" db:"-"`
}

// PatientSummary is the embedded roster entry. Entries are append-only in
// insertion order; patient_name is mutated in place on edit.
type PatientSummary struct {
	DentistID       uuid.UUID `json:"-" db:"dentist_id"`
	PatientID       uuid.UUID `json:"patientId" db:"patient_id"`
	PatientName     string    `json:"patientName" db:"patient_name"`
	PatientClinicID int64     `json:"patientClinicId" db:"patient_clinic_id"`
	Position        int       `json:"-" db:"position"`
}

// FindSummary returns the roster entry with the given clinic id, or nil.
func (d *Dentist) FindSummary(clinicID int64) *PatientSummary {
	for i := range d.Patients {
		if d.Patients[i].PatientClinicID == clinicID {
			return &d.Patients[i]
		}
	}
	return nil
}
