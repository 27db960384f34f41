package patient

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/identity"
	"github.com/Dentect/dentist-clinic-backend/pkg/logger"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type fakeDentistRepo struct {
	dentists    map[uuid.UUID]*model.Dentist
	appends     int
	nameUpdates int
}

func newFakeDentistRepo(dentists ...*model.Dentist) *fakeDentistRepo {
	repo := &fakeDentistRepo{dentists: make(map[uuid.UUID]*model.Dentist)}
	for _, d := range dentists {
		repo.dentists[d.ID] = d
	}
	return repo
}

func (f *fakeDentistRepo) Create(ctx context.Context, dentist *model.Dentist) error {
	f.dentists[dentist.ID] = dentist
	return nil
}

func (f *fakeDentistRepo) Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error) {
	d, ok := f.dentists[id]
	if !ok {
		return nil, apperrors.NewNotFound("dentist", nil)
	}
	return d, nil
}

func (f *fakeDentistRepo) GetByEmail(ctx context.Context, email string) (*model.Dentist, error) {
	for _, d := range f.dentists {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFound("dentist", nil)
}

func (f *fakeDentistRepo) AppendSummaryTx(ctx context.Context, tx *sqlx.Tx, summary *model.PatientSummary) error {
	f.appends++
	d := f.dentists[summary.DentistID]
	summary.Position = len(d.Patients)
	d.Patients = append(d.Patients, *summary)
	return nil
}

func (f *fakeDentistRepo) UpdateSummaryNameTx(ctx context.Context, tx *sqlx.Tx, dentistID uuid.UUID, clinicID int64, name string) error {
	f.nameUpdates++
	d := f.dentists[dentistID]
	for i := range d.Patients {
		if d.Patients[i].PatientClinicID == clinicID {
			d.Patients[i].PatientName = name
			return nil
		}
	}
	return apperrors.NewNotFound("patient summary", nil)
}

type patientKey struct {
	dentistID uuid.UUID
	clinicID  int64
}

type fakePatientRepo struct {
	patients map[patientKey]*model.Patient
	creates  int
	updates  int
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[patientKey]*model.Patient)}
}

func (f *fakePatientRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	f.creates++
	copied := *patient
	f.patients[patientKey{patient.DentistID, patient.ClinicID}] = &copied
	return nil
}

func (f *fakePatientRepo) GetByClinicID(ctx context.Context, dentistID uuid.UUID, clinicID int64) (*model.Patient, error) {
	p, ok := f.patients[patientKey{dentistID, clinicID}]
	if !ok {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	f.updates++
	copied := *patient
	f.patients[patientKey{patient.DentistID, patient.ClinicID}] = &copied
	return nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Output: io.Discard,
	})
}

func newTestService(dentists *fakeDentistRepo, patients *fakePatientRepo, outbox *fakeOutboxRepo) Service {
	return NewService(dentists, patients, outbox, &fakeTxRunner{}, testLogger())
}

func newTestDentist() *model.Dentist {
	return &model.Dentist{
		Base:     model.Base{ID: uuid.New()},
		Email:    "drsmith@example.com",
		Patients: []model.PatientSummary{},
	}
}

func TestAddPatient(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	outbox := &fakeOutboxRepo{}
	svc := newTestService(dentists, patients, outbox)

	created, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "A B", created.UserName)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, dentist.ID, created.DentistID)

	birth := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, identity.AgeAt(birth, time.Now()), created.Age)

	// Exactly one patient row and one roster entry with matching fields.
	assert.Equal(t, 1, patients.creates)
	require.Len(t, dentist.Patients, 1)
	summary := dentist.Patients[0]
	assert.Equal(t, created.ID, summary.PatientID)
	assert.Equal(t, "A B", summary.PatientName)
	assert.Equal(t, int64(1), summary.PatientClinicID)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventPatientCreate, outbox.events[0].EventType)
}

func TestAddPatientDuplicateClinicID(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	outbox := &fakeOutboxRepo{}
	svc := newTestService(dentists, patients, outbox)

	_, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	_, err = svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "C",
		LastName:  "D",
		ClinicID:  1,
		BirthDate: "1995-06-15",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
	assert.Equal(t, MsgClinicIDExists, err.(*apperrors.AppError).Message)

	// Conflict is a complete no-op: still one row, one summary, one event.
	assert.Equal(t, 1, patients.creates)
	assert.Len(t, dentist.Patients, 1)
	assert.Len(t, outbox.events, 1)
}

func TestAddPatientValidation(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	svc := newTestService(dentists, patients, &fakeOutboxRepo{})

	tests := []struct {
		name    string
		req     *model.CreatePatientRequest
		message string
	}{
		{
			name:    "missing first name",
			req:     &model.CreatePatientRequest{LastName: "B", ClinicID: 1, BirthDate: "2000-01-01"},
			message: `"firstName" is required`,
		},
		{
			name:    "missing last name",
			req:     &model.CreatePatientRequest{FirstName: "A", ClinicID: 1, BirthDate: "2000-01-01"},
			message: `"lastName" is required`,
		},
		{
			name:    "missing clinic id",
			req:     &model.CreatePatientRequest{FirstName: "A", LastName: "B", BirthDate: "2000-01-01"},
			message: `"clinicId" is required`,
		},
		{
			name:    "malformed birth date",
			req:     &model.CreatePatientRequest{FirstName: "A", LastName: "B", ClinicID: 1, BirthDate: "01/01/2000"},
			message: `"birthDate" must be a valid date`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddPatient(context.Background(), dentist.ID, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
			assert.Equal(t, tt.message, err.(*apperrors.AppError).Message)
		})
	}

	// Validation failures never touch the stores.
	assert.Equal(t, 0, patients.creates)
	assert.Empty(t, dentist.Patients)
}

func TestAddPatientMissingDentist(t *testing.T) {
	svc := newTestService(newFakeDentistRepo(), newFakePatientRepo(), &fakeOutboxRepo{})

	_, err := svc.AddPatient(context.Background(), uuid.New(), &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInternal))
}

func TestGetPatient(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	svc := newTestService(dentists, patients, &fakeOutboxRepo{})

	created, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName:  "Jane",
		MiddleName: "Q",
		LastName:   "Doe",
		ClinicID:   7,
		BirthDate:  "1988-03-20",
	})
	require.NoError(t, err)

	got, err := svc.GetPatient(context.Background(), dentist.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jane Q Doe", got.UserName)
}

func TestGetPatientWrongClinicID(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	svc := newTestService(dentists, newFakePatientRepo(), &fakeOutboxRepo{})

	_, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	_, err = svc.GetPatient(context.Background(), dentist.ID, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
	assert.Equal(t, MsgWrongClinicID, err.(*apperrors.AppError).Message)
}

func TestGetPatientRosterDrift(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	svc := newTestService(dentists, patients, &fakeOutboxRepo{})

	_, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	// Point the roster entry at a different patient than the store holds.
	dentist.Patients[0].PatientID = uuid.New()

	_, err = svc.GetPatient(context.Background(), dentist.ID, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInternal))
}

func TestEditPatient(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	outbox := &fakeOutboxRepo{}
	svc := newTestService(dentists, patients, outbox)

	created, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName:  "Jane",
		MiddleName: "Q",
		LastName:   "Doe",
		ClinicID:   3,
		BirthDate:  "1990-11-02",
	})
	require.NoError(t, err)

	newLast := "X"
	updated, err := svc.EditPatient(context.Background(), dentist.ID, 3, &model.UpdatePatientRequest{
		LastName: &newLast,
	})
	require.NoError(t, err)

	// Unspecified fields are retained, the display name follows the merge,
	// and age stays as derived at creation.
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "Q", updated.MiddleName)
	assert.Equal(t, "X", updated.LastName)
	assert.Equal(t, "Jane Q X", updated.UserName)
	assert.Equal(t, created.BirthDate, updated.BirthDate)
	assert.Equal(t, created.Age, updated.Age)
	assert.Equal(t, created.ID, updated.ID)

	// The roster entry's display name is refreshed in place.
	require.Len(t, dentist.Patients, 1)
	assert.Equal(t, "Jane Q X", dentist.Patients[0].PatientName)
	assert.Equal(t, 1, patients.updates)

	require.Len(t, outbox.events, 2)
	assert.Equal(t, model.EventPatientUpdate, outbox.events[1].EventType)
}

func TestEditPatientWrongClinicID(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	svc := newTestService(dentists, patients, &fakeOutboxRepo{})

	_, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	newLast := "X"
	_, err = svc.EditPatient(context.Background(), dentist.ID, 9, &model.UpdatePatientRequest{
		LastName: &newLast,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
	assert.Equal(t, MsgWrongClinicID, err.(*apperrors.AppError).Message)

	// Denial produces no writes.
	assert.Equal(t, 0, patients.updates)
	assert.Equal(t, "A B", dentist.Patients[0].PatientName)
}

func TestEditPatientBirthDateDoesNotRecomputeAge(t *testing.T) {
	dentist := newTestDentist()
	dentists := newFakeDentistRepo(dentist)
	patients := newFakePatientRepo()
	svc := newTestService(dentists, patients, &fakeOutboxRepo{})

	created, err := svc.AddPatient(context.Background(), dentist.ID, &model.CreatePatientRequest{
		FirstName: "A",
		LastName:  "B",
		ClinicID:  1,
		BirthDate: "2000-01-01",
	})
	require.NoError(t, err)

	newBirth := "1950-01-01"
	updated, err := svc.EditPatient(context.Background(), dentist.ID, 1, &model.UpdatePatientRequest{
		BirthDate: &newBirth,
	})
	require.NoError(t, err)

	assert.Equal(t, 1950, updated.BirthDate.Year())
	assert.Equal(t, created.Age, updated.Age)
}
