package auth

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
	pkgauth "github.com/Dentect/dentist-clinic-backend/pkg/auth"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/logger"
	"github.com/Dentect/dentist-clinic-backend/pkg/security"
)

type fakeDentistRepo struct {
	dentists map[uuid.UUID]*model.Dentist
}

func newFakeDentistRepo() *fakeDentistRepo {
	return &fakeDentistRepo{dentists: make(map[uuid.UUID]*model.Dentist)}
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
	return nil
}

func (f *fakeDentistRepo) UpdateSummaryNameTx(ctx context.Context, tx *sqlx.Tx, dentistID uuid.UUID, clinicID int64, name string) error {
	return nil
}

func newTestService(repo *fakeDentistRepo) Service {
	return NewService(
		repo,
		pkgauth.NewJWTService("test-secret", time.Hour),
		security.NewBcryptHasher(4),
		nil,
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
	)
}

func registerRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:     "drsmith@example.com",
		Password:  "s3cret-pass",
		FirstName: "Sam",
		LastName:  "Smith",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeDentistRepo()
	svc := newTestService(repo)

	dentist, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dentist.ID)
	assert.NotEmpty(t, dentist.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", dentist.PasswordHash)
	assert.Empty(t, dentist.Patients)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "drsmith@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	claims, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dentist.ID, claims.DentistID)
	assert.Equal(t, dentist.Email, claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeDentistRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeDentistRepo())

	req := registerRequest()
	req.Email = "not-an-email"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
	assert.Equal(t, `"email" must be a valid email`, err.(*apperrors.AppError).Message)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeDentistRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "drsmith@example.com",
		Password: "wrong-pass",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeDentistRepo())

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeDentistRepo())

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}
