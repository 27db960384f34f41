package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dentect/dentist-clinic-backend/internal/email"
	"github.com/Dentect/dentist-clinic-backend/internal/model"
	"github.com/Dentect/dentist-clinic-backend/internal/repository"
	pkgauth "github.com/Dentect/dentist-clinic-backend/pkg/auth"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/logger"
	"github.com/Dentect/dentist-clinic-backend/pkg/security"
	"github.com/Dentect/dentist-clinic-backend/pkg/validation"
)

type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Dentist, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error)
}

type service struct {
	dentistRepo repository.DentistRepository
	jwtSvc      pkgauth.JWTService
	hasher      security.PasswordHasher
	emailSvc    email.Service
	logger      *logger.Logger
}

func NewService(
	dentistRepo repository.DentistRepository,
	jwtSvc pkgauth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	logger *logger.Logger,
) Service {
	return &service{
		dentistRepo: dentistRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		emailSvc:    emailSvc,
		logger:      logger,
	}
}

func (s *service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Dentist, error) {
	if err := validation.New().Struct(req); err != nil {
		return nil, apperrors.NewBadRequest(validation.FirstMessage(err), err)
	}

	if existing, _ := s.dentistRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.NewConflict("Email already registered.", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewBadRequest("password does not meet requirements", err)
	}

	dentist := &model.Dentist{
		Base: model.Base{
			ID: uuid.New(),
		},
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Patients:     []model.PatientSummary{},
	}

	if err := s.dentistRepo.Create(ctx, dentist); err != nil {
		return nil, fmt.Errorf("failed to create dentist: %w", err)
	}

	// Welcome mail failures never fail registration.
	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, dentist.Email, dentist.FirstName); err != nil {
			s.logger.Error(err, "failed to send welcome email", "email", dentist.Email)
		}
	}

	return dentist, nil
}

func (s *service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	if err := validation.New().Struct(req); err != nil {
		return nil, apperrors.NewBadRequest(validation.FirstMessage(err), err)
	}

	dentist, err := s.dentistRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Invalid credentials.", err)
	}

	if err := s.hasher.Compare(dentist.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NewUnauthorized("Invalid credentials.", err)
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(dentist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{AccessToken: accessToken}, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	rawID, ok := claims["dentist_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	dentistID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid dentist ID in token")
	}

	email, _ := claims["email"].(string)

	return &model.TokenClaims{
		DentistID: dentistID,
		Email:     email,
	}, nil
}
