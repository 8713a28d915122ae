package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
	"hospital-appointments/pkg/logger"
	"hospital-appointments/pkg/utils"
)

// AuthService is the identity store: hospital and patient accounts and their sessions
type AuthService struct {
	hospitalRepo *repository.HospitalRepository
	patientRepo  *repository.PatientRepository
	sessionRepo  *repository.SessionRepository
	tokens       *utils.TokenManager
	audit        auditor
	log          *logger.Logger

	hashPassword func(string) (string, error)
}

func NewAuthService(
	hospitalRepo *repository.HospitalRepository,
	patientRepo *repository.PatientRepository,
	sessionRepo *repository.SessionRepository,
	auditRepo *repository.AuditRepository,
	tokens *utils.TokenManager,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		hospitalRepo: hospitalRepo,
		patientRepo:  patientRepo,
		sessionRepo:  sessionRepo,
		tokens:       tokens,
		audit:        auditor{repo: auditRepo, log: log},
		log:          log,
		hashPassword: utils.HashPassword,
	}
}

// LoginResponse is returned by every successful login
type LoginResponse struct {
	AccessToken  string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    int64            `json:"expiresIn"`
	Hospital     *models.Hospital `json:"hospital,omitempty"`
	Patient      *models.Patient  `json:"patient,omitempty"`
}

// RegisterHospitalInput carries the fields of a new tenant
type RegisterHospitalInput struct {
	HospitalID string
	Email      string
	Password   string
	Address    string
}

// RegisterHospital creates a tenant account
func (s *AuthService) RegisterHospital(in RegisterHospitalInput) (*models.Hospital, error) {
	in.HospitalID = strings.TrimSpace(in.HospitalID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	if in.HospitalID == "" || in.Email == "" || in.Password == "" || in.Address == "" {
		return nil, apperr.Validation("hospitalId, email, password and address are required")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return nil, apperr.Validation("email is not a valid address")
	}

	exists, err := s.hospitalRepo.ExistsByCodeOrEmail(in.HospitalID, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check hospital uniqueness: %w", err)
	}
	if exists {
		return nil, apperr.New(apperr.KindDuplicateKey, "hospital ID or email already exists")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hospital := &models.Hospital{
		HospitalID:   in.HospitalID,
		Email:        in.Email,
		PasswordHash: hash,
		Address:      in.Address,
	}
	// A concurrent registration can still win the unique index; that surfaces as DuplicateKey
	if err := s.hospitalRepo.CreateHospital(hospital); err != nil {
		return nil, err
	}

	s.audit.record(HospitalActor(hospital.ID, hospital.HospitalID), hospital.HospitalID, "hospital_register", "Hospital %s registered", hospital.HospitalID)
	return hospital, nil
}

// LoginHospital authenticates a tenant administrator
func (s *AuthService) LoginHospital(hospitalID, password string) (*LoginResponse, error) {
	if strings.TrimSpace(hospitalID) == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("ID and password cannot be empty")
	}

	hospital, err := s.hospitalRepo.GetHospitalByCode(strings.TrimSpace(hospitalID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if !utils.ComparePassword(hospital.PasswordHash, password) {
		return nil, apperr.ErrUnauthorized
	}

	access, refresh, err := s.issueSession(utils.SubjectHospital, hospital.ID, hospital.HospitalID)
	if err != nil {
		return nil, err
	}

	s.audit.record(HospitalActor(hospital.ID, hospital.HospitalID), hospital.HospitalID, "hospital_login", "Hospital %s logged in", hospital.HospitalID)
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.expiresIn(), Hospital: hospital}, nil
}

// GetHospital returns the profile of the authenticated hospital
func (s *AuthService) GetHospital(internalID string) (*models.Hospital, error) {
	return s.hospitalRepo.GetHospitalByID(internalID)
}

// SignupPatientInput carries the fields of a new patient account
type SignupPatientInput struct {
	FullName    string
	Email       string
	Password    string
	PhoneNumber string
	DateOfBirth *time.Time
}

// SignupPatient creates a patient account and signs it in
func (s *AuthService) SignupPatient(in SignupPatientInput) (*LoginResponse, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("fullName, email and password are required")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return nil, apperr.Validation("email is not a valid address")
	}
	if len(in.Password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	patient := &models.Patient{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		DateOfBirth:  in.DateOfBirth,
	}
	if err := s.patientRepo.CreatePatient(patient); err != nil {
		return nil, err
	}

	access, refresh, err := s.issueSession(utils.SubjectPatient, patient.ID, "")
	if err != nil {
		return nil, err
	}

	s.audit.record(PatientActor(patient.ID), "", "patient_signup", "Patient %s signed up", patient.Email)
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.expiresIn(), Patient: patient}, nil
}

// LoginPatient authenticates a patient by email
func (s *AuthService) LoginPatient(email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password cannot be empty")
	}

	patient, err := s.patientRepo.GetPatientByEmail(email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if !utils.ComparePassword(patient.PasswordHash, password) {
		return nil, apperr.ErrUnauthorized
	}

	access, refresh, err := s.issueSession(utils.SubjectPatient, patient.ID, "")
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.expiresIn(), Patient: patient}, nil
}

// GetPatient returns the profile of the authenticated patient
func (s *AuthService) GetPatient(id string) (*models.Patient, error) {
	return s.patientRepo.GetPatientByID(id)
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	token, err := s.sessionRepo.FindRefreshTokenByHash(utils.HashRefreshToken(refreshToken))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, "invalid or revoked refresh token", err)
	}
	if time.Now().After(token.ExpiresAt) {
		return "", apperr.New(apperr.KindUnauthorized, "refresh token expired")
	}

	hospitalCode := ""
	if token.SubjectType == utils.SubjectHospital {
		hospital, err := s.hospitalRepo.GetHospitalByID(token.SubjectID)
		if err != nil {
			return "", apperr.Wrap(apperr.KindUnauthorized, "session owner no longer exists", err)
		}
		hospitalCode = hospital.HospitalID
	}

	access, err := s.tokens.GenerateAccessToken(token.SubjectType, token.SubjectID, hospitalCode)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return access, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(refreshToken string) error {
	if err := s.sessionRepo.RevokeRefreshTokenByHash(utils.HashRefreshToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// expiresIn is the access token lifetime in seconds
func (s *AuthService) expiresIn() int64 {
	return int64(s.tokens.AccessTokenExpiry().Seconds())
}

func (s *AuthService) issueSession(subjectType, internalID, hospitalID string) (string, string, error) {
	access, err := s.tokens.GenerateAccessToken(subjectType, internalID, hospitalID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh := s.tokens.GenerateRefreshToken()
	record := &models.RefreshToken{
		SubjectType: subjectType,
		SubjectID:   internalID,
		TokenHash:   utils.HashRefreshToken(refresh),
		ExpiresAt:   time.Now().Add(s.tokens.RefreshTokenExpiry()),
	}
	if err := s.sessionRepo.CreateRefreshToken(record); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return access, refresh, nil
}
