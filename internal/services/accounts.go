package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/repository"
)

// OAuthProfile is what the client forwards after a Google sign-in.
type OAuthProfile struct {
	Email     string `json:"email"`
	GoogleID  string `json:"googleId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	DOB       string `json:"dob"`
}

type AccountService struct {
	users UserStore
	log   logrus.FieldLogger
}

func NewAccountService(users UserStore, log logrus.FieldLogger) *AccountService {
	return &AccountService{users: users, log: log}
}

// CreateOrGetOAuthUser returns the account for p.Email, creating it on first
// sight. An existing account is returned untouched with created=false.
func (s *AccountService) CreateOrGetOAuthUser(ctx context.Context, p OAuthProfile) (*models.User, bool, error) {
	const op = "Accounts.CreateOrGetOAuthUser"

	email := strings.TrimSpace(p.Email)
	if email == "" {
		return nil, false, apperr.E(apperr.CodeBadRequest, op, "email is required", nil)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	user := &models.User{
		Email:           email,
		GoogleID:        p.GoogleID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Gender:          p.Gender,
		DOB:             p.DOB,
		EmailVerified:   true,
		TotalJobsPosted: 0,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent sign-in for the same email.
		existing, err = s.users.FindByEmail(ctx, email)
		if err == nil && existing == nil {
			err = errors.New("duplicate email but no user found")
		}
		if err != nil {
			return nil, false, apperr.E(apperr.CodeInternal, op, "failed to create user", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, apperr.E(apperr.CodeInternal, op, "failed to create user", err)
	}

	s.log.WithFields(logrus.Fields{"op": op, "email": email}).Info("user created")
	return user, true, nil
}

// SignUpWithPassword creates an unverified account with a bcrypt-hashed
// password. An email that is already registered yields CodeConflict.
func (s *AccountService) SignUpWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	const op = "Accounts.SignUpWithPassword"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.E(apperr.CodeBadRequest, op, "email and password are required", nil)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
	}
	if existing != nil {
		return nil, apperr.E(apperr.CodeConflict, op, "User already exists", nil)
	}

	hash, err := hashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.E(apperr.CodeBadRequest, op, "password is too long", err)
		}
		return nil, apperr.E(apperr.CodeInternal, op, "failed to hash password", err)
	}

	user := &models.User{
		Email:           email,
		PasswordHash:    hash,
		EmailVerified:   false,
		TotalJobsPosted: 0,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.CodeConflict, op, "User already exists", err)
		}
		return nil, apperr.E(apperr.CodeInternal, op, "failed to create user", err)
	}

	s.log.WithFields(logrus.Fields{"op": op, "email": email}).Info("user signed up")
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, email string) (*models.User, error) {
	const op = "Accounts.GetUser"

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperr.E(apperr.CodeNotFound, op, "user not found", nil)
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
