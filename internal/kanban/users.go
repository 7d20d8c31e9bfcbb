package kanban

import (
	"context"
	"fmt"
	"strings"

	"kanmind/internal/auth"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

type RegisterInput struct {
	Fullname         string
	Email            string
	Password         string
	RepeatedPassword string
}

const (
	msgEmailExists      = "Email already exists"
	msgPasswordMismatch = "passwords dont match"
	msgBadCredentials   = "Invalid email or password."
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Every check runs before anything is
// persisted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := NormalizeEmail(in.Email)

	v := &errors.ValidationError{}
	if fullname == "" {
		v.Add("fullname", msgBlank)
	}
	if email == "" {
		v.Add("email", msgRequired)
	}
	if in.Password == "" {
		v.Add("password", msgRequired)
	}
	if in.RepeatedPassword == "" {
		v.Add("repeated_password", msgRequired)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if in.Password != in.RepeatedPassword {
		return nil, errors.NewValidationError("repeated_password", msgPasswordMismatch)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, errors.NewValidationError("email", msgEmailExists)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: email, Fullname: fullname, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			return nil, errors.NewValidationError("email", msgEmailExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.NewValidationError(errors.NonFieldKey, `Must include "email" and "password".`)
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, errors.NewValidationError(errors.NonFieldKey, msgBadCredentials))
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, errors.NewValidationError(errors.NonFieldKey, msgBadCredentials))
	}
	return user, nil
}

// CurrentUser resolves the actor carried by a verified token.
func (s *Service) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrUnauthorized
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return user, nil
}

// LookupEmail finds the account registered under email, used by clients
// to resolve members before adding them to a board.
func (s *Service) LookupEmail(ctx context.Context, actor, email string) (*models.User, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.NewValidationError("email", msgRequired)
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return user, nil
}
