package domain

import (
	"context"
	"errors"
)

type RegisterRequest struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
}

type CreditSummary struct {
	Credits    int `json:"credits"`
	MaxCredits int `json:"max_credits"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	UpdateEmail(ctx context.Context, externalID, email string) (*User, error)
	Delete(ctx context.Context, externalID string) error
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Credits(ctx context.Context, externalID string) (CreditSummary, error)
}

var (
	ErrInvalidExternalID = errors.New("invalid_external_id")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrUserNotFound      = errors.New("user_not_found")
	ErrUserExists        = errors.New("user_exists")
)
