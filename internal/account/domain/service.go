package domain

import (
	"context"
	"errors"
)

type GetAccountRequest struct {
	ID string
}

type Service interface {
	GetByID(context.Context, GetAccountRequest) (UserAccount, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrAccountNotFound = errors.New("account_not_found")
)
