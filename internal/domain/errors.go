package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrMarketResolved      = errors.New("market already resolved")
	ErrAlreadyResolved     = errors.New("market resolution already finalized")
	ErrConflict            = errors.New("concurrent modification detected")
	ErrUnauthorized        = errors.New("unauthorized")
)
