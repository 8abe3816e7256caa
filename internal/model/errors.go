package model

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserExists              = errors.New("user already exists")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrWithdrawalNotFound      = errors.New("withdrawal not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnauthorized            = errors.New("unauthorized")
)
