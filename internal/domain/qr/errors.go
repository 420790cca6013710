package qr

import "errors"

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")
	ErrInvalidFormat    = errors.New("invalid token format")
	ErrInvalidPurpose   = errors.New("invalid token purpose")
	ErrInvalidTTL       = errors.New("ttl must be greater than zero")
)
