package party

import "errors"

var (
	ErrSubjectNotFound     = errors.New("subject not found")
	ErrInvalidSubjectType  = errors.New("invalid subject type")
	ErrCodeGenerationRetry = errors.New("could not generate a unique code")
)
