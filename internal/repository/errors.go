package repository

import "errors"

var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicate     = errors.New("duplicate key")
	ErrQuotaExceeded = errors.New("job quota exceeded")
)
