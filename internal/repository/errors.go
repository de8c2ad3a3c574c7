package repository

import "errors"

// Repository errors
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)
