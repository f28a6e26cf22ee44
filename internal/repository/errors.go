package repository

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStatusConflict      = errors.New("transaction is not in the expected status")
)
