package domain

import "errors"

var (
	ErrAuthorization      = errors.New("actor not allowed to perform this action")
	ErrInvalidTransition  = errors.New("invalid order transition")
	ErrProductUnavailable = errors.New("product not available")
	ErrSelfOrder          = errors.New("cannot order own product")
	ErrSelfMessage        = errors.New("cannot message yourself")
	ErrDuplicateOrder     = errors.New("open order already exists for this product")
	ErrEmptyText          = errors.New("message text is empty")
	ErrMessageTooLong     = errors.New("message text too long")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)
