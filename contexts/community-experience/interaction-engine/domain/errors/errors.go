package errors

import "errors"

var (
	ErrInvalidItem      = errors.New("invalid item")
	ErrInvalidGroup     = errors.New("invalid group")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDirection = errors.New("invalid vote direction")
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrInvalidActor     = errors.New("actor id is required")
	ErrInvalidScope     = errors.New("invalid item scope")
	ErrInvalidCatalog   = errors.New("invalid catalog")
	ErrConflict         = errors.New("interaction conflict")
)
