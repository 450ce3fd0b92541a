package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Both match ErrNotFound.
var (
	ErrCategoryNotFound = fmt.Errorf("category not found: %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product not found: %w", ErrNotFound)
)
