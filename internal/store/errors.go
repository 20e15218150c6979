package store

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrCarUnavailable     = errors.New("car is not available")
	ErrNotOwner           = errors.New("reservation belongs to another customer")
	ErrServiceNotOffered  = errors.New("service is not offered at this garage")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersist            = errors.New("persist failed")
)
