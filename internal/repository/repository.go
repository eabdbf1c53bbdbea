package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) inside this directory.

import "errors"

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned by conditional updates whose precondition no longer holds.
	ErrConflict = errors.New("record changed concurrently")
)
