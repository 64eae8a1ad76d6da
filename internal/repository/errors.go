package repository

import "errors"

// Store-level errors shared by the SQL repositories and the MongoDB store
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("duplicate record")
	ErrAlreadyAttended    = errors.New("subject already attended today")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)
