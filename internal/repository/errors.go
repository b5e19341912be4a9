package repository

import "errors"

// ErrEmptyRecord is returned when an append is attempted with no fields.
var ErrEmptyRecord = errors.New("empty record")
