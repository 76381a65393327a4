package services

import (
	"errors"

	"github.com/jakechorley/youth-roster-sync/pkg/utils"
)

// Error kinds of a sync run. ErrCredential and ErrValidation abort the run,
// the rest are counted against a single row.
var (
	ErrCredential = utils.ErrCredential
	ErrValidation = errors.New("spreadsheet validation failed")
	ErrFetch      = errors.New("media fetch failed")
	ErrUpload     = errors.New("upload failed")
	ErrConversion = errors.New("row conversion failed")
)

// Errors of the app document operations
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
