package domain

import (
	"errors"
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"

	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrInvalidProviderType = errors.New("invalid provider type")
	ErrPostNotFound        = errors.New("waste post not found")
)
