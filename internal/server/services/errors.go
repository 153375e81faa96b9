package services

import "errors"

var (
	ErrPhotoTooLarge = errors.New("photo too large")
	ErrInvalidKey    = errors.New("invalid photo key")
)
