package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrEmptyContent       = errors.New("empty content")
	ErrProviderFailure    = errors.New("provider failure")
)
