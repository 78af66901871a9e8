package domain

import "errors"

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrHubStopped    = errors.New("hub stopped")
)
