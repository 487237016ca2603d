package renderer

import "errors"

var (
	ErrNoScene        = errors.New("renderer: no scene defined")
	ErrInvalidSize    = errors.New("renderer: image size must be positive")
	ErrAlreadyRunning = errors.New("renderer: render already in progress")
	ErrStopped        = errors.New("renderer: stopped before completion")
)
