package executor

import "errors"

var (
	ErrRegistryFull   = errors.New("callback registry full")
	ErrHandleNotFound = errors.New("callback handle not found")
	ErrNotInitialized = errors.New("executor not set up")
	ErrAlreadySetup   = errors.New("executor already set up")
)
