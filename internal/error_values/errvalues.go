package errorvalues

import "errors"

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrHabitIDRequired = errors.New("habit id is required")
	ErrUserNotFound    = errors.New("user doesn't exists")
	ErrInvalidToken    = errors.New("invalid token")

	ErrValidation    = errors.New("validation error")
	ErrHabitNotFound = errors.New("habit doesn't exist")
	ErrWrongOwner    = errors.New("habit belongs to another user")

	ErrAlreadyCompletedToday = errors.New("habit already completed today")
	ErrSyncFailed            = errors.New("couldn't save changes, local state restored")
)
