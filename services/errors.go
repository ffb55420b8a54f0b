package services

import "errors"

var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrPlayerEmailConflict    = errors.New("email address is already in use")
	ErrPlayerNicknameConflict = errors.New("nickname is already in use")

	ErrForbiddenOperation = errors.New("operation not allowed for the current player")

	ErrPlayerNotFound      = errors.New("player not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrAttestationNotFound = errors.New("attestation not found")

	ErrCourseHolesInvalid    = errors.New("course holes are invalid")
	ErrRoundAlreadyCompleted = errors.New("round is already completed")
	ErrRoundNotCompleted     = errors.New("round is not completed")
	ErrRoundHasNoScores      = errors.New("round has no hole scores")
	ErrHoleNotOnCourse       = errors.New("hole is not on the course")
	ErrRoundStartInFuture    = errors.New("round start time is in the future")

	ErrScorecardStorageDisabled = errors.New("scorecard storage is not configured")
	ErrUnsupportedFileType      = errors.New("unsupported file type")

	ErrConcurrentUpdate = errors.New("concurrent update, please retry")
)
