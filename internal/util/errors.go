package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrGradeNotFound      = errors.New("grade not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrChoiceNotFound     = errors.New("choice not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDuplicateSession   = errors.New("an open session already exists for this quiz")
	ErrProfileIncomplete  = errors.New("user has no grade assigned")
	ErrQuizNotEligible    = errors.New("quiz is not available for the user's grade")
	ErrAlreadySubmitted   = errors.New("session already submitted")
	ErrInvalidInput       = errors.New("invalid input")
)
