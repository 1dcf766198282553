package domain

import "errors"

var (
	// ErrNoQuestions is returned when the question source yields nothing;
	// a quiz must never start with an empty question list.
	ErrNoQuestions = errors.New("no questions available")
	// ErrQuizInProgress is returned when a start request races an unfinished load.
	ErrQuizInProgress = errors.New("quiz load already in progress")
	// ErrInvalidCredentials is returned for a bad username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when signing up with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrAccountNotFound indicates a looked-up account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrBankNotFound indicates no stored question bank for a subject/difficulty.
	ErrBankNotFound = errors.New("question bank not found")
)
