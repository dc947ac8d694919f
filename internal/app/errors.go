package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("incorrect email or password")
	ErrUnauthorized      = errors.New("could not validate credentials")
	ErrForbidden         = errors.New("not authorized")

	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrPaperNotFound     = errors.New("paper not found")
	ErrSessionNotFound   = errors.New("session not found")

	ErrMessageEmpty = errors.New("message content is empty")
	ErrFileTooLarge = errors.New("uploaded file exceeds size limit")

	// ErrAIService wraps every provider failure; its text prefixes the provider message.
	ErrAIService = errors.New("AI service error")
)
