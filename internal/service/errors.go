package service

import "errors"

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrInsightNotFound  = errors.New("paper insight not found")
	ErrSessionForbidden = errors.New("chat session belongs to another user")
)
