package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotInRoom          = errors.New("player is not in a room")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNotHost            = errors.New("player is not the host")
	ErrInvalidSettings    = errors.New("invalid room settings")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique room code")
	ErrSessionReplaced    = errors.New("player was claimed by another connection")

	// Trivia errors
	ErrTriviaInProgress   = errors.New("trivia is already in progress")
	ErrInvalidTriviaState = errors.New("invalid trivia state for this action")
	ErrQuestionMismatch   = errors.New("answer is not for the current question")
	ErrAlreadyAnswered    = errors.New("player has already answered this question")
	ErrNotScoredPlayer    = errors.New("spectators and TV devices cannot answer")

	// Question source errors
	ErrUpstreamUnavailable = errors.New("question provider unavailable")
	ErrNoQuestions         = errors.New("no questions available")

	// Command errors
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPayload = errors.New("invalid command payload")
)
