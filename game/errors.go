package game

import "errors"

var (
	ErrInvalidTimerLength = errors.New("invalid-timer-length")
	ErrInvalidRounds      = errors.New("invalid-rounds")
	ErrInvalidMode        = errors.New("invalid-game-mode")
	ErrNoCategories       = errors.New("no-categories")
	ErrNoTeams            = errors.New("no-teams")
	ErrInvalidTeamName    = errors.New("invalid-team-name")
)

var (
	ErrSessionNotFound         = errors.New("session-not-found")
	ErrUnknownAction           = errors.New("unknown-action")
	ErrMissingConfig           = errors.New("missing-config")
	ErrTimeExtensionNotAllowed = errors.New("time-extension-not-allowed")
	ErrLobbyClosed             = errors.New("lobby-closed")
)

var (
	ErrSendBufferFull   = errors.New("send-buffer-full")
	ErrSubscriberClosed = errors.New("subscriber-closed")
)
