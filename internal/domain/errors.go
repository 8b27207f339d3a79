package domain

import "errors"

// Error is a sentinel error value comparable with errors.Is.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidRow         Error = "row must be between 0 and 6"
	ErrInvalidSide        Error = "side must be L or R"
	ErrRowFull            Error = "row is full"
	ErrWrongTurn          Error = "not your turn"
	ErrGameNotActive      Error = "game is not active"
	ErrGameNotFound       Error = "game not found"
	ErrSlotAlreadyClaimed Error = "player slot is already claimed"
	ErrSlotClaimRejected  Error = "player slot cannot be claimed"
	ErrConcurrencyTimeout Error = "game is busy, try again"
)

var errorCodes = map[Error]string{
	ErrInvalidRow:         "invalid_row",
	ErrInvalidSide:        "invalid_side",
	ErrRowFull:            "row_full",
	ErrWrongTurn:          "wrong_turn",
	ErrGameNotActive:      "game_not_active",
	ErrGameNotFound:       "game_not_found",
	ErrSlotAlreadyClaimed: "slot_already_claimed",
	ErrSlotClaimRejected:  "slot_claim_rejected",
	ErrConcurrencyTimeout: "concurrency_timeout",
}

// Code maps a sentinel to its machine-readable wire code.
func Code(err error) string {
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "internal_error"
}

// Retryable reports whether the caller may safely retry the same request.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyTimeout)
}
