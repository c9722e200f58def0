package domain

import "errors"

// Hard errors. Any of these fails the whole batch before (or at) persistence;
// zero rows from the batch are ever visible to readers.
var (
	ErrInvalidDate   = errors.New("build has an invalid date")
	ErrTeamCount     = errors.New("game must have exactly two teams")
	ErrTooManyBuilds = errors.New("team has more than five builds")

	// ErrDuplicateBuild reports a (match_id, game_i, player1) tuple that is
	// already stored. Kept distinct from validation errors so the caller can
	// decide whether a retry with de-duplicated input makes sense.
	ErrDuplicateBuild = errors.New("build is already in the database")
)

// IsValidation reports whether err is one of the batch-rejecting input
// errors, as opposed to a duplicate or an infrastructure failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrTeamCount) ||
		errors.Is(err, ErrTooManyBuilds)
}
