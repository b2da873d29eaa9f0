package cli

import "errors"

var (
	ErrIDRequired       = errors.New("task ID is required")
	ErrInvalidID        = errors.New("invalid task ID")
	ErrTextRequired     = errors.New("task text is required")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidPriority  = errors.New("invalid priority (want A-Z or -)")
	ErrUnknownFormat    = errors.New("unknown output format")
	ErrConflictingFlags = errors.New("--all and --done cannot be used together")
)

// isUsageError reports whether err means the arguments were malformed.
func isUsageError(err error) bool {
	for _, target := range []error{ErrIDRequired, ErrInvalidID, ErrTextRequired, ErrInvalidPriority} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
