package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSafeNotFound reports a balance request for a safe that does not exist.
var ErrSafeNotFound = errors.New("safe not found")

// PartialComputationError reports an aggregate balance that could not be
// completed. The whole aggregation fails rather than silently omitting the
// safe from the total.
type PartialComputationError struct {
	SafeID uuid.UUID
	Err    error
}

func (e *PartialComputationError) Error() string {
	return fmt.Sprintf("balance for safe %s could not be computed: %v", e.SafeID, e.Err)
}

func (e *PartialComputationError) Unwrap() error {
	return e.Err
}
