// Package fault holds failure kinds shared by every domain package.
package fault

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrCollaboratorUnavailable is returned when a collaborator (catalog, coupon
// directory, address directory, order store) fails for a reason other than a
// business rule. The underlying cause stays reachable through errors.Is/As.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// Unavailable wraps err as ErrCollaboratorUnavailable, annotated with op.
// It returns nil when err is nil.
func Unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCollaboratorUnavailable, err)
}
