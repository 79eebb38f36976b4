// Package address maintains a customer's shipping addresses and the rule
// that a non-empty address list has exactly one main address.
package address

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// ErrAddressNotFound is returned when an address id is not in the list.
var ErrAddressNotFound = errors.New("address not found")

// ErrInvalidAddress is returned when required address fields are missing.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a Brazilian-style postal address owned by a customer.
type Address struct {
	ID           string
	OwnerID      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	ZipCode      string
	IsMain       bool
}

// Validate checks that every required field is present.
func (a Address) Validate() error {
	for _, f := range []string{a.Street, a.Number, a.Neighborhood, a.City, a.State, a.ZipCode} {
		if f == "" {
			return ErrInvalidAddress
		}
	}
	return nil
}

// Repository stores each owner's address list as a unit.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Address, error)
	// Modify reads the owner's list, passes it to fn and stores fn's result.
	// Concurrent calls for the same owner are serialised, so fn always sees
	// the latest list. An error from fn aborts without writing.
	Modify(ctx context.Context, ownerID string, fn func(list []Address) ([]Address, error)) ([]Address, error)
}

// SetMain returns a copy of list in which exactly the address with id is
// main.
func SetMain(list []Address, id string) ([]Address, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	out := slices.Clone(list)
	for j := range out {
		out[j].IsMain = j == i
	}
	return out, nil
}

// Remove returns a copy of list without the address with id. When the main
// address is removed, the first remaining address is promoted.
func Remove(list []Address, id string) ([]Address, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	wasMain := list[i].IsMain

	out := make([]Address, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)

	if wasMain && len(out) > 0 {
		out[0].IsMain = true
	}
	return Normalize(out), nil
}

// Normalize returns a copy of list with the invariant restored: the first
// main address stays main, and if there is none the first address is
// promoted.
func Normalize(list []Address) []Address {
	out := slices.Clone(list)
	main := slices.IndexFunc(out, func(a Address) bool { return a.IsMain })
	if main < 0 {
		main = 0
	}
	for j := range out {
		out[j].IsMain = j == main
	}
	return out
}

// Main returns the main address of list.
func Main(list []Address) (Address, bool) {
	i := slices.IndexFunc(list, func(a Address) bool { return a.IsMain })
	if i < 0 {
		return Address{}, false
	}
	return list[i], true
}

func indexOf(list []Address, id string) int {
	return slices.IndexFunc(list, func(a Address) bool { return a.ID == id })
}
