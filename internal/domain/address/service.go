package address

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenis/storefront/internal/domain/fault"
)

// Service is the address directory. Every mutation goes through SetMain,
// Remove or Normalize inside Repository.Modify.
type Service struct {
	repo  Repository
	newID func() string
}

// NewService creates an address directory backed by repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		newID: func() string { return uuid.New().String() },
	}
}

// List returns the owner's addresses.
func (s *Service) List(ctx context.Context, ownerID string) ([]Address, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fault.Unavailable(err, "list addresses")
	}
	return list, nil
}

// Get returns one of the owner's addresses.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Address, error) {
	list, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	return &list[i], nil
}

// Add stores a new address for the owner. The first address of an owner
// becomes main; a new address flagged main demotes the others.
func (s *Service) Add(ctx context.Context, ownerID string, a Address) (*Address, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.ID = s.newID()
	a.OwnerID = ownerID

	list, err := s.modify(ctx, ownerID, func(list []Address) ([]Address, error) {
		list = append(list, a)
		if a.IsMain {
			return SetMain(list, a.ID)
		}
		return Normalize(list), nil
	})
	if err != nil {
		return nil, err
	}
	return find(list, a.ID)
}

// Update replaces the fields of an existing address. Setting IsMain demotes
// the siblings; clearing it on the current main address is ignored, since
// the list would otherwise have no main address.
func (s *Service) Update(ctx context.Context, ownerID string, a Address) (*Address, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.OwnerID = ownerID
	wantMain := a.IsMain

	list, err := s.modify(ctx, ownerID, func(list []Address) ([]Address, error) {
		i := indexOf(list, a.ID)
		if i < 0 {
			return nil, ErrAddressNotFound
		}
		upd := a
		upd.IsMain = list[i].IsMain
		list[i] = upd
		if wantMain {
			return SetMain(list, a.ID)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return find(list, a.ID)
}

// SetMain makes the address with id the owner's main address.
func (s *Service) SetMain(ctx context.Context, ownerID, id string) ([]Address, error) {
	return s.modify(ctx, ownerID, func(list []Address) ([]Address, error) {
		return SetMain(list, id)
	})
}

// Remove deletes the address with id, promoting another when it was main.
func (s *Service) Remove(ctx context.Context, ownerID, id string) ([]Address, error) {
	return s.modify(ctx, ownerID, func(list []Address) ([]Address, error) {
		return Remove(list, id)
	})
}

// modify runs fn under the repository's per-owner serialisation. Errors
// from fn are returned as is; storage errors become fault errors.
func (s *Service) modify(ctx context.Context, ownerID string, fn func([]Address) ([]Address, error)) ([]Address, error) {
	var fnErr error
	list, err := s.repo.Modify(ctx, ownerID, func(list []Address) ([]Address, error) {
		out, err := fn(list)
		fnErr = err
		return out, err
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, fault.Unavailable(err, "save addresses")
	}
	return list, nil
}

func find(list []Address, id string) (*Address, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	return &list[i], nil
}
