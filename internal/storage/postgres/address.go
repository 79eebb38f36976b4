package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenis/storefront/internal/domain/address"
)

const (
	listAddressesSQL = `SELECT id, owner_id, street, number, complement, neighborhood,
		city, state, zip_code, is_main
		FROM addresses WHERE owner_id = $1 ORDER BY position`

	lockOwnerSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	deleteAddressesSQL = `DELETE FROM addresses WHERE owner_id = $1`

	insertAddressSQL = `INSERT INTO addresses (id, owner_id, position, street, number, complement,
		neighborhood, city, state, zip_code, is_main)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// ListByOwner returns the owner's addresses in insertion order.
func (r *AddressRepository) ListByOwner(ctx context.Context, ownerID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", ownerID, err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Modify reads, transforms and rewrites the owner's addresses in one
// transaction. An advisory lock on the owner is taken before the read, so
// concurrent calls for the same owner run one after another.
func (r *AddressRepository) Modify(
	ctx context.Context,
	ownerID string,
	fn func(list []address.Address) ([]address.Address, error),
) ([]address.Address, error) {
	var out []address.Address
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockOwnerSQL, ownerID); err != nil {
			return fmt.Errorf("locking owner: %w", err)
		}
		rows, err := tx.Query(ctx, listAddressesSQL, ownerID)
		if err != nil {
			return fmt.Errorf("reading addresses: %w", err)
		}
		current, err := pgx.CollectRows(rows, scanAddress)
		if err != nil {
			return fmt.Errorf("reading addresses: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, deleteAddressesSQL, ownerID); err != nil {
			return fmt.Errorf("clearing addresses: %w", err)
		}
		batch := &pgx.Batch{}
		for i, a := range next {
			batch.Queue(insertAddressSQL,
				a.ID, ownerID, i, a.Street, a.Number, a.Complement,
				a.Neighborhood, a.City, a.State, a.ZipCode, a.IsMain,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting addresses: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("modifying addresses of %q: %w", ownerID, err)
	}
	return out, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Street, &a.Number, &a.Complement, &a.Neighborhood,
		&a.City, &a.State, &a.ZipCode, &a.IsMain,
	)
	return a, err
}
