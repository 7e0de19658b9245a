package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/breakhq/break-pos/internal/domain/auth"
)

const findKeyByHashSQL = `SELECT id, key_hash, label, scopes
	FROM api_keys
	WHERE key_hash = $1 AND active = TRUE`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash. Revoked
// keys are treated as missing.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Key, error) {
	var k auth.Key
	err := r.pool.QueryRow(ctx, findKeyByHashSQL, hash).Scan(&k.ID, &k.Hash, &k.Label, &k.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &k, nil
}
