// Package auth holds the API key model used to authenticate registers and
// back-office clients.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no active key matches a lookup.
var ErrNotFound = errors.New("api key not found")

// Key is one issued API key. Hash is the hex HMAC-SHA256 of the key
// material; the plain key is never stored.
type Key struct {
	ID     string
	Hash   string
	Label  string
	Scopes []string
}

// Repository provides lookup of active API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}
