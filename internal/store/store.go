// Package store is the durability service the session layer persists
// identity and room memory through: a string key-value contract with
// interchangeable backends that survive process restarts.
package store

import "context"

// Store is the key-value durability contract. Get reports presence
// explicitly so an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
