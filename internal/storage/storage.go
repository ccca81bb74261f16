package storage

import "errors"

var (
	// ErrWrongType is returned when a key holds a value of a different kind than the operation expects
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrPoisoned is returned when an earlier critical section panicked while holding the lock
	ErrPoisoned = errors.New("storage lock poisoned")
)

// Storage is a common interface for working with key-value storages.
// Every method is a single lock acquisition, so each call is atomic on its own
type Storage interface {
	// Get returns the string stored at key. Missing keys and non-string keys report false
	Get(key string) (string, bool, error)

	// Set stores a string at key, replacing any previous value of any kind
	Set(key, value string) error

	// Delete removes the given keys of any kind and returns how many existed
	Delete(keys ...string) (int64, error)

	// HSet merges fields into the hash at key, creating it if needed.
	// Returns the number of fields applied, ErrWrongType if key holds a non-hash
	HSet(key string, fields []HashField) (int64, error)

	// HGet returns the value of field in the hash at key.
	// Missing keys, missing fields and non-hash keys report false
	HGet(key, field string) (string, bool, error)

	// HGetAll returns all fields of the hash at key ordered by field name.
	// A missing key yields an empty slice, a non-hash key ErrWrongType
	HGetAll(key string) ([]HashField, error)

	// HDel removes fields from the hash at key and returns how many existed.
	// The key is removed once its hash has no fields left
	HDel(key string, fields []string) (int64, error)

	// Len returns the number of keys
	Len() int
}
