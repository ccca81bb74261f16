package storage

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var _ Storage = (*Keyspace)(nil)

// Keyspace is a thread-safe key-value storage holding strings and hashes.
// Reads take the read lock, writes the write lock, each for exactly one call
type Keyspace struct {
	data     map[string]Entity
	mu       sync.RWMutex
	poisoned atomic.Bool
}

// NewKeyspace creates an empty Keyspace. One instance is shared by all connections
func NewKeyspace() *Keyspace {
	return &Keyspace{
		data: make(map[string]Entity),
	}
}

// read runs fn under the read lock
func (k *Keyspace) read(fn func()) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.guard(fn)
}

// write runs fn under the write lock
func (k *Keyspace) write(fn func()) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.guard(fn)
}

// guard refuses to run on a poisoned keyspace and poisons it if fn panics.
// The panic never leaves the keyspace, the lock is released by the caller's defer
func (k *Keyspace) guard(fn func()) (err error) {
	if k.poisoned.Load() {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			k.poisoned.Store(true)
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()

	fn()
	return nil
}

// Poisoned reports whether a critical section has panicked
func (k *Keyspace) Poisoned() bool {
	return k.poisoned.Load()
}

// ClearPoison makes the keyspace usable again after a panic
func (k *Keyspace) ClearPoison() {
	k.poisoned.Store(false)
}

// Get returns the value and true if the key holds a string. Otherwise, "", false
func (k *Keyspace) Get(key string) (val string, ok bool, err error) {
	err = k.read(func() {
		e, found := k.data[key]
		if found && e.Type == TypeString {
			val, ok = e.String, true
		}
	})
	return val, ok, err
}

// Set writes a string, overwriting a value of any type
func (k *Keyspace) Set(key, value string) error {
	return k.write(func() {
		k.data[key] = Entity{Type: TypeString, String: value}
	})
}

// Delete deletes the keys. Returns how many of them existed
func (k *Keyspace) Delete(keys ...string) (deleted int64, err error) {
	err = k.write(func() {
		for _, key := range keys {
			if _, ok := k.data[key]; ok {
				delete(k.data, key)
				deleted++
			}
		}
	})
	return deleted, err
}

// HSet sets the specified fields to their respective values in the hash stored at key
func (k *Keyspace) HSet(key string, fields []HashField) (applied int64, err error) {
	var wrongType bool

	err = k.write(func() {
		e, ok := k.data[key]
		if ok && e.Type != TypeHash {
			wrongType = true
			return
		}

		// an empty hash is never stored
		if len(fields) == 0 {
			return
		}

		if !ok {
			e = Entity{Type: TypeHash, Hash: NewHash()}
			k.data[key] = e
		}

		for _, f := range fields {
			e.Hash.Set(f.Field, f.Value)
			applied++
		}
	})

	if err == nil && wrongType {
		err = ErrWrongType
	}
	return applied, err
}

// HGet returns the value associated with field in the hash stored at key
func (k *Keyspace) HGet(key, field string) (val string, ok bool, err error) {
	err = k.read(func() {
		e, found := k.data[key]
		if !found || e.Type != TypeHash {
			return
		}
		val, ok = e.Hash.Get(field)
	})
	return val, ok, err
}

// HGetAll returns all fields and values of the hash stored at key
func (k *Keyspace) HGetAll(key string) (fields []HashField, err error) {
	var wrongType bool

	err = k.read(func() {
		e, found := k.data[key]
		switch {
		case !found:
			fields = []HashField{}
		case e.Type != TypeHash:
			wrongType = true
		default:
			fields = e.Hash.Fields()
		}
	})

	if err == nil && wrongType {
		err = ErrWrongType
	}
	return fields, err
}

// HDel removes fields from the hash stored at key, dropping the key once the hash is empty
func (k *Keyspace) HDel(key string, fields []string) (deleted int64, err error) {
	var wrongType bool

	err = k.write(func() {
		e, found := k.data[key]
		if !found {
			return
		}
		if e.Type != TypeHash {
			wrongType = true
			return
		}

		for _, f := range fields {
			if e.Hash.Delete(f) {
				deleted++
			}
		}

		if e.Hash.Len() == 0 {
			delete(k.data, key)
		}
	})

	if err == nil && wrongType {
		err = ErrWrongType
	}
	return deleted, err
}

// Len returns the number of keys
func (k *Keyspace) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.data)
}

// TypeOf returns the type of the value stored at key
func (k *Keyspace) TypeOf(key string) (DataType, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.data[key]
	return e.Type, ok
}
