package storage

import "github.com/google/btree"

type DataType byte

const (
	TypeString DataType = iota + 1
	TypeHash
)

func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	}
	return "unknown"
}

// Entity generic container for value. Exactly one of String or Hash is meaningful, selected by Type
type Entity struct {
	Type   DataType
	String string
	Hash   *Hash
}

// HashField represents a single field inside a Hash
type HashField struct {
	Field string
	Value string
}

// btreeDegree is small because hashes are usually small
const btreeDegree = 8

// Hash keeps fields ordered by name so HGETALL replies are deterministic
type Hash struct {
	fields *btree.BTreeG[HashField]
}

func lessField(a, b HashField) bool {
	return a.Field < b.Field
}

// NewHash returns an empty hash
func NewHash() *Hash {
	return &Hash{fields: btree.NewG(btreeDegree, lessField)}
}

// Set stores value under field and reports whether the field is new
func (h *Hash) Set(field, value string) bool {
	_, replaced := h.fields.ReplaceOrInsert(HashField{Field: field, Value: value})
	return !replaced
}

// Get returns the value of field
func (h *Hash) Get(field string) (string, bool) {
	f, ok := h.fields.Get(HashField{Field: field})
	return f.Value, ok
}

// Delete removes field and reports whether it was present
func (h *Hash) Delete(field string) bool {
	_, ok := h.fields.Delete(HashField{Field: field})
	return ok
}

// Len returns the number of fields
func (h *Hash) Len() int {
	return h.fields.Len()
}

// Fields returns a copy of all fields in ascending field order
func (h *Hash) Fields() []HashField {
	out := make([]HashField, 0, h.fields.Len())
	h.fields.Ascend(func(f HashField) bool {
		out = append(out, f)
		return true
	})
	return out
}
