// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Nullable distinguishes a field that was evaluated and found empty
// (explicit JSON null) from a field that has not been computed yet
// (absent from the document). The zero value is "absent" and is
// omitted by the omitzero JSON option. Modeled on the database/sql
// Null types. Per prd001-ingestion R2.4.
type Nullable[T any] struct {
	Val   T
	Valid bool // false and Set → explicit null
	Set   bool // false → absent
}

// Value returns a Nullable holding v.
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Val: v, Valid: true, Set: true}
}

// Null returns an explicitly-null Nullable.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Get returns the value and whether it is non-null.
func (n Nullable[T]) Get() (T, bool) {
	return n.Val, n.Set && n.Valid
}

// IsZero reports whether the field is absent; encoding/json's omitzero
// option consults it.
func (n Nullable[T]) IsZero() bool {
	return !n.Set
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Val)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Valid = false
		var zero T
		n.Val = zero
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Val)
}
