package model

import (
	"bytes"
	"encoding/json"
)

// Field is one attribute of a patch. It distinguishes a field that was not
// supplied at all from one explicitly set to null and from one carrying a value.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON only runs for keys present in the payload, so reaching it
// always marks the field as supplied.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Ptr resolves a supplied field into the nullable form stored on records.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}
