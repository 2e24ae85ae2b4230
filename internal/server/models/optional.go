package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field with three states: unset (leave unchanged),
// null (clear) and a value. The zero value is unset.
type Optional[T any] struct {
	set   bool
	null  bool
	value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{set: true, value: v} }

func Null[T any]() Optional[T] { return Optional[T]{set: true, null: true} }

func (o Optional[T]) IsSet() bool  { return o.set }
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Get returns the value and true only when a non-null value was provided.
func (o Optional[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// ApplyTo writes the patch into a nullable field.
func (o Optional[T]) ApplyTo(dst **T) {
	if !o.set {
		return
	}
	if o.null {
		*dst = nil
		return
	}
	v := o.value
	*dst = &v
}

// UnmarshalJSON is only invoked for keys present in the document, so an
// absent key stays unset.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(b, &o.value)
}
