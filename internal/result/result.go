// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package result carries the outcome of a data load so callers can tell
// "nothing there" apart from "could not load".
package result

// State is the outcome of a load.
type State int

// Load states.
const (
	StateSuccess State = iota
	StateEmpty
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result wraps a value together with how it was obtained.
type Result[T any] struct {
	state State
	value T
	err   error
}

// Success wraps a loaded value.
func Success[T any](v T) Result[T] {
	return Result[T]{state: StateSuccess, value: v}
}

// Empty marks a load that succeeded but found nothing. v is the zero-valued
// shape presentation should still render.
func Empty[T any](v T) Result[T] {
	return Result[T]{state: StateEmpty, value: v}
}

// Error marks a failed load.
func Error[T any](err error) Result[T] {
	return Result[T]{state: StateError, err: err}
}

// From builds a Result from a value/error pair, using isEmpty to tell
// the empty case apart.
func From[T any](v T, err error, isEmpty func(T) bool) Result[T] {
	if err != nil {
		return Error[T](err)
	}
	if isEmpty != nil && isEmpty(v) {
		return Empty(v)
	}
	return Success(v)
}

// FromSlice is From for slices: a nil or zero-length slice is Empty.
func FromSlice[E any](v []E, err error) Result[[]E] {
	return From(v, err, func(s []E) bool { return len(s) == 0 })
}

// State returns the load state.
func (r Result[T]) State() State { return r.state }

// Value returns the wrapped value. It is the zero value for errors.
func (r Result[T]) Value() T { return r.value }

// Err returns the load error, if any.
func (r Result[T]) Err() error { return r.err }

// IsSuccess reports a non-empty successful load.
func (r Result[T]) IsSuccess() bool { return r.state == StateSuccess }

// IsEmpty reports a successful load with no data.
func (r Result[T]) IsEmpty() bool { return r.state == StateEmpty }

// IsError reports a failed load.
func (r Result[T]) IsError() bool { return r.state == StateError }

// OK reports whether the load did not fail.
func (r Result[T]) OK() bool { return r.state != StateError }
