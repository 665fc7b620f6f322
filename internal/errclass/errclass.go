package errclass

import (
	"errors"
)

// Classes every domain error unwraps to. Anything that matches none of
// them is treated as a store failure.
var (
	ErrInput     = errors.New("input_error")
	ErrCapacity  = errors.New("capacity_error")
	ErrPolicyGap = errors.New("policy_gap")
	ErrNotFound  = errors.New("not_found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
)

type Class string

const (
	ClassInput     Class = "input"
	ClassCapacity  Class = "capacity"
	ClassPolicyGap Class = "policy_gap"
	ClassNotFound  Class = "not_found"
	ClassConflict  Class = "conflict"
	ClassForbidden Class = "forbidden"
	ClassStore     Class = "store"
)

type codedError struct {
	code  string
	class error
}

func (e *codedError) Error() string { return e.code }

func (e *codedError) Unwrap() error { return e.class }

func (e *codedError) Code() string { return e.code }

func Input(code string) error { return &codedError{code: code, class: ErrInput} }

func Capacity(code string) error { return &codedError{code: code, class: ErrCapacity} }

func PolicyGap(code string) error { return &codedError{code: code, class: ErrPolicyGap} }

func NotFound(code string) error { return &codedError{code: code, class: ErrNotFound} }

func Conflict(code string) error { return &codedError{code: code, class: ErrConflict} }

func Forbidden(code string) error { return &codedError{code: code, class: ErrForbidden} }

func Of(err error) Class {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return ClassInput
	case errors.Is(err, ErrCapacity):
		return ClassCapacity
	case errors.Is(err, ErrPolicyGap):
		return ClassPolicyGap
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrForbidden):
		return ClassForbidden
	default:
		return ClassStore
	}
}

// Code returns the snake_case code of the first coded error in the chain.
func Code(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
