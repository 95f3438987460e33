package student

import "errors"

// Error kinds. Callers match them with errors.Is.
var (
	// ErrValidation means a required field is empty.
	ErrValidation = errors.New("required field is empty")

	// ErrNoSelection means update or delete was attempted with no row selected.
	ErrNoSelection = errors.New("no student selected")

	// ErrStore is any backend or connectivity failure.
	ErrStore = errors.New("store error")

	// ErrDuplicateMobile is a uniqueness violation on the mobile number.
	// It is also a store error.
	ErrDuplicateMobile error = &kindError{msg: "mobile number already exists", parent: ErrStore}
)

// kindError is a sentinel that also matches a broader parent kind.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.parent }

// FieldError names the field that failed validation.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "required field is empty: " + e.Field
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// StoreError wraps a backend failure with the operation that caused it.
// It matches ErrStore, and ErrDuplicateMobile when Duplicate is set.
type StoreError struct {
	Op        string
	Duplicate bool
	Err       error
}

func (e *StoreError) Error() string {
	if e.Duplicate {
		return e.Op + ": " + ErrDuplicateMobile.Error() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	if target == ErrStore {
		return true
	}
	return e.Duplicate && target == ErrDuplicateMobile
}
