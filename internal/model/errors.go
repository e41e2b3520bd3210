package model

import (
	"errors"
	"fmt"
	"strconv"
)

// Failure classes returned by the store. Use errors.Is to classify.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStorage           = errors.New("storage failure")
	ErrImportFormat      = errors.New("import format error")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a *ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError carries the quantity that was available so the
// caller can offer a corrected amount.
type InsufficientStockError struct {
	ItemID    int64
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: have %s, need %s",
		e.ItemID, FormatQuantity(e.Available), FormatQuantity(e.Requested))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return e.Kind + " " + strconv.FormatInt(e.ID, 10) + " not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a *NotFoundError.
func NotFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ImportFormatError explains why a snapshot document was rejected.
type ImportFormatError struct {
	Reason string
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Err != nil {
		return "import format error: " + e.Reason + ": " + e.Err.Error()
	}
	return "import format error: " + e.Reason
}

func (e *ImportFormatError) Unwrap() error { return e.Err }

func (e *ImportFormatError) Is(target error) bool { return target == ErrImportFormat }

// StorageError wraps a failed read or durability write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
