// Package AppErrors holds the error taxonomy shared by services and handlers.
package AppErrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// AuthenticationError means the request carries no valid session.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "not authenticated"
	}
	return e.Message
}

// ValidationError is a missing or malformed input. Field is empty for
// errors that are not tied to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError means a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ForbiddenError means the caller is authenticated but lacks the role.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "insufficient permissions"
	}
	return e.Message
}

// StorageError wraps a store failure. Error returns the store's message
// unchanged so handlers can pass it through.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NotFound(entity string, id interface{}) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// Storage wraps err as a StorageError; nil stays nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
