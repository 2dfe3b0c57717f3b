package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// NotFoundError names the missing resource. errors.Is(err, ErrorRecordNotFound) holds.
type NotFoundError struct {
	Resource string
	Id       interface{}
}

func (e *NotFoundError) Error() string {
	if e.Id == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrorRecordNotFound
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// InsufficientStockError is returned only when negative stock is disallowed.
type InsufficientStockError struct {
	IngredientId int
	Name         string
	Available    float64
	Required     float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %g, required %g", e.Name, e.Available, e.Required)
}

// PersistenceError wraps storage failures. It is never retried automatically.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewNotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, Id: id}
}

func NewValidation(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

const mysqlDuplicateEntry = 1062

// WrapDBError maps storage errors onto the error taxonomy.
// Typed errors pass through untouched.
func WrapDBError(op string, resource string, err error) error {
	if err == nil {
		return nil
	}
	var (
		nf *NotFoundError
		ve *ValidationError
		is *InsufficientStockError
		pe *PersistenceError
	)
	if errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &is) || errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrorRecordNotFound) {
		return NewNotFound(resource, nil)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return NewValidation(resource, "duplicate entry")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewValidation(resource, "duplicate entry")
	}
	return &PersistenceError{Op: op, Err: err}
}
