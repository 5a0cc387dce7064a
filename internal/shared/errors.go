package shared

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a business rule failure with a stable code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so a sentinel still
// matches after its message has been specialised with Errorf.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Errorf returns a copy of e with a formatted message.
func (e *DomainError) Errorf(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrDuplicateCode       = NewDomainError("DUPLICATE_CODE", "Product code already exists")
	ErrDuplicateName       = NewDomainError("DUPLICATE_NAME", "Category already exists")
	ErrDuplicateContact    = NewDomainError("DUPLICATE_CONTACT", "Customer with this contact number already exists")
	ErrOutOfStock          = NewDomainError("OUT_OF_STOCK", "Product out of stock")
	ErrStockExceeded       = NewDomainError("STOCK_EXCEEDED", "Cannot exceed available stock")
	ErrEmptyCart           = NewDomainError("EMPTY_CART", "Cart is empty")
	ErrMissingCustomerInfo = NewDomainError("MISSING_CUSTOMER_INFO", "Customer name and contact number are required")
	ErrCommitFailed        = NewDomainError("COMMIT_FAILED", "Sale could not be committed")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// IsSoft reports whether err only describes a clamped or skipped cart change.
// The operation that returned it still completed.
func IsSoft(err error) bool {
	return errors.Is(err, ErrOutOfStock) || errors.Is(err, ErrStockExceeded)
}

// Code returns the code of the first DomainError in err's chain, or "".
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Message joins the messages of every DomainError in err's tree, in wrap
// order, leaving out anything else the chain carries (driver or transport
// text). It returns "" when the tree holds no DomainError.
func Message(err error) string {
	var parts []string
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *DomainError:
			parts = append(parts, x.Message)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return strings.Join(parts, ": ")
}
