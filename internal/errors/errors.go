package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so transports can map it to a status
// without parsing messages.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindState      Kind = "state"
	KindCapacity   Kind = "capacity"
	KindInternal   Kind = "internal"
)

// Machine-readable reason codes, distinct from the human message.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeTicketTypeNotFound  = "TICKET_TYPE_NOT_FOUND"
	CodeSaleNotFound        = "SALE_NOT_FOUND"
	CodeInsufficientTickets = "INSUFFICIENT_TICKETS"
	CodeMaxPerCustomer      = "MAX_PER_CUSTOMER_EXCEEDED"
	CodeSaleWindowClosed    = "SALE_WINDOW_CLOSED"
	CodeInvalidPromoCode    = "INVALID_PROMO_CODE"
	CodePromoExpired        = "PROMO_EXPIRED"
	CodePromoUsageExceeded  = "PROMO_USAGE_EXCEEDED"
	CodeMinPurchaseNotMet   = "MIN_PURCHASE_NOT_MET"
	CodeInvalidReferral     = "INVALID_REFERRAL_CODE"
	CodeReferralUsed        = "REFERRAL_ALREADY_USED"
	CodeInternal            = "INTERNAL"
)

// Error is a typed engine error carrying a kind and a reason code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input, checked before any store access.
func Validation(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message)
}

// NotFound reports an absent ticket type, promo or referral.
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// State reports a precondition violation on otherwise well-formed input
// (inactive, expired, usage-exceeded, already-used).
func State(code, message string) *Error {
	return New(KindState, code, message)
}

// Capacity reports insufficient inventory, including the race-lost case.
func Capacity(message string) *Error {
	return New(KindCapacity, CodeInsufficientTickets, message)
}

// Internal wraps an unexpected fault. The wrapped error is kept for logging
// but is not exposed in the client-facing message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", err: err}
}

// FromError extracts a typed engine error, or wraps err as internal.
func FromError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is a typed engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HasCode reports whether err carries the given reason code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
