package suppliers

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes exposed in error payloads so API clients can branch on
// failures without parsing messages.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeMissingClaims      = "MISSING_CLAIMS"
	TextCodePolicyDenied       = "POLICY_DENIED"
	TextCodeUnknownPolicy      = "UNKNOWN_POLICY"
	TextCodeSupplierNotFound   = "SUPPLIER_NOT_FOUND"
	TextCodeSupplierConflict   = "SUPPLIER_CONFLICT"
	TextCodeRecordNotPersisted = "RECORD_NOT_PERSISTED"
)

// ErrMismatchedHashAndPassword is returned when credentials do not match.
// We reuse it for unknown identifiers so login never reveals whether an
// account exists.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeBadRequest)

// ErrAccountLocked is returned while an account is inside its lockout window
var ErrAccountLocked = errors.New("account is temporarily locked", errors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when a registration collides with an existing account
var ErrEmailTaken = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMissingClaims is returned when a protected route runs without claims in context
var ErrMissingClaims = errors.New("request carries no authenticated claims", errors.CategoryAuth).
	WithTextCode(TextCodeMissingClaims).
	WithCode(errors.CodeUnauthorized)

// ErrPolicyDenied is returned when claims do not satisfy a policy predicate
var ErrPolicyDenied = errors.New("insufficient permissions", errors.CategoryAuth).
	WithTextCode(TextCodePolicyDenied).
	WithCode(errors.CodeForbidden)

// ErrUnknownPolicy is returned when a route names a policy that was never
// registered. We fail closed: the request is denied, the error is an
// operator mistake rather than a client one.
var ErrUnknownPolicy = errors.New("authorization policy is not registered", errors.CategoryInternal).
	WithTextCode(TextCodeUnknownPolicy).
	WithCode(errors.CodeInternal)

// ErrSupplierNotFound is returned when a supplier lookup misses
var ErrSupplierNotFound = errors.New("supplier not found", errors.CategoryNotFound).
	WithTextCode(TextCodeSupplierNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotPersisted is returned when a write reports zero affected rows
var ErrNotPersisted = errors.New("record was not persisted", errors.CategoryOperation).
	WithTextCode(TextCodeRecordNotPersisted).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryBadInput).
	WithTextCode("EMPTY_STRING").
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors coming from the JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
