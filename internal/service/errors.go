package service

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindState        Kind = "state"
	KindPermission   Kind = "permission"
	KindUnauthorized Kind = "unauthorized"
)

type Code string

const (
	CodeMissingIngredients     Code = "missing_ingredients"
	CodeDuplicateIngredient    Code = "duplicate_ingredient"
	CodeMissingTags            Code = "missing_tags"
	CodeDuplicateTag           Code = "duplicate_tag"
	CodeAmountOutOfRange       Code = "amount_out_of_range"
	CodeCookingTimeOutOfRange  Code = "cooking_time_out_of_range"
	CodeMissingField           Code = "missing_field"
	CodeFieldTooLong           Code = "field_too_long"
	CodeInvalidImage           Code = "invalid_image"
	CodeInvalidCredentials     Code = "invalid_credentials"
	CodeInvalidInput           Code = "invalid_input"
	CodeDuplicateName          Code = "duplicate_name"
	CodeAlreadyExists          Code = "already_exists"
	CodeDoesNotExist           Code = "does_not_exist"
	CodeSelfSubscription       Code = "self_subscription"
	CodeNotFound               Code = "not_found"
	CodeNotOwner               Code = "not_owner"
	CodeAuthenticationRequired Code = "authentication_required"
	CodeInvalidToken           Code = "invalid_token"
)

// Error is a client-facing failure. Anything else returned by the service
// layer is an internal error.
type Error struct {
	Kind    Kind
	Code    Code
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s: %s", e.Kind, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func ValidationError(code Code, field, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: msg}
}

func NotFoundError(field, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Field: field, Message: msg}
}

func ConflictError(code Code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func StateError(msg string) *Error {
	return &Error{Kind: KindState, Code: CodeDoesNotExist, Message: msg}
}

func PermissionError(msg string) *Error {
	return &Error{Kind: KindPermission, Code: CodeNotOwner, Message: msg}
}

func UnauthorizedError(code Code, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg}
}

// AsError unwraps err down to a *Error, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries a client-facing error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
