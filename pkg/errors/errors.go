package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNilUser            = errors.New("user is nil")
	ErrNilBlacklistEntry  = errors.New("blacklist entry is nil")
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrIncorrectPassword  = errors.New("old password is incorrect")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInternal           = fmt.Errorf("internal error")
)

// ValidationError collects messages per input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field string, messages ...string) *ValidationError {
	v := &ValidationError{Fields: map[string][]string{}}
	v.Add(field, messages...)
	return v
}

func (v *ValidationError) Add(field string, messages ...string) {
	if v.Fields == nil {
		v.Fields = map[string][]string{}
	}
	v.Fields[field] = append(v.Fields[field], messages...)
}

func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], " ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}
