// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/factorauth/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// UserID validates a user identifier: non-blank, no surrounding whitespace,
// at most 128 bytes. IDs are opaque strings (UUIDs in practice) used as the
// key derivation salt, so blank or padded values would silently weaken it.
var UserID = validation.NewStringRuleWithError(
	func(s string) bool {
		trimmed := strings.TrimSpace(s)
		return trimmed != "" && trimmed == s && len(s) <= 128
	},
	validation.NewError("validation_user_id", "must be a non-blank identifier of at most 128 bytes"),
)

// FactorValue validates a canonical factor string produced by the capture
// layer: non-empty, valid UTF-8, and bounded so a misbehaving processor
// cannot feed megabytes into the derivation pipeline.
var FactorValue = validation.NewStringRuleWithError(
	func(s string) bool {
		return s != "" && utf8.ValidString(s) && len(s) <= 1024
	},
	validation.NewError("validation_factor_value", "must be a non-empty UTF-8 string of at most 1024 bytes"),
)

// Factors validates an ordered factor list against a minimum count.
type Factors struct {
	MinCount int
}

// Validate checks the factor list length and each factor value.
func (f Factors) Validate(value interface{}) error {
	factors, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_factors", "factors must be a list of strings")
	}

	if len(factors) < f.MinCount {
		return validation.NewError(
			"validation_factors_min_count",
			"at least two independent factors are required",
		)
	}

	for _, factor := range factors {
		if err := validation.Validate(factor, FactorValue); err != nil {
			return err
		}
	}

	return nil
}
