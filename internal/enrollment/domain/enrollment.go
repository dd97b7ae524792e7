// Package domain defines the persisted enrollment record and the outcomes
// of policy-gated enrollment and verification.
package domain

import (
	"time"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
	policyDomain "github.com/allisson/factorauth/internal/policy/domain"
)

// Enrollment is the durable record of a user's factor enrollment: the
// wrapped derived key plus bookkeeping. One record per user; re-enrollment
// replaces it, key rotation updates the wrapped key in place. Deleting the
// record is the erasure mechanism.
type Enrollment struct {
	UserID      string
	WrappedKey  cryptoDomain.WrappedKey
	FactorCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EnrollOutcome is the result of a policy-gated enrollment. When the device
// policy blocks the attempt, Decision carries the block and Result is nil;
// a blocked attempt is a decision, not an error.
type EnrollOutcome struct {
	Decision policyDomain.SecurityDecision
	Result   *cryptoDomain.EnrollmentResult
}

// Blocked reports whether the policy stopped the operation.
func (o *EnrollOutcome) Blocked() bool {
	return !o.Decision.Action.AllowsAuthentication()
}

// VerifyOutcome is the result of a policy-gated verification.
type VerifyOutcome struct {
	Decision policyDomain.SecurityDecision
	Result   *cryptoDomain.VerificationResult
}

// Blocked reports whether the policy stopped the operation.
func (o *VerifyOutcome) Blocked() bool {
	return !o.Decision.Action.AllowsAuthentication()
}
