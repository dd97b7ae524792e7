package domain

import "time"

// SecurityDecision is the outcome of evaluating a threat set. The action is
// always the most severe applicable level for the input, and repeated
// evaluation of the same threat set yields an identical decision.
type SecurityDecision struct {
	Action                 SecurityAction
	Threats                []Threat
	Severity               Severity
	UserMessage            string
	ResolutionInstructions []string // Deduplicated, in threat order, with an action-specific closer
	AllowRetry             bool
	MerchantAlert          *MerchantAlert // Nil unless the action and severity warrant one
}

// MerchantAlert notifies the merchant that a customer device looks
// compromised. Emitted for every permanent block, for temporary blocks at or
// above the configured severity floor, and for degrade decisions when the
// deployment opts in. Never emitted for allow or warn.
type MerchantAlert struct {
	AlertID        string // Set when the alert is emitted, not during evaluation
	AlertType      string
	Severity       Severity
	Threats        []Threat
	UserID         string
	Timestamp      time.Time
	RequiresAction bool
}
