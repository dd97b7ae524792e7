// Package service implements the device trust policy: a pure mapping from a
// set of detected threats to a graduated security decision.
package service

import (
	"fmt"
	"time"

	policyDomain "github.com/allisson/factorauth/internal/policy/domain"
)

// Config holds the deployment-tunable parts of the policy. The threat
// classification table itself is fixed: per-category action overrides are
// deliberately not exposed, since reclassifying (say) root access downward
// would silently void the engine's trust assumptions.
type Config struct {
	// AlertOnDegrade emits a merchant alert for degrade decisions.
	AlertOnDegrade bool
	// TemporaryAlertMinSeverity is the severity floor at which a temporary
	// block emits a merchant alert.
	TemporaryAlertMinSeverity policyDomain.Severity
}

// DefaultConfig returns the production defaults: no degrade alerts, temporary
// alerts at high severity and above.
func DefaultConfig() Config {
	return Config{
		AlertOnDegrade:            false,
		TemporaryAlertMinSeverity: policyDomain.SeverityHigh,
	}
}

// Fixed classification categories, checked in priority order. First match wins.
var (
	permanentThreats = map[policyDomain.Threat]bool{
		policyDomain.ThreatRootAccess:        true,
		policyDomain.ThreatRootManagementApp: true,
		policyDomain.ThreatEmulator:          true,
		policyDomain.ThreatHookingFramework:  true,
		policyDomain.ThreatAppTampering:      true,
		policyDomain.ThreatSSLPinningBypass:  true,
		policyDomain.ThreatProcessInjection:  true,
	}

	temporaryThreats = map[policyDomain.Threat]bool{
		policyDomain.ThreatDebuggerAttached: true,
		policyDomain.ThreatDeveloperMode:    true,
		policyDomain.ThreatADBEnabled:       true,
		policyDomain.ThreatActiveTrace:      true,
	}

	degradeThreats = map[policyDomain.Threat]bool{
		policyDomain.ThreatVPNActive:     true,
		policyDomain.ThreatProxyDetected: true,
	}

	warnThreats = map[policyDomain.Threat]bool{
		policyDomain.ThreatMockLocation:    true,
		policyDomain.ThreatSuBinaryPresent: true,
	}
)

// Evaluator maps threat sets to security decisions. It holds no mutable
// state: evaluation is a pure function of the input and the construction-time
// config.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator with the given config.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate classifies the threat set into a decision.
func (e *Evaluator) Evaluate(threats []policyDomain.Threat) policyDomain.SecurityDecision {
	return e.EvaluateWithHint(threats, policyDomain.SeverityLow)
}

// EvaluateWithHint additionally accepts the detector's own severity estimate,
// consulted only when the fixed categories do not decide the action.
func (e *Evaluator) EvaluateWithHint(
	threats []policyDomain.Threat,
	hint policyDomain.Severity,
) policyDomain.SecurityDecision {
	severity := aggregateSeverity(threats)
	action := classify(threats, severity, hint)

	decision := policyDomain.SecurityDecision{
		Action:                 action,
		Threats:                append([]policyDomain.Threat(nil), threats...),
		Severity:               severity,
		UserMessage:            userMessage(action, len(threats)),
		ResolutionInstructions: instructions(threats, action),
		AllowRetry:             action.AllowsRetry(),
	}

	if alert := e.merchantAlert(action, severity, threats); alert != nil {
		decision.MerchantAlert = alert
	}

	return decision
}

// IsDeviceSecure reports whether the threat set evaluates to an unqualified allow.
func (e *Evaluator) IsDeviceSecure(threats []policyDomain.Threat) bool {
	return e.Evaluate(threats).Action == policyDomain.ActionAllow
}

// classify applies the fixed priority table, falling back to aggregate
// severity for threat sets outside every category.
func classify(
	threats []policyDomain.Threat,
	severity policyDomain.Severity,
	hint policyDomain.Severity,
) policyDomain.SecurityAction {
	if len(threats) == 0 {
		return policyDomain.ActionAllow
	}

	var inTemporary, inDegrade, inWarn, outsideAll bool
	for _, threat := range threats {
		switch {
		case permanentThreats[threat]:
			// Highest priority: a single permanent threat decides the outcome.
			return policyDomain.ActionBlockPermanent
		case temporaryThreats[threat]:
			inTemporary = true
		case degradeThreats[threat]:
			inDegrade = true
		case warnThreats[threat]:
			inWarn = true
		default:
			outsideAll = true
		}
	}

	switch {
	case inTemporary:
		return policyDomain.ActionBlockTemporary
	case inDegrade:
		return policyDomain.ActionDegrade
	case inWarn && !outsideAll:
		return policyDomain.ActionWarn
	}

	// Unclassified threats: decide from aggregate severity, letting the
	// detector's hint raise (never lower) the estimate.
	if hint > severity {
		severity = hint
	}
	switch severity {
	case policyDomain.SeverityCritical:
		return policyDomain.ActionBlockPermanent
	case policyDomain.SeverityHigh:
		return policyDomain.ActionBlockTemporary
	default:
		return policyDomain.ActionWarn
	}
}

// aggregateSeverity grades a threat set from per-threat classes and counts:
// two high-class threats or any critical-class threat is critical; one
// high-class threat or two medium-class threats is high; one medium-class
// threat or three threats of any kind is medium; anything else is low.
func aggregateSeverity(threats []policyDomain.Threat) policyDomain.Severity {
	var critical, high, medium int
	for _, threat := range threats {
		switch threat.Class() {
		case policyDomain.ClassCritical:
			critical++
		case policyDomain.ClassHigh:
			high++
		case policyDomain.ClassMedium:
			medium++
		}
	}

	switch {
	case critical >= 1 || high >= 2:
		return policyDomain.SeverityCritical
	case high == 1 || medium >= 2:
		return policyDomain.SeverityHigh
	case medium == 1 || len(threats) >= 3:
		return policyDomain.SeverityMedium
	default:
		return policyDomain.SeverityLow
	}
}

// userMessage is the human-readable summary for each action level.
func userMessage(action policyDomain.SecurityAction, threatCount int) string {
	switch action {
	case policyDomain.ActionAllow:
		return "Device check passed."
	case policyDomain.ActionWarn:
		return fmt.Sprintf("Device check passed with %d warning(s).", threatCount)
	case policyDomain.ActionDegrade:
		return "Your network configuration reduces available features."
	case policyDomain.ActionBlockTemporary:
		return "Authentication is blocked until device issues are resolved."
	default:
		return "Authentication is not available on this device."
	}
}

// instructions collects per-threat remediation steps in threat order, without
// duplicates, and appends the action-specific closing instruction.
func instructions(threats []policyDomain.Threat, action policyDomain.SecurityAction) []string {
	var out []string
	seen := map[string]bool{}
	for _, threat := range threats {
		instruction := threat.ResolutionInstruction()
		if instruction == "" || seen[instruction] {
			continue
		}
		seen[instruction] = true
		out = append(out, instruction)
	}

	switch action {
	case policyDomain.ActionDegrade:
		out = append(out, "Resolve the network conditions above to restore full functionality.")
	case policyDomain.ActionBlockTemporary:
		out = append(out, "Restart the application after resolving the issues above.")
	case policyDomain.ActionBlockPermanent:
		out = append(out, "Use a different device to continue.")
	}
	return out
}

// merchantAlert decides whether the merchant is notified and builds the alert.
func (e *Evaluator) merchantAlert(
	action policyDomain.SecurityAction,
	severity policyDomain.Severity,
	threats []policyDomain.Threat,
) *policyDomain.MerchantAlert {
	var alertType string
	requiresAction := false

	switch action {
	case policyDomain.ActionBlockPermanent:
		alertType = "device_compromised"
		requiresAction = true
	case policyDomain.ActionBlockTemporary:
		if severity < e.cfg.TemporaryAlertMinSeverity {
			return nil
		}
		alertType = "device_suspicious"
	case policyDomain.ActionDegrade:
		if !e.cfg.AlertOnDegrade {
			return nil
		}
		alertType = "network_untrusted"
	default:
		return nil
	}

	return &policyDomain.MerchantAlert{
		AlertType:      alertType,
		Severity:       severity,
		Threats:        append([]policyDomain.Threat(nil), threats...),
		Timestamp:      time.Now().UTC(),
		RequiresAction: requiresAction,
	}
}
