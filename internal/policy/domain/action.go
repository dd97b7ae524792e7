package domain

// SecurityAction is the graduated outcome of policy evaluation. Values form a
// total order: comparisons like action >= ActionBlockTemporary are meaningful.
type SecurityAction int

const (
	// ActionAllow permits authentication with no caveats.
	ActionAllow SecurityAction = iota

	// ActionWarn permits authentication but surfaces a warning to the user.
	ActionWarn

	// ActionDegrade permits authentication with reduced limits or features.
	ActionDegrade

	// ActionBlockTemporary blocks authentication until resolvable conditions clear.
	ActionBlockTemporary

	// ActionBlockPermanent blocks authentication on this device outright.
	ActionBlockPermanent
)

// String returns the action name for logs and alerts.
func (a SecurityAction) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionWarn:
		return "warn"
	case ActionDegrade:
		return "degrade"
	case ActionBlockTemporary:
		return "block_temporary"
	case ActionBlockPermanent:
		return "block_permanent"
	default:
		return "unknown"
	}
}

// AllowsAuthentication reports whether authentication may proceed under this
// action. Allow, warn, and degrade proceed; both block levels do not.
func (a SecurityAction) AllowsAuthentication() bool {
	return a < ActionBlockTemporary
}

// AllowsRetry reports whether the user may retry after resolving conditions.
// Only degrade and temporary blocks are retryable.
func (a SecurityAction) AllowsRetry() bool {
	return a == ActionDegrade || a == ActionBlockTemporary
}

// Severity grades the overall risk of a threat set.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a configuration string into a Severity, defaulting
// to SeverityHigh for unrecognized values (the conservative choice for alert
// thresholds).
func ParseSeverity(value string) Severity {
	switch value {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityHigh
	}
}
